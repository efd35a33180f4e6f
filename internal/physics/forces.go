package physics

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

// Gravity is the standard acceleration of free fall in m/s^2.
const Gravity = 9.80665

// SeaLevelAirDensity is the atmosphere density at zero elevation in
// kg/m^3.
const SeaLevelAirDensity = 1.225

// GroundFriction is the deceleration coefficient for derailed cars
// dragging over the ballast.
const GroundFriction = 0.5

// airDensityScaleHeight for the isothermal atmosphere approximation.
const airDensityScaleHeight = 8435.0

// AirDensity approximates atmosphere density at the given elevation.
func AirDensity(elevation float64) float64 {
	return SeaLevelAirDensity * math.Exp(-elevation/airDensityScaleHeight)
}

// AxleResistance returns the rolling plus aerodynamic deceleration
// opposing the car's motion, evaluated at one axle, in m/s^2. The face
// of the rake leading in the current travel direction uses the exposed
// frontal area, every other car the unexposed one.
func AxleResistance(t *train.Train, i int, axle *train.Axle, speed float64) float64 {
	s := &t.Cars[i].Specs
	area := s.UnexposedFrontalArea
	if (i == 0 && s.CurrentSpeed >= 0) || (i == len(t.Cars)-1 && s.CurrentSpeed <= 0) {
		area = s.ExposedFrontalArea
	}
	density := AirDensity(axle.Follower.WorldPosition.Y())
	drag := area * s.AerodynamicDragCoefficient * density / (2 * s.MassCurrent)
	return Gravity*s.CoefficientOfRollingResistance + drag*speed*speed
}

// CriticalWheelSlipAccelerationForMotor is the traction bound above
// which a powered wheelset loses adhesion. The normal force follows the
// world-up component of the axle pose, so grades and crests lower it.
func CriticalWheelSlipAccelerationForMotor(car *train.Car, axle *train.Axle) float64 {
	if car.Derailed {
		return 0
	}
	normal := axle.Follower.WorldUp.Y() * Gravity
	return car.Specs.CoefficientOfStaticFriction * car.Specs.AdhesionMultiplier * normal
}

// CriticalWheelSlipAccelerationForBrake bounds friction-brake
// deceleration the same way. Brake force is not helped by traction
// adhesion control, so the multiplier does not apply.
func CriticalWheelSlipAccelerationForBrake(car *train.Car, axle *train.Axle) float64 {
	if car.Derailed {
		return 0
	}
	return car.Specs.CoefficientOfStaticFriction * axle.Follower.WorldUp.Y() * Gravity
}
