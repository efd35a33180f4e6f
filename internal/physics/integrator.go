package physics

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

const (
	// wheelspinPerceivedDivisor converts accumulated wheelspin into the
	// speed offset a spinning axle shows on the gauge.
	wheelspinPerceivedDivisor = 2500.0

	// restSpeedWindow bounds the speeds treated as standstill when
	// clamping brake force against the grade.
	restSpeedWindow = 0.01
)

// UpdateSpeeds integrates one tick of longitudinal forces for every car
// of the train and returns the tentative new speeds in car order. Wheel
// flags, re-adhesion devices, motor output and perceived speeds are
// updated in place; CurrentSpeed itself is left untouched so the
// coupler solver still sees the pre-tick values.
func UpdateSpeeds(t *train.Train, elapsed float64, brakes train.BrakeOutput) []float64 {
	speeds := make([]float64, len(t.Cars))
	if elapsed <= 0 {
		for i, c := range t.Cars {
			speeds[i] = c.Specs.CurrentSpeed
		}
		return speeds
	}
	for i := range t.Cars {
		speeds[i] = updateCarSpeed(t, i, elapsed, brakes)
	}
	return speeds
}

func updateCarSpeed(t *train.Train, i int, elapsed float64, brakes train.BrakeOutput) float64 {
	car := t.Cars[i]
	s := &car.Specs

	// grade pulls along the track axis, signed against the slope
	grade := -0.5 * (car.FrontAxle.Follower.WorldDirection.Y() +
		car.RearAxle.Follower.WorldDirection.Y()) * Gravity

	abs := math.Abs(s.CurrentSpeed)
	friction := 0.5 * (AxleResistance(t, i, &car.FrontAxle, abs) +
		AxleResistance(t, i, &car.RearAxle, abs))

	if car.Derailed {
		s.CurrentAccelerationOutput = 0
		s.CurrentWheelSpin = 0
		car.FrontAxle.CurrentWheelSlip = false
		car.RearAxle.CurrentWheelSlip = false
		car.FrontAxle.CurrentWheelLock = false
		car.RearAxle.CurrentWheelLock = false
		friction += GroundFriction * Gravity
		updatePerceivedSpeed(car, elapsed)
		return finalSpeed(s.CurrentSpeed, grade, friction, elapsed)
	}

	// motor
	wheelspin := 0.0
	if s.IsMotorCar && motorBrakeDemand(brakes, i) == 0 {
		target := 0.0
		h := t.Handles
		if h.Reverser != 0 && h.PowerNotch > 0 && !h.HoldBrake && !h.EmergencyBrake {
			if idx := h.PowerNotch - 1; idx >= 0 && idx < len(s.AccelerationCurves) {
				rel := float64(h.Reverser) * s.CurrentSpeed
				target = s.AccelerationCurves[idx].Accelerate(rel, s.AccelerationCurveMultiplier)
			}
			if ceiling := s.ReAdhesionDevice.Ceiling(); target > ceiling {
				target = ceiling
			}
			car.FrontAxle.CurrentWheelSlip = target > CriticalWheelSlipAccelerationForMotor(car, &car.FrontAxle)
			car.RearAxle.CurrentWheelSlip = target > CriticalWheelSlipAccelerationForMotor(car, &car.RearAxle)
			if car.FrontAxle.CurrentWheelSlip {
				wheelspin += float64(h.Reverser) * target * s.MassCurrent
			}
			if car.RearAxle.CurrentWheelSlip {
				wheelspin += float64(h.Reverser) * target * s.MassCurrent
			}
			slipping := car.FrontAxle.CurrentWheelSlip || car.RearAxle.CurrentWheelSlip
			s.ReAdhesionDevice.Update(elapsed, slipping, target)
			if slipping {
				target = 0
			}
		} else {
			car.FrontAxle.CurrentWheelSlip = false
			car.RearAxle.CurrentWheelSlip = false
		}
		s.CurrentAccelerationOutput = approach(s.CurrentAccelerationOutput, target, s, elapsed)
	} else if s.IsMotorCar {
		// dynamic brake: output is driven toward the negative target
		car.FrontAxle.CurrentWheelSlip = false
		car.RearAxle.CurrentWheelSlip = false
		s.CurrentAccelerationOutput = approach(s.CurrentAccelerationOutput, -motorBrakeDemand(brakes, i), s, elapsed)
	} else {
		s.CurrentAccelerationOutput = 0
	}
	s.CurrentWheelSpin = wheelspin

	accel := grade
	if out := s.CurrentAccelerationOutput; out > 0 {
		accel += float64(t.Handles.Reverser) * out
	} else {
		friction += -out
	}

	// friction brake
	decel := brakeDemand(brakes, i)
	if s.CurrentSpeed >= -restSpeedWindow && s.CurrentSpeed <= restSpeedWindow {
		// a standing car is held, never pushed, by its brakes
		if limit := math.Abs(grade); decel > limit {
			decel = limit
		}
	}
	// brake force is sized for the empty car, so the achieved
	// deceleration shrinks with load
	loadFactor := 1.0
	if s.MassCurrent > 0 {
		loadFactor = s.MassEmpty / s.MassCurrent
	}
	if decel >= CriticalWheelSlipAccelerationForBrake(car, &car.FrontAxle) {
		car.FrontAxle.CurrentWheelLock = true
	} else {
		car.FrontAxle.CurrentWheelLock = false
		friction += 0.5 * decel * loadFactor
	}
	if decel >= CriticalWheelSlipAccelerationForBrake(car, &car.RearAxle) {
		car.RearAxle.CurrentWheelLock = true
	} else {
		car.RearAxle.CurrentWheelLock = false
		friction += 0.5 * decel * loadFactor
	}

	updatePerceivedSpeed(car, elapsed)
	return finalSpeed(s.CurrentSpeed, accel, friction, elapsed)
}

// approach moves the motor output toward target at the jerk rate for
// the sign quadrant of the transition, never overshooting. A
// non-positive rate snaps to the target.
func approach(current, target float64, s *train.CarSpecs, elapsed float64) float64 {
	switch {
	case target > current:
		rate := s.JerkPowerUp
		if current < 0 {
			rate = s.JerkBrakeDown
		}
		if rate <= 0 {
			return target
		}
		if next := current + rate*elapsed; next < target {
			return next
		}
		return target
	case target < current:
		rate := s.JerkPowerDown
		if current <= 0 {
			rate = s.JerkBrakeUp
		}
		if rate <= 0 {
			return target
		}
		if next := current - rate*elapsed; next > target {
			return next
		}
		return target
	default:
		return current
	}
}

// finalSpeed combines the accelerating term with the decelerating
// magnitude such that friction and brakes alone can only drive the
// speed toward zero, never through it.
func finalSpeed(speed, accel, decel, elapsed float64) float64 {
	d := sign(speed)
	if math.Abs(accel) < decel {
		var c float64
		if sign(accel) == d && d != 0 {
			c = (decel - math.Abs(accel)) * elapsed
		} else {
			c = (math.Abs(accel) + decel) * elapsed
		}
		if math.Abs(speed) > c {
			return speed - float64(d)*c
		}
		return 0
	}
	return speed + (accel-float64(d)*decel)*elapsed
}

func brakeDemand(b train.BrakeOutput, i int) float64 {
	if i < len(b.DecelerationDueToBrake) {
		return b.DecelerationDueToBrake[i]
	}
	return 0
}

func motorBrakeDemand(b train.BrakeOutput, i int) float64 {
	if i < len(b.DecelerationDueToMotor) {
		return b.DecelerationDueToMotor[i]
	}
	return 0
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
