package train

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/railkit/railsim/internal/track"
)

// DefaultAxlePositionRatio places axles at 40% of the car length from
// the center when a builder does not override them.
const DefaultAxlePositionRatio = 0.4

// Axle couples one wheelset to the track axis. Position is the offset
// from the car center along the car, positive toward the front.
type Axle struct {
	Follower track.Follower
	Position float64

	// CurrentWheelSlip reports motor traction exceeding adhesion this
	// tick; CurrentWheelLock reports the friction brake locking the
	// wheelset. Both are rewritten every physics tick.
	CurrentWheelSlip bool
	CurrentWheelLock bool
}

// Status is the derived toppling state of a car.
type Status int

const (
	StatusUpright Status = iota
	StatusToppling
	StatusDerailed
)

func (s Status) String() string {
	switch s {
	case StatusUpright:
		return "upright"
	case StatusToppling:
		return "toppling"
	case StatusDerailed:
		return "derailed"
	default:
		return "unknown"
	}
}

// CarSpecs holds the per-car physical parameters and the mutable state
// the integrator rewrites each tick. Speeds are signed along the track
// axis, masses in kg, angles in radians.
type CarSpecs struct {
	MassEmpty   float64
	MassCurrent float64

	ExposedFrontalArea             float64
	UnexposedFrontalArea           float64
	AerodynamicDragCoefficient     float64
	CoefficientOfRollingResistance float64
	CoefficientOfStaticFriction    float64
	AdhesionMultiplier             float64

	CenterOfGravityHeight float64
	CriticalTopplingAngle float64

	IsMotorCar                  bool
	AccelerationCurves          []AccelerationCurve
	AccelerationCurveMultiplier float64

	// Jerk limits in m/s^3 for the four quadrants of motor output
	// change: raising or cutting power, applying or releasing the
	// dynamic brake.
	JerkPowerUp   float64
	JerkPowerDown float64
	JerkBrakeUp   float64
	JerkBrakeDown float64

	CurrentSpeed              float64
	CurrentPerceivedSpeed     float64
	CurrentAcceleration       float64
	CurrentAccelerationOutput float64
	CurrentWheelSpin          float64

	CurrentRollDueToCantAngle          float64
	CurrentRollDueToTopplingAngle      float64
	CurrentRollShakeAngle              float64
	CurrentRollShakeSpeed              float64
	CurrentPitchDueToAccelerationAngle float64

	ReAdhesionDevice ReAdhesionDevice
}

// Car is one vehicle of a train. Its longitudinal placement is fully
// determined by the two axle followers; Position and the frame vectors
// are derived from them by UpdateWorldPose.
type Car struct {
	FrontAxle Axle
	RearAxle  Axle
	Length    float64
	Specs     CarSpecs
	Derailed  bool

	Position  mgl64.Vec3
	Direction mgl64.Vec3
	Up        mgl64.Vec3
	Side      mgl64.Vec3
}

// PlaceAt puts the car on a geometry with its center at the given track
// position and refreshes the world pose.
func (c *Car) PlaceAt(g track.Geometry, center float64) {
	c.FrontAxle.Follower = track.NewFollower(g, center+c.FrontAxle.Position)
	c.RearAxle.Follower = track.NewFollower(g, center+c.RearAxle.Position)
	c.UpdateWorldPose()
}

// CenterPosition is the car center on the track axis, reconstructed
// from both axles so coupler corrections that moved only one axle are
// still reflected.
func (c *Car) CenterPosition() float64 {
	front := c.FrontAxle.Follower.TrackPosition - c.FrontAxle.Position
	rear := c.RearAxle.Follower.TrackPosition - c.RearAxle.Position
	return 0.5 * (front + rear)
}

// FrontExtent is the track position of the car's front face.
func (c *Car) FrontExtent() float64 { return c.CenterPosition() + 0.5*c.Length }

// RearExtent is the track position of the car's rear face.
func (c *Car) RearExtent() float64 { return c.CenterPosition() - 0.5*c.Length }

// Displace moves both axles by delta along the track. A zero delta is a
// no-op.
func (c *Car) Displace(delta float64) {
	c.FrontAxle.Follower.Advance(delta)
	c.RearAxle.Follower.Advance(delta)
}

// Derail marks the car as derailed. The flag is never cleared.
func (c *Car) Derail() { c.Derailed = true }

// Status derives the toppling state from the roll flags.
func (c *Car) Status() Status {
	switch {
	case c.Derailed:
		return StatusDerailed
	case c.Specs.CurrentRollDueToTopplingAngle != 0:
		return StatusToppling
	default:
		return StatusUpright
	}
}

// TotalRollAngle is the sum of all roll contributions, for consumers
// that render or report a single lean value.
func (c *Car) TotalRollAngle() float64 {
	return c.Specs.CurrentRollDueToCantAngle +
		c.Specs.CurrentRollDueToTopplingAngle +
		c.Specs.CurrentRollShakeAngle
}

// UpdateWorldPose derives the car frame from the two axle poses. When
// the axles coincide the canonical frame is used so downstream vector
// math never sees a zero direction.
func (c *Car) UpdateWorldPose() {
	front := c.FrontAxle.Follower.WorldPosition
	rear := c.RearAxle.Follower.WorldPosition
	c.Position = front.Add(rear).Mul(0.5)

	d := front.Sub(rear)
	if d.Len() < 1e-9 {
		p := track.CanonicalPose()
		c.Direction = p.Direction
		c.Up = p.Up
		c.Side = p.Side
		return
	}
	c.Direction = d.Normalize()
	hx, hz := c.Direction.X(), c.Direction.Z()
	h := mgl64.Vec3{hz, 0, -hx}
	if h.Len() < 1e-9 {
		// vertical car, pick an arbitrary but stable side
		h = mgl64.Vec3{1, 0, 0}
	}
	c.Side = h.Normalize()
	c.Up = c.Direction.Cross(c.Side)
}
