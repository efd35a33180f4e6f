package train

import "errors"

var (
	ErrCouplerCount  = errors.New("train: coupler count must be car count minus one")
	ErrCouplerBounds = errors.New("train: coupler minimum exceeds maximum")
	ErrBadMass       = errors.New("train: car mass must be positive")
	ErrBadLength     = errors.New("train: car length must be positive")
)

// DefaultCriticalCollisionSpeedDifference is the relative speed, in m/s,
// above which an impact derails the affected car when no per-train value
// is configured.
const DefaultCriticalCollisionSpeedDifference = 20.0

// State tracks a train's lifecycle. Pending trains wait for their start
// section to clear, available trains are simulated, disposed and bogus
// trains are skipped by every physics phase.
type State int

const (
	StatePending State = iota
	StateAvailable
	StateDisposed
	StateBogus
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAvailable:
		return "available"
	case StateDisposed:
		return "disposed"
	case StateBogus:
		return "bogus"
	default:
		return "unknown"
	}
}

// Handles are the driver inputs. The physics reads them every tick and
// never writes them.
type Handles struct {
	Reverser       int
	PowerNotch     int
	BrakeNotch     int
	HoldBrake      bool
	EmergencyBrake bool
}

// TrainSpecs aggregates whole-train quantities. TotalMass is fixed at
// construction; the averages are recomputed after every tick.
type TrainSpecs struct {
	TotalMass                        float64
	CriticalCollisionSpeedDifference float64

	CurrentAverageSpeed        float64
	CurrentAverageAcceleration float64
	CurrentAverageJerk         float64
}

// BrakeOutput is the per-car deceleration demand produced by one brake
// system evaluation. Both slices are indexed by car and hold
// non-negative magnitudes in m/s^2.
type BrakeOutput struct {
	DecelerationDueToBrake []float64
	DecelerationDueToMotor []float64
}

// Train is an ordered rake of cars. Car 0 is the front; track positions
// increase toward the front, so cars[i] sits ahead of cars[i+1].
type Train struct {
	Name     string
	Cars     []*Car
	Couplers []Coupler
	Specs    TrainSpecs
	State    State
	Handles  Handles
	IsPlayer bool

	// Section gates introduction: a pending train enters the world only
	// once this route section reports clear.
	Section int
}

// New assembles a train and validates car and coupler consistency.
func New(name string, cars []*Car, couplers []Coupler) (*Train, error) {
	if len(cars) > 0 && len(couplers) != len(cars)-1 {
		return nil, ErrCouplerCount
	}
	t := &Train{
		Name:     name,
		Cars:     cars,
		Couplers: couplers,
		State:    StatePending,
	}
	t.Specs.CriticalCollisionSpeedDifference = DefaultCriticalCollisionSpeedDifference
	for _, c := range cars {
		if c.Specs.MassCurrent <= 0 || c.Specs.MassEmpty <= 0 {
			return nil, ErrBadMass
		}
		if c.Length <= 0 {
			return nil, ErrBadLength
		}
		t.Specs.TotalMass += c.Specs.MassCurrent
	}
	for _, cp := range couplers {
		if cp.MinimumDistanceBetweenCars > cp.MaximumDistanceBetweenCars {
			return nil, ErrCouplerBounds
		}
	}
	return t, nil
}

// FrontExtent is the track position of the leading face of the train.
func (t *Train) FrontExtent() float64 {
	if len(t.Cars) == 0 {
		return 0
	}
	return t.Cars[0].FrontExtent()
}

// RearExtent is the track position of the trailing face of the train.
func (t *Train) RearExtent() float64 {
	if len(t.Cars) == 0 {
		return 0
	}
	return t.Cars[len(t.Cars)-1].RearExtent()
}

// ApplySpeeds commits the integrator's settled speeds: per-car
// acceleration is the realized speed change over the tick, then the
// train averages are refreshed. A non-positive elapsed leaves
// acceleration and jerk untouched.
func (t *Train) ApplySpeeds(speeds []float64, elapsed float64) {
	for i, c := range t.Cars {
		if i >= len(speeds) {
			break
		}
		if elapsed > 0 {
			c.Specs.CurrentAcceleration = (speeds[i] - c.Specs.CurrentSpeed) / elapsed
		}
		c.Specs.CurrentSpeed = speeds[i]
	}
	t.UpdateSpecs(elapsed)
}

// UpdateSpecs recomputes the train-level averages from the cars.
func (t *Train) UpdateSpecs(elapsed float64) {
	if len(t.Cars) == 0 {
		return
	}
	var speed, accel float64
	for _, c := range t.Cars {
		speed += c.Specs.CurrentSpeed
		accel += c.Specs.CurrentAcceleration
	}
	n := float64(len(t.Cars))
	speed /= n
	accel /= n
	if elapsed > 0 {
		t.Specs.CurrentAverageJerk = (accel - t.Specs.CurrentAverageAcceleration) / elapsed
	}
	t.Specs.CurrentAverageSpeed = speed
	t.Specs.CurrentAverageAcceleration = accel
}

// HasDerailedCars reports whether any car of the train has derailed.
func (t *Train) HasDerailedCars() bool {
	for _, c := range t.Cars {
		if c.Derailed {
			return true
		}
	}
	return false
}

// CriticalCollisionSpeedDifference returns the configured threshold or
// the package default when unset.
func (t *Train) CriticalCollisionSpeedDifference() float64 {
	if t.Specs.CriticalCollisionSpeedDifference <= 0 {
		return DefaultCriticalCollisionSpeedDifference
	}
	return t.Specs.CriticalCollisionSpeedDifference
}
