package metrics

import (
	"math"

	"github.com/railkit/railsim/internal/physics"
	"github.com/railkit/railsim/internal/train"
)

// mechanicalEnergy sums kinetic and gravitational potential energy over
// every live car, in joules. Height is the world pose against the
// layout origin, so runs on a grade may go negative.
func mechanicalEnergy(trains []*train.Train) float64 {
	total := 0.0
	for _, t := range trains {
		if t.State == train.StateDisposed || t.State == train.StateBogus {
			continue
		}
		for _, c := range t.Cars {
			v := c.Specs.CurrentSpeed
			total += 0.5*c.Specs.MassCurrent*v*v +
				c.Specs.MassCurrent*physics.Gravity*c.Position.Y()
		}
	}
	return total
}

// Energy reports the mean mechanical energy held by the live cars over
// the run.
type Energy struct {
	name    string
	total   float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(trains []*train.Train, now float64) {
	e.total += mechanicalEnergy(trains)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative change in mechanical energy
// against the first observed tick. Coasting and braking only shed
// energy, so on an unpowered run this is how much the resistances and
// impacts dissipated.
type EnergyDrift struct {
	name    string
	initial float64
	max     float64
	samples int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(trains []*train.Train, now float64) {
	energy := mechanicalEnergy(trains)

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.max = math.Max(e.max, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.max
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.max = 0
	e.samples = 0
}
