package metrics

import "github.com/railkit/railsim/internal/train"

// Momentum reports the total momentum of every simulated car at the
// most recent tick, kg·m/s. Inelastic merges conserve it, so a jump
// between ticks points at a resolver bug rather than physics.
type Momentum struct {
	name  string
	total float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(trains []*train.Train, now float64) {
	total := 0.0
	for _, t := range trains {
		if t.State == train.StateDisposed || t.State == train.StateBogus {
			continue
		}
		for _, c := range t.Cars {
			total += c.Specs.MassCurrent * c.Specs.CurrentSpeed
		}
	}
	m.total = total
}

func (m *Momentum) Value() float64 { return m.total }

func (m *Momentum) Reset() { m.total = 0 }
