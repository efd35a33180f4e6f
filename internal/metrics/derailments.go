package metrics

import "github.com/railkit/railsim/internal/train"

// Derailments counts derailed cars across the world. Derailment is
// monotonic per car, so the latest scan is also the running total for
// the run.
type Derailments struct {
	name  string
	count int
}

func NewDerailments() *Derailments {
	return &Derailments{name: "derailments"}
}

func (d *Derailments) Name() string { return d.name }

func (d *Derailments) Observe(trains []*train.Train, now float64) {
	count := 0
	for _, t := range trains {
		for _, c := range t.Cars {
			if c.Derailed {
				count++
			}
		}
	}
	d.count = count
}

func (d *Derailments) Value() float64 { return float64(d.count) }

func (d *Derailments) Reset() { d.count = 0 }
