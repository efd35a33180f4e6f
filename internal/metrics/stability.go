package metrics

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

// RollStability is the fraction of ticks on which every live car held
// its total roll angle under the given fraction of its critical
// toppling angle. 1 means the run never came near toppling.
type RollStability struct {
	name       string
	limit      float64
	violations int
	samples    int
}

func NewRollStability(limit float64) *RollStability {
	return &RollStability{
		name:  "roll_stability",
		limit: limit,
	}
}

func (s *RollStability) Name() string {
	return s.name
}

func (s *RollStability) Observe(trains []*train.Train, now float64) {
	s.samples++
	for _, t := range trains {
		if t.State == train.StateDisposed || t.State == train.StateBogus {
			continue
		}
		for _, c := range t.Cars {
			crit := c.Specs.CriticalTopplingAngle
			if crit <= 0 {
				continue
			}
			if math.Abs(c.TotalRollAngle()) > s.limit*crit {
				s.violations++
				return
			}
		}
	}
}

func (s *RollStability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *RollStability) Reset() {
	s.violations = 0
	s.samples = 0
}
