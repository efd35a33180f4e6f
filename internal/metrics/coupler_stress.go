package metrics

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

// CouplerStress tracks how close any coupler came to its distance
// bounds over the run: 0 means every observed gap sat at its midpoint,
// 1 means some gap touched a bound. Values above 1 only appear when a
// tick is observed mid-resolution.
type CouplerStress struct {
	name string
	max  float64
}

func NewCouplerStress() *CouplerStress {
	return &CouplerStress{name: "coupler_stress"}
}

func (s *CouplerStress) Name() string { return s.name }

func (s *CouplerStress) Observe(trains []*train.Train, now float64) {
	for _, t := range trains {
		if t.State == train.StateDisposed || t.State == train.StateBogus {
			continue
		}
		for i, cp := range t.Couplers {
			if i+1 >= len(t.Cars) {
				break
			}
			half := 0.5 * (cp.MaximumDistanceBetweenCars - cp.MinimumDistanceBetweenCars)
			if half <= 0 {
				continue
			}
			a, b := t.Cars[i], t.Cars[i+1]
			gap := a.CenterPosition() - b.CenterPosition() - 0.5*(a.Length+b.Length)
			mid := 0.5 * (cp.MinimumDistanceBetweenCars + cp.MaximumDistanceBetweenCars)
			if u := math.Abs(gap-mid) / half; u > s.max {
				s.max = u
			}
		}
	}
}

func (s *CouplerStress) Value() float64 { return s.max }

func (s *CouplerStress) Reset() { s.max = 0 }
