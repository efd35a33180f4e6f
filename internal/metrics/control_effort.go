package metrics

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

// TractionEffort is the mean per-tick magnitude of the acceleration the
// traction motors delivered, summed over live cars. Coasting keeps it
// at zero; motoring and motor braking both count.
type TractionEffort struct {
	name    string
	sum     float64
	samples int
}

func NewTractionEffort() *TractionEffort {
	return &TractionEffort{
		name: "traction_effort",
	}
}

func (e *TractionEffort) Name() string {
	return e.name
}

func (e *TractionEffort) Observe(trains []*train.Train, now float64) {
	for _, t := range trains {
		if t.State == train.StateDisposed || t.State == train.StateBogus {
			continue
		}
		for _, c := range t.Cars {
			e.sum += math.Abs(c.Specs.CurrentAccelerationOutput)
		}
	}
	e.samples++
}

func (e *TractionEffort) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *TractionEffort) Reset() {
	e.sum = 0
	e.samples = 0
}
