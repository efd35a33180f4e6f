package dynamics_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/railkit/railsim/internal/dynamics"
	"github.com/railkit/railsim/internal/train"
)

const (
	carLength = 20.0
	minGap    = 0.5
	maxGap    = 1.5
)

// randomChain builds an available train of 2..8 cars at descending
// centers starting from base, with randomized masses, speeds and
// spacing. Roughly half the couplers start outside their bounds.
func randomChain(rng *rand.Rand, base float64) *train.Train {
	n := 2 + rng.Intn(7)
	cars := make([]*train.Car, n)
	center := base
	for i := range cars {
		c := &train.Car{Length: carLength}
		c.FrontAxle.Position = 8
		c.RearAxle.Position = -8
		c.Specs.MassEmpty = 20000 + 40000*rng.Float64()
		c.Specs.MassCurrent = c.Specs.MassEmpty
		c.Specs.CurrentSpeed = -5 + 10*rng.Float64()
		c.PlaceAt(nil, center)
		cars[i] = c
		center -= carLength + (-0.4 + 2.9*rng.Float64())
	}
	couplers := make([]train.Coupler, n-1)
	for i := range couplers {
		couplers[i] = train.Coupler{
			MinimumDistanceBetweenCars: minGap,
			MaximumDistanceBetweenCars: maxGap,
		}
	}
	tr, err := train.New("random", cars, couplers)
	Expect(err).NotTo(HaveOccurred())
	tr.State = train.StateAvailable
	return tr
}

func chainGaps(t *train.Train) []float64 {
	out := make([]float64, 0, len(t.Cars)-1)
	for i := 0; i+1 < len(t.Cars); i++ {
		a, b := t.Cars[i], t.Cars[i+1]
		out = append(out, a.CenterPosition()-b.CenterPosition()-0.5*(a.Length+b.Length))
	}
	return out
}

func chainCenters(t *train.Train) []float64 {
	out := make([]float64, len(t.Cars))
	for i, c := range t.Cars {
		out[i] = c.CenterPosition()
	}
	return out
}

func speedsOf(t *train.Train) []float64 {
	out := make([]float64, len(t.Cars))
	for i, c := range t.Cars {
		out[i] = c.Specs.CurrentSpeed
	}
	return out
}

func momentumOf(t *train.Train, speeds []float64) float64 {
	var p float64
	for i, c := range t.Cars {
		p += c.Specs.MassCurrent * speeds[i]
	}
	return p
}

var _ = Describe("SolveCouplers", func() {
	It("settles every coupler inside its bounds in one pass", func() {
		for seed := int64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			tr := randomChain(rng, 500)
			speeds := speedsOf(tr)

			dynamics.SolveCouplers(tr, speeds)

			for i, g := range chainGaps(tr) {
				Expect(g).To(BeNumerically(">=", minGap), "seed %d coupler %d", seed, i)
				Expect(g).To(BeNumerically("<=", maxGap), "seed %d coupler %d", seed, i)
			}
		}
	})

	It("conserves momentum through speed merges", func() {
		for seed := int64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			tr := randomChain(rng, 500)
			speeds := speedsOf(tr)
			before := momentumOf(tr, speeds)

			dynamics.SolveCouplers(tr, speeds)

			Expect(momentumOf(tr, speeds)).To(BeNumerically("~", before, 1e-6), "seed %d", seed)
		}
	})

	It("reports nothing and moves nothing on a second pass", func() {
		for seed := int64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			tr := randomChain(rng, 500)
			speeds := speedsOf(tr)
			dynamics.SolveCouplers(tr, speeds)

			settled := chainCenters(tr)
			merged := append([]float64(nil), speeds...)
			rep := dynamics.SolveCouplers(tr, speeds)

			Expect(rep.Empty()).To(BeTrue(), "seed %d", seed)
			Expect(chainCenters(tr)).To(Equal(settled), "seed %d", seed)
			Expect(speeds).To(Equal(merged), "seed %d", seed)
		}
	})

	It("leaves an already settled chain alone", func() {
		rng := rand.New(rand.NewSource(99))
		cars := make([]*train.Car, 5)
		center := 500.0
		for i := range cars {
			c := &train.Car{Length: carLength}
			c.FrontAxle.Position = 8
			c.RearAxle.Position = -8
			c.Specs.MassEmpty = 40000
			c.Specs.MassCurrent = 40000
			c.PlaceAt(nil, center)
			cars[i] = c
			center -= carLength + 0.6 + 0.8*rng.Float64()
		}
		couplers := make([]train.Coupler, 4)
		for i := range couplers {
			couplers[i] = train.Coupler{MinimumDistanceBetweenCars: minGap, MaximumDistanceBetweenCars: maxGap}
		}
		tr, err := train.New("settled", cars, couplers)
		Expect(err).NotTo(HaveOccurred())

		before := chainCenters(tr)
		rep := dynamics.SolveCouplers(tr, make([]float64, 5))

		Expect(rep.Empty()).To(BeTrue())
		Expect(chainCenters(tr)).To(Equal(before))
	})

	It("never clears a derailment", func() {
		for seed := int64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			tr := randomChain(rng, 500)
			var wrecked []int
			for i, c := range tr.Cars {
				if rng.Float64() < 0.3 {
					c.Derail()
					wrecked = append(wrecked, i)
				}
			}

			speeds := speedsOf(tr)
			dynamics.SolveCouplers(tr, speeds)
			dynamics.SolveCouplers(tr, speeds)

			for _, i := range wrecked {
				Expect(tr.Cars[i].Derailed).To(BeTrue(), "seed %d car %d", seed, i)
			}
		}
	})
})

var _ = Describe("ResolveTrainCollision", func() {
	It("separates the trains and conserves total momentum", func() {
		for seed := int64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			blocker := randomChain(rng, 500)
			overlap := 0.05 + 0.45*rng.Float64()
			chaser := randomChain(rng, blocker.RearExtent()-carLength/2+overlap)
			Expect(dynamics.Overlapping(chaser, blocker)).To(BeTrue(), "seed %d", seed)

			before := momentumOf(chaser, speedsOf(chaser)) + momentumOf(blocker, speedsOf(blocker))
			dynamics.ResolveTrainCollision(chaser, blocker)
			after := momentumOf(chaser, speedsOf(chaser)) + momentumOf(blocker, speedsOf(blocker))

			Expect(dynamics.Overlapping(chaser, blocker)).To(BeFalse(), "seed %d", seed)
			Expect(after).To(BeNumerically("~", before, 1e-6), "seed %d", seed)
		}
	})
})

var _ = Describe("ResolveBufferCollisions", func() {
	It("pushes the train clear and settles in one call", func() {
		for seed := int64(1); seed <= 25; seed++ {
			rng := rand.New(rand.NewSource(seed))
			tr := randomChain(rng, 500)
			buffers := []float64{tr.FrontExtent() - 0.05 - 0.45*rng.Float64()}

			rep := dynamics.ResolveBufferCollisions(tr, buffers)
			Expect(rep.Empty()).To(BeFalse(), "seed %d", seed)
			Expect(dynamics.HitsBuffer(tr, buffers)).To(BeFalse(), "seed %d", seed)

			settled := chainCenters(tr)
			again := dynamics.ResolveBufferCollisions(tr, buffers)
			Expect(again.Empty()).To(BeTrue(), "seed %d", seed)
			Expect(chainCenters(tr)).To(Equal(settled), "seed %d", seed)
		}
	})
})
