package dynamics

import (
	"math"
	"testing"
)

func TestResolveTrainCollisionEqualMassHeadOn(t *testing.T) {
	// moving train overlaps a standing one by 1 m
	a := chainTrain(t, []float64{100}, []float64{10})
	b := chainTrain(t, []float64{81}, []float64{0})

	if !Overlapping(a, b) {
		t.Fatalf("trains must overlap before resolution")
	}
	repA, repB := ResolveTrainCollision(a, b)

	va := a.Cars[0].Specs.CurrentSpeed
	vb := b.Cars[0].Specs.CurrentSpeed
	if math.Abs(va-5) > 1e-9 || math.Abs(vb-5) > 1e-9 {
		t.Errorf("inelastic merge of equal masses must give 5.0, got %f and %f", va, vb)
	}
	if Overlapping(a, b) {
		t.Errorf("trains still overlap after resolution")
	}
	if sep := a.RearExtent() - b.FrontExtent(); sep < 0 {
		t.Errorf("expected positive separation, got %f", sep)
	}
	if len(repA.DerailedCars) != 0 || len(repB.DerailedCars) != 0 {
		t.Errorf("gentle merge must not derail: %v %v", repA.DerailedCars, repB.DerailedCars)
	}
	if len(repA.Impacts) == 0 || repA.Impacts[0].Severity != 10 {
		t.Errorf("expected impact severity 10, got %+v", repA.Impacts)
	}
}

func TestResolveTrainCollisionConservesMomentum(t *testing.T) {
	a := chainTrain(t, []float64{100, 79.5}, []float64{12, 12})
	b := chainTrain(t, []float64{140.2, 119.7}, []float64{-3, -3})
	b.Cars[0].Specs.MassCurrent = 60000
	before := totalMomentum(a) + totalMomentum(b)

	ResolveTrainCollision(a, b)

	after := totalMomentum(a) + totalMomentum(b)
	if math.Abs(after-before) > 1e-6 {
		t.Errorf("momentum changed: %f -> %f", before, after)
	}
}

func TestResolveTrainCollisionDerailsAboveCritical(t *testing.T) {
	a := chainTrain(t, []float64{100}, []float64{25})
	b := chainTrain(t, []float64{81}, []float64{0})
	a.Specs.CriticalCollisionSpeedDifference = 20
	b.Specs.CriticalCollisionSpeedDifference = 20

	repA, repB := ResolveTrainCollision(a, b)

	// merge to 12.5: both cars change by 12.5 > 10
	if len(repA.DerailedCars) != 1 || len(repB.DerailedCars) != 1 {
		t.Fatalf("expected both facing cars derailed: %v %v", repA.DerailedCars, repB.DerailedCars)
	}
	if !a.Cars[0].Derailed || !b.Cars[0].Derailed {
		t.Errorf("derail flags not set")
	}
}

func TestResolveTrainCollisionArgumentOrderIrrelevant(t *testing.T) {
	a1 := chainTrain(t, []float64{100}, []float64{10})
	b1 := chainTrain(t, []float64{81}, []float64{0})
	a2 := chainTrain(t, []float64{100}, []float64{10})
	b2 := chainTrain(t, []float64{81}, []float64{0})

	ResolveTrainCollision(a1, b1)
	ResolveTrainCollision(b2, a2)

	if a1.Cars[0].CenterPosition() != a2.Cars[0].CenterPosition() {
		t.Errorf("resolution depends on argument order: %f vs %f",
			a1.Cars[0].CenterPosition(), a2.Cars[0].CenterPosition())
	}
	if b1.Cars[0].CenterPosition() != b2.Cars[0].CenterPosition() {
		t.Errorf("resolution depends on argument order")
	}
}

func TestResolveTrainCollisionNoOverlapNoOp(t *testing.T) {
	a := chainTrain(t, []float64{100}, []float64{10})
	b := chainTrain(t, []float64{60}, []float64{0})

	repA, repB := ResolveTrainCollision(a, b)

	if !repA.Empty() || !repB.Empty() {
		t.Errorf("separated trains must not interact")
	}
	if a.Cars[0].Specs.CurrentSpeed != 10 || b.Cars[0].Specs.CurrentSpeed != 0 {
		t.Errorf("speeds changed without contact")
	}
}

func TestResolveBufferCollisionsStopsNose(t *testing.T) {
	tr := chainTrain(t, []float64{100}, []float64{5})
	buffers := []float64{105}

	rep := ResolveBufferCollisions(tr, buffers)

	if tr.Cars[0].Specs.CurrentSpeed != 0 {
		t.Errorf("buffer must stop the car, speed %f", tr.Cars[0].Specs.CurrentSpeed)
	}
	if f := tr.FrontExtent(); f >= 105 {
		t.Errorf("car still past the buffer: %f", f)
	}
	if len(rep.Impacts) != 1 || rep.Impacts[0].Severity != 5 {
		t.Errorf("expected severity 5, got %+v", rep.Impacts)
	}
	if len(rep.DerailedCars) != 0 {
		t.Errorf("5 m/s into the buffer must not derail with the default critical")
	}
}

func TestResolveBufferCollisionsIsIdempotent(t *testing.T) {
	tr := chainTrain(t, []float64{100}, []float64{5})
	buffers := []float64{105}
	ResolveBufferCollisions(tr, buffers)
	pos := tr.Cars[0].CenterPosition()

	rep := ResolveBufferCollisions(tr, buffers)

	if !rep.Empty() {
		t.Errorf("second resolution produced a report: %+v", rep)
	}
	if tr.Cars[0].CenterPosition() != pos {
		t.Errorf("second resolution moved the train")
	}
}

func TestResolveBufferCollisionsDerailsViolentHit(t *testing.T) {
	tr := chainTrain(t, []float64{100}, []float64{12})
	tr.Specs.CriticalCollisionSpeedDifference = 20

	rep := ResolveBufferCollisions(tr, []float64{105})

	if len(rep.DerailedCars) != 1 {
		t.Fatalf("12 m/s beyond half the critical 20 must derail, got %v", rep.DerailedCars)
	}
	if !tr.Cars[0].Derailed {
		t.Errorf("derail flag not set")
	}
}

func TestResolveBufferCollisionsChainsThroughTrain(t *testing.T) {
	tr := chainTrain(t, []float64{100, 79.5, 59}, []float64{6, 6, 6})

	ResolveBufferCollisions(tr, []float64{109})

	// the stop chains backward: every coupler stays within bounds
	for i := 0; i < 2; i++ {
		if g := gap(tr, i); g < 0.5-1e-6 || g > 1.5+1e-6 {
			t.Errorf("coupler %d out of bounds after chain: %f", i, g)
		}
	}
	// car 0 stopped dead, the rest merged into it through the couplers
	v := tr.Cars[1].Specs.CurrentSpeed
	if v >= 6 || v < 0 {
		t.Errorf("expected trailing cars slowed by the pile-up, got %f", v)
	}
}

func TestResolveBufferCollisionsTailHit(t *testing.T) {
	// train setting back into a buffer behind it
	tr := chainTrain(t, []float64{100}, []float64{-4})

	rep := ResolveBufferCollisions(tr, []float64{93})

	if tr.Cars[0].Specs.CurrentSpeed != 0 {
		t.Errorf("tail hit must stop the car")
	}
	if r := tr.RearExtent(); r <= 93 {
		t.Errorf("car still past the buffer: %f", r)
	}
	if len(rep.Impacts) != 1 || rep.Impacts[0].Severity != 4 {
		t.Errorf("expected severity 4, got %+v", rep.Impacts)
	}
}
