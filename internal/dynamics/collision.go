package dynamics

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

// Overlapping reports whether the extents of two trains intersect on
// the track axis. It never mutates either train, so collision detection
// can run concurrently across train pairs.
func Overlapping(a, b *train.Train) bool {
	if len(a.Cars) == 0 || len(b.Cars) == 0 {
		return false
	}
	return a.FrontExtent() > b.RearExtent() && a.RearExtent() < b.FrontExtent()
}

// ResolveTrainCollision separates two overlapping trains and merges the
// speeds of the facing cars inelastically; momentum of the facing pair
// is conserved. Each train then reruns the coupler walk from its struck
// car. The reports are returned in argument order.
func ResolveTrainCollision(a, b *train.Train) (Report, Report) {
	if !Overlapping(a, b) {
		return Report{}, Report{}
	}
	front, back := a, b
	swapped := false
	if front.FrontExtent() < back.FrontExtent() {
		front, back = back, front
		swapped = true
	}
	overlap := back.FrontExtent() - front.RearExtent() + positionEpsilon

	fi := len(front.Cars) - 1
	fc := front.Cars[fi]
	bc := back.Cars[0]

	m1, v1 := fc.Specs.MassCurrent, fc.Specs.CurrentSpeed
	m2, v2 := bc.Specs.MassCurrent, bc.Specs.CurrentSpeed
	v := v1
	if m1+m2 > 0 {
		v = (m1*v1 + m2*v2) / (m1 + m2)
	}

	var frontRep, backRep Report
	if math.Abs(v-v1) > 0.5*front.CriticalCollisionSpeedDifference() && !fc.Derailed {
		fc.Derail()
		frontRep.DerailedCars = append(frontRep.DerailedCars, fi)
	}
	if math.Abs(v-v2) > 0.5*back.CriticalCollisionSpeedDifference() && !bc.Derailed {
		bc.Derail()
		backRep.DerailedCars = append(backRep.DerailedCars, 0)
	}
	fc.Specs.CurrentSpeed = v
	bc.Specs.CurrentSpeed = v

	// each train takes half the overlap
	fc.Displace(0.5 * overlap)
	bc.Displace(-0.5 * overlap)
	frontRep.absorb(chainCorrect(front, fi))
	backRep.absorb(chainCorrect(back, 0))

	severity := math.Abs(v1 - v2)
	frontRep.Impacts = append(frontRep.Impacts, Impact{Car: fi, Severity: severity})
	backRep.Impacts = append(backRep.Impacts, Impact{Car: 0, Severity: severity})

	if swapped {
		return backRep, frontRep
	}
	return frontRep, backRep
}

// HitsBuffer reports whether any dead-end buffer lies inside the
// train's extent. Buffers must be sorted ascending.
func HitsBuffer(t *train.Train, buffers []float64) bool {
	if len(t.Cars) == 0 {
		return false
	}
	f, r := t.FrontExtent(), t.RearExtent()
	for _, p := range buffers {
		if f > p && r < p {
			return true
		}
	}
	return false
}

// ResolveBufferCollisions stops the train at dead-end buffers: the
// struck end car is pushed clear and its speed zeroed, then the coupler
// walk chains the disturbance through the rake. Resolving an already
// settled train is a no-op.
func ResolveBufferCollisions(t *train.Train, buffers []float64) Report {
	var rep Report
	if len(t.Cars) == 0 {
		return rep
	}
	for _, p := range buffers {
		f, r := t.FrontExtent(), t.RearExtent()
		if !(f > p && r < p) {
			continue
		}
		if f-p <= p-r {
			// nose into the buffer
			c := t.Cars[0]
			old := c.Specs.CurrentSpeed
			c.Displace(-(f - p + positionEpsilon))
			c.Specs.CurrentSpeed = 0
			if math.Abs(old) > 0.5*t.CriticalCollisionSpeedDifference() && !c.Derailed {
				c.Derail()
				rep.DerailedCars = append(rep.DerailedCars, 0)
			}
			rep.absorb(chainCorrect(t, 0))
			rep.Impacts = append(rep.Impacts, Impact{Car: 0, Severity: math.Abs(old)})
		} else {
			// tail into the buffer while setting back
			i := len(t.Cars) - 1
			c := t.Cars[i]
			old := c.Specs.CurrentSpeed
			c.Displace(p - r + positionEpsilon)
			c.Specs.CurrentSpeed = 0
			if math.Abs(old) > 0.5*t.CriticalCollisionSpeedDifference() && !c.Derailed {
				c.Derail()
				rep.DerailedCars = append(rep.DerailedCars, i)
			}
			rep.absorb(chainCorrect(t, i))
			rep.Impacts = append(rep.Impacts, Impact{Car: i, Severity: math.Abs(old)})
		}
	}
	return rep
}
