package dynamics

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

const (
	// positionEpsilon is added to every correction so a settled gap
	// lands strictly inside its bounds and the next pass is a no-op.
	positionEpsilon = 1e-4

	// secondaryAnchorRatio rejects a secondary anchor whose distance to
	// the center of mass exceeds this multiple of the primary's.
	secondaryAnchorRatio = 1.25
)

// SolveCouplers enforces every coupler's distance bounds after the
// integrator produced tentative speeds. Corrections propagate outward
// from the car(s) nearest the train's center of mass, so the heavy part
// of the train stays put and the light ends absorb the displacement.
// Violated couplers then merge the speeds of the cars they join; the
// tentative speeds slice is rewritten in place.
func SolveCouplers(t *train.Train, speeds []float64) Report {
	n := len(t.Cars)
	if n < 2 || len(t.Couplers) != n-1 {
		return Report{}
	}

	centers := make([]float64, n)
	com := 0.0
	total := 0.0
	for i, c := range t.Cars {
		centers[i] = c.CenterPosition()
		com += centers[i] * c.Specs.MassCurrent
		total += c.Specs.MassCurrent
	}
	if total > 0 {
		com /= total
	}

	// primary anchor: the car closest to the center of mass
	p := 0
	best := math.Abs(centers[0] - com)
	for i := 1; i < n; i++ {
		if d := math.Abs(centers[i] - com); d < best {
			best = d
			p = i
		}
	}
	// secondary anchor: the nearer neighbor, unless it sits too far out
	s := -1
	second := math.Inf(1)
	for _, j := range [2]int{p - 1, p + 1} {
		if j < 0 || j >= n {
			continue
		}
		if d := math.Abs(centers[j] - com); d < second {
			second = d
			s = j
		}
	}
	if s >= 0 && second > secondaryAnchorRatio*best {
		s = -1
	}

	collided := make([]bool, n-1)
	frontAnchor, rearAnchor := p, p
	if s >= 0 {
		if s < p {
			frontAnchor = s
		} else {
			rearAnchor = s
		}
		correctAnchorPair(t, centers, frontAnchor, collided)
	}
	walkOutward(t, centers, frontAnchor, rearAnchor, collided)
	return mergeRuns(t, speeds, collided)
}

// correctAnchorPair fixes the coupler between the two anchor cars by
// splitting the displacement in proportion to each car's share of the
// pair mass, so the heavier car moves less.
func correctAnchorPair(t *train.Train, centers []float64, lo int, collided []bool) {
	hi := lo + 1
	front, rear := t.Cars[lo], t.Cars[hi]
	cp := t.Couplers[lo]
	gap := centers[lo] - centers[hi] - 0.5*(front.Length+rear.Length)

	pair := front.Specs.MassCurrent + rear.Specs.MassCurrent
	frontShare, rearShare := 0.5, 0.5
	if pair > 0 {
		frontShare = rear.Specs.MassCurrent / pair
		rearShare = front.Specs.MassCurrent / pair
	}

	switch {
	case gap < cp.MinimumDistanceBetweenCars:
		shift := cp.MinimumDistanceBetweenCars - gap + positionEpsilon
		front.Displace(shift * frontShare)
		rear.Displace(-shift * rearShare)
		centers[lo] += shift * frontShare
		centers[hi] -= shift * rearShare
		collided[lo] = true
	case gap > cp.MaximumDistanceBetweenCars && !front.Derailed && !rear.Derailed:
		shift := gap - cp.MaximumDistanceBetweenCars + positionEpsilon
		front.Displace(-shift * frontShare)
		rear.Displace(shift * rearShare)
		centers[lo] -= shift * frontShare
		centers[hi] += shift * rearShare
		collided[lo] = true
	}
}

// walkOutward corrects couplers from the anchor block toward both ends
// of the train. Only the outer car of each violated pair moves, so a
// correction never disturbs couplers already visited. Pairs with a
// derailed car are not pulled back together; overlap is still pushed
// apart because two cars cannot share track.
func walkOutward(t *train.Train, centers []float64, frontAnchor, rearAnchor int, collided []bool) {
	for i := frontAnchor - 1; i >= 0; i-- {
		a, b := t.Cars[i], t.Cars[i+1]
		cp := t.Couplers[i]
		gap := centers[i] - centers[i+1] - 0.5*(a.Length+b.Length)
		if gap < cp.MinimumDistanceBetweenCars {
			shift := cp.MinimumDistanceBetweenCars - gap + positionEpsilon
			a.Displace(shift)
			centers[i] += shift
			collided[i] = true
		} else if gap > cp.MaximumDistanceBetweenCars && !a.Derailed && !b.Derailed {
			shift := gap - cp.MaximumDistanceBetweenCars + positionEpsilon
			a.Displace(-shift)
			centers[i] -= shift
			collided[i] = true
		}
	}
	for i := rearAnchor + 1; i < len(t.Cars); i++ {
		a, b := t.Cars[i-1], t.Cars[i]
		cp := t.Couplers[i-1]
		gap := centers[i-1] - centers[i] - 0.5*(a.Length+b.Length)
		if gap < cp.MinimumDistanceBetweenCars {
			shift := cp.MinimumDistanceBetweenCars - gap + positionEpsilon
			b.Displace(-shift)
			centers[i] -= shift
			collided[i-1] = true
		} else if gap > cp.MaximumDistanceBetweenCars && !a.Derailed && !b.Derailed {
			shift := gap - cp.MaximumDistanceBetweenCars + positionEpsilon
			b.Displace(shift)
			centers[i] += shift
			collided[i-1] = true
		}
	}
}

// mergeRuns averages speeds inelastically over every contiguous block
// of cars joined by violated couplers. Momentum is conserved within a
// block; any car whose speed changes by more than half the train's
// critical collision difference derails.
func mergeRuns(t *train.Train, speeds []float64, collided []bool) Report {
	var rep Report
	threshold := 0.5 * t.CriticalCollisionSpeedDifference()
	i := 0
	for i < len(collided) {
		if !collided[i] {
			i++
			continue
		}
		j := i
		for j < len(collided) && collided[j] {
			j++
		}
		// couplers [i,j) flagged: cars i..j move as one block
		var momentum, mass, worst float64
		for k := i; k <= j; k++ {
			momentum += speeds[k] * t.Cars[k].Specs.MassCurrent
			mass += t.Cars[k].Specs.MassCurrent
		}
		v := 0.0
		if mass > 0 {
			v = momentum / mass
		}
		for k := i; k <= j; k++ {
			diff := math.Abs(v - speeds[k])
			if diff > worst {
				worst = diff
			}
			if diff > threshold && !t.Cars[k].Derailed {
				t.Cars[k].Derail()
				rep.DerailedCars = append(rep.DerailedCars, k)
			}
			speeds[k] = v
		}
		rep.Impacts = append(rep.Impacts, Impact{Car: i, Severity: worst})
		i = j + 1
	}
	return rep
}

// chainCorrect reruns the outward walk from a single anchor car and
// commits the merged speeds. Collision resolvers call it after
// displacing an end car so the disturbance ripples through the rake.
func chainCorrect(t *train.Train, anchor int) Report {
	n := len(t.Cars)
	if n < 2 || len(t.Couplers) != n-1 {
		return Report{}
	}
	centers := make([]float64, n)
	speeds := make([]float64, n)
	for i, c := range t.Cars {
		centers[i] = c.CenterPosition()
		speeds[i] = c.Specs.CurrentSpeed
	}
	collided := make([]bool, n-1)
	walkOutward(t, centers, anchor, anchor, collided)
	rep := mergeRuns(t, speeds, collided)
	for i, c := range t.Cars {
		c.Specs.CurrentSpeed = speeds[i]
	}
	return rep
}
