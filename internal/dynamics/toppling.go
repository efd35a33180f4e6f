package dynamics

import (
	"math"
	"math/rand"

	"github.com/railkit/railsim/internal/physics"
	"github.com/railkit/railsim/internal/track"
	"github.com/railkit/railsim/internal/train"
)

const (
	// maxTopplingElapsed skips roll integration for stale frames; a
	// jumbo dt would otherwise slam angles across their targets.
	maxTopplingElapsed = 0.5

	topplingRollRate = 0.35
	cantRollRate     = 0.3
	derailedRollRate = 2.5

	// shake spring settling an impact wobble back to zero
	shakeStiffness = 9.0
	shakeDamping   = 3.0

	shakeImpulsePerSpeed = 0.05

	pitchRate        = 0.6
	pitchAccelFactor = 0.03

	// below this combined roll a derailed car falls to a random side
	rollDirectionThreshold = 0.01
)

// UpdateTopplingCantAndSpring advances the roll and pitch state of one
// car by one tick and reports whether the combined cant and toppling
// roll derailed it. Positive roll leans the car toward its left side.
//
// An elapsed time of zero, or beyond half a second, leaves every angle
// untouched.
func UpdateTopplingCantAndSpring(car *train.Car, gauge, elapsed float64, rng *rand.Rand) bool {
	if !(elapsed > 0) || elapsed > maxTopplingElapsed {
		return false
	}
	if gauge <= 0 {
		gauge = track.StandardGauge
	}
	s := &car.Specs

	radius := effectiveRadius(car)
	speed := math.Abs(s.CurrentSpeed)

	topTarget := 0.0
	switch {
	case car.Derailed:
		topTarget = derailedRollTarget(s, rng)
	case radius != 0 && s.CenterOfGravityHeight > 0 && speed > 0:
		critical := math.Sqrt(math.Abs(radius) * physics.Gravity * gauge / (2 * s.CenterOfGravityHeight))
		if speed > critical {
			ratio := speed*speed/(critical*critical) - 1
			mag := math.Atan(ratio * gauge / (2 * s.CenterOfGravityHeight))
			if radius > 0 {
				topTarget = mag
			} else {
				topTarget = -mag
			}
		}
	}

	cant := 0.5 * (car.FrontAxle.Follower.CurveCant + car.RearAxle.Follower.CurveCant)
	cantTarget := -math.Atan(cant / gauge)

	rate := topplingRollRate
	if car.Derailed {
		rate = derailedRollRate
	}
	s.CurrentRollDueToTopplingAngle = approachAngle(s.CurrentRollDueToTopplingAngle, topTarget, rate*elapsed)
	s.CurrentRollDueToCantAngle = approachAngle(s.CurrentRollDueToCantAngle, cantTarget, cantRollRate*elapsed)

	accel := -shakeStiffness*s.CurrentRollShakeAngle - shakeDamping*s.CurrentRollShakeSpeed
	s.CurrentRollShakeSpeed += accel * elapsed
	s.CurrentRollShakeAngle += s.CurrentRollShakeSpeed * elapsed

	s.CurrentPitchDueToAccelerationAngle = approachAngle(
		s.CurrentPitchDueToAccelerationAngle,
		math.Atan(pitchAccelFactor*s.CurrentAcceleration),
		pitchRate*elapsed)

	if car.Derailed || s.CriticalTopplingAngle <= 0 {
		return false
	}
	if math.Abs(s.CurrentRollDueToTopplingAngle+s.CurrentRollDueToCantAngle) > s.CriticalTopplingAngle {
		car.Derail()
		return true
	}
	return false
}

// ApplyImpactShake kicks the car's shake spring in proportion to an
// impact severity in m/s.
func ApplyImpactShake(c *train.Car, severity float64) {
	c.Specs.CurrentRollShakeSpeed += shakeImpulsePerSpeed * severity
}

// effectiveRadius combines both axle radii into one signed curvature:
// the geometric mean of the magnitudes with the sign of their sum, or
// the single non-zero radius on a transition.
func effectiveRadius(car *train.Car) float64 {
	fr := car.FrontAxle.Follower.CurveRadius
	rr := car.RearAxle.Follower.CurveRadius
	switch {
	case fr != 0 && rr != 0:
		r := math.Sqrt(math.Abs(fr * rr))
		switch {
		case fr+rr < 0:
			return -r
		case fr+rr > 0:
			return r
		default:
			return 0
		}
	case fr != 0:
		return fr
	case rr != 0:
		return rr
	default:
		return 0
	}
}

// derailedRollTarget tips a derailed car all the way over, following
// whichever side it is already leaning toward. A car still upright
// falls to a random side.
func derailedRollTarget(s *train.CarSpecs, rng *rand.Rand) float64 {
	roll := s.CurrentRollDueToTopplingAngle + s.CurrentRollDueToCantAngle
	switch {
	case roll > rollDirectionThreshold:
		return math.Pi / 2
	case roll < -rollDirectionThreshold:
		return -math.Pi / 2
	}
	if rng != nil && rng.Intn(2) == 0 {
		return -math.Pi / 2
	}
	return math.Pi / 2
}

// approachAngle moves current toward target by at most step, snapping
// once within reach.
func approachAngle(current, target, step float64) float64 {
	if step <= 0 {
		return current
	}
	d := target - current
	if math.Abs(d) <= step {
		return target
	}
	if d > 0 {
		return current + step
	}
	return current - step
}
