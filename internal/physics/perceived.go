package physics

import "github.com/railkit/railsim/internal/train"

// updatePerceivedSpeed moves the cab speedometer value toward its
// target: zero for locked or derailed wheels, the true speed otherwise,
// offset by the accumulated wheelspin while slipping. The chase rate
// decays as the gap narrows, so the needle settles without overshoot
// and snaps once it is within one step of the target.
func updatePerceivedSpeed(car *train.Car, elapsed float64) {
	s := &car.Specs

	var target float64
	switch {
	case car.Derailed || car.FrontAxle.CurrentWheelLock || car.RearAxle.CurrentWheelLock:
		target = 0
	case car.FrontAxle.CurrentWheelSlip || car.RearAxle.CurrentWheelSlip:
		target = s.CurrentSpeed + s.CurrentWheelSpin/wheelspinPerceivedDivisor
	default:
		target = s.CurrentSpeed
	}

	diff := target - s.CurrentPerceivedSpeed
	rate := Gravity * elapsed
	if diff < 0 {
		rate *= 5
	}
	rate *= 1 - 0.7/(diff*diff+1)
	f := rate * rate
	rate *= 1 - f/(f+1000)

	switch {
	case diff >= -rate && diff <= rate:
		s.CurrentPerceivedSpeed = target
	case diff > 0:
		s.CurrentPerceivedSpeed += rate
	default:
		s.CurrentPerceivedSpeed -= rate
	}
}
