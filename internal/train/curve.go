package train

import "math"

// AccelerationCurve models motor traction as a function of speed in
// four stages: constant at standstill, a linear blend up to
// StageOneSpeed, constant power (a ~ 1/v) up to StageTwoSpeed, then
// decay with the configured exponent.
type AccelerationCurve struct {
	StageZeroAcceleration float64
	StageOneSpeed         float64
	StageOneAcceleration  float64
	StageTwoSpeed         float64
	StageTwoExponent      float64
}

// Accelerate evaluates the curve at the given speed relative to the
// selected travel direction. Negative relative speeds use the
// standstill value.
func (c AccelerationCurve) Accelerate(speed, multiplier float64) float64 {
	switch {
	case speed <= 0:
		return multiplier * c.StageZeroAcceleration
	case speed < c.StageOneSpeed:
		t := speed / c.StageOneSpeed
		return multiplier * (c.StageZeroAcceleration*(1-t) + c.StageOneAcceleration*t)
	case speed < c.StageTwoSpeed:
		return multiplier * c.StageOneAcceleration * c.StageOneSpeed / speed
	default:
		return multiplier * c.StageOneAcceleration * c.StageOneSpeed *
			math.Pow(c.StageTwoSpeed, c.StageTwoExponent-1) /
			math.Pow(speed, c.StageTwoExponent)
	}
}
