package train

import "math"

// MinimumReAdhesionCeiling floors the relaxed acceleration ceiling so a
// device driven to near zero can still recover by multiplication.
const MinimumReAdhesionCeiling = 0.025

// ReAdhesionDevice caps motor acceleration after wheel slip and relaxes
// the cap again once the wheels have been stable for a while. All timing
// runs on simulation time fed through Update, never on the wall clock.
type ReAdhesionDevice struct {
	UpdateInterval    float64
	ApplicationFactor float64
	ReleaseInterval   float64
	ReleaseFactor     float64

	// MaximumAccelerationOutput is the current ceiling in m/s^2,
	// +Inf when the device is fully released.
	MaximumAccelerationOutput float64

	clock          float64
	nextUpdateTime float64
	timeStable     float64
}

// NewReAdhesionDevice returns a released device with the given timing
// parameters.
func NewReAdhesionDevice(updateInterval, applicationFactor, releaseInterval, releaseFactor float64) ReAdhesionDevice {
	return ReAdhesionDevice{
		UpdateInterval:            updateInterval,
		ApplicationFactor:         applicationFactor,
		ReleaseInterval:           releaseInterval,
		ReleaseFactor:             releaseFactor,
		MaximumAccelerationOutput: math.Inf(1),
	}
}

// Ceiling is the effective acceleration cap. A zero-valued device is
// disabled and never caps.
func (d *ReAdhesionDevice) Ceiling() float64 {
	if d.UpdateInterval <= 0 {
		return math.Inf(1)
	}
	return d.MaximumAccelerationOutput
}

// Update advances the device by the tick's elapsed time. While slipping
// the ceiling is pulled down to target times the application factor;
// after a full release interval of stable running it is relaxed by the
// release factor, or fully when the factor is zero.
func (d *ReAdhesionDevice) Update(elapsed float64, slipping bool, target float64) {
	if d.UpdateInterval <= 0 {
		return
	}
	d.clock += elapsed
	if d.clock < d.nextUpdateTime {
		return
	}
	d.nextUpdateTime = d.clock + d.UpdateInterval

	if slipping {
		d.MaximumAccelerationOutput = target * d.ApplicationFactor
		d.timeStable = 0
		return
	}
	d.timeStable += d.UpdateInterval
	if d.timeStable < d.ReleaseInterval {
		return
	}
	d.timeStable -= d.ReleaseInterval
	if d.ReleaseFactor == 0 {
		d.MaximumAccelerationOutput = math.Inf(1)
		return
	}
	if d.MaximumAccelerationOutput < MinimumReAdhesionCeiling {
		d.MaximumAccelerationOutput = MinimumReAdhesionCeiling
	} else {
		d.MaximumAccelerationOutput *= d.ReleaseFactor
	}
}
