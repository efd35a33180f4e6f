// Package brakes turns driver handle state into the per-car
// deceleration demands the speed integrator consumes. It models the
// pneumatic lag of a self-lapping brake: the realized service
// deceleration chases the notch demand at configured apply and release
// rates instead of snapping.
package brakes

import (
	"math"

	"github.com/railkit/railsim/internal/train"
)

// Config describes one style of brake equipment, shared by every train
// the System evaluates.
type Config struct {
	// Notches is the number of service notches; BrakeNotch is clamped
	// to [0, Notches].
	Notches int

	// FullServiceDeceleration is the demand at the highest service
	// notch, m/s^2.
	FullServiceDeceleration float64

	// MotorDeceleration is the dynamic-brake share a motor car takes
	// at the highest service notch, m/s^2.
	MotorDeceleration float64

	// EmergencyFactor scales FullServiceDeceleration for an emergency
	// application. Dynamic braking is cut out under emergency; the
	// whole demand goes to the friction brake.
	EmergencyFactor float64

	// HoldDeceleration is the floor applied while the hold brake is
	// set, m/s^2.
	HoldDeceleration float64

	// ApplyRate and ReleaseRate bound how fast the realized service
	// deceleration may rise and fall, m/s^3. A non-positive rate
	// snaps.
	ApplyRate   float64
	ReleaseRate float64
}

func DefaultConfig() Config {
	return Config{
		Notches:                 8,
		FullServiceDeceleration: 1.2,
		MotorDeceleration:       0.8,
		EmergencyFactor:         1.4,
		HoldDeceleration:        0.3,
		ApplyRate:               0.9,
		ReleaseRate:             0.6,
	}
}

// System evaluates handle state into train.BrakeOutput once per tick.
// Lag state is tracked per train. Not safe for concurrent use; the
// world evaluates its trains sequentially.
type System struct {
	cfg   Config
	state map[*train.Train]*trainState
}

type trainState struct {
	applied float64
	out     train.BrakeOutput
}

func New(cfg Config) *System {
	if cfg.Notches < 1 {
		cfg.Notches = 1
	}
	return &System{cfg: cfg, state: make(map[*train.Train]*trainState)}
}

// Evaluate advances the pneumatic lag by elapsed seconds and returns
// the per-car demands. The returned slices are reused on the next call
// for the same train.
func (s *System) Evaluate(t *train.Train, elapsed float64) train.BrakeOutput {
	st := s.state[t]
	if st == nil {
		st = &trainState{}
		s.state[t] = st
	}

	notch := t.Handles.BrakeNotch
	if notch < 0 {
		notch = 0
	}
	if notch > s.cfg.Notches {
		notch = s.cfg.Notches
	}
	frac := float64(notch) / float64(s.cfg.Notches)

	target := frac * s.cfg.FullServiceDeceleration
	if t.Handles.EmergencyBrake {
		target = s.cfg.EmergencyFactor * s.cfg.FullServiceDeceleration
	}
	s.advance(st, target, elapsed)

	motor := 0.0
	if t.Handles.Reverser != 0 && notch > 0 && !t.Handles.EmergencyBrake {
		motor = frac * s.cfg.MotorDeceleration
	}

	n := len(t.Cars)
	if cap(st.out.DecelerationDueToBrake) < n {
		st.out.DecelerationDueToBrake = make([]float64, n)
		st.out.DecelerationDueToMotor = make([]float64, n)
	}
	st.out.DecelerationDueToBrake = st.out.DecelerationDueToBrake[:n]
	st.out.DecelerationDueToMotor = st.out.DecelerationDueToMotor[:n]

	for i, c := range t.Cars {
		d := st.applied
		if t.Handles.HoldBrake && d < s.cfg.HoldDeceleration {
			d = s.cfg.HoldDeceleration
		}
		st.out.DecelerationDueToBrake[i] = d
		if c.Specs.IsMotorCar {
			st.out.DecelerationDueToMotor[i] = motor
		} else {
			st.out.DecelerationDueToMotor[i] = 0
		}
	}
	return st.out
}

func (s *System) advance(st *trainState, target, elapsed float64) {
	switch {
	case target > st.applied:
		if s.cfg.ApplyRate <= 0 {
			st.applied = target
			return
		}
		st.applied = math.Min(target, st.applied+s.cfg.ApplyRate*elapsed)
	case target < st.applied:
		if s.cfg.ReleaseRate <= 0 {
			st.applied = target
			return
		}
		st.applied = math.Max(target, st.applied-s.cfg.ReleaseRate*elapsed)
	}
}

// Forget drops the lag state for a disposed train.
func (s *System) Forget(t *train.Train) {
	delete(s.state, t)
}
