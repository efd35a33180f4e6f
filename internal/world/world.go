package world

import (
	"math/rand"

	"github.com/railkit/railsim/internal/dynamics"
	"github.com/railkit/railsim/internal/events"
	"github.com/railkit/railsim/internal/physics"
	"github.com/railkit/railsim/internal/track"
	"github.com/railkit/railsim/internal/train"
)

// staleElapsed is the largest tick the car physics will integrate.
// Anything longer is a paused or hung frame and is skipped outright
// rather than fed into the integrator.
const staleElapsed = 0.5

// BrakeSystem produces the per-car deceleration demands for one train.
// It is a black box to the physics.
type BrakeSystem interface {
	Evaluate(t *train.Train, elapsed float64) train.BrakeOutput
}

// SectionQuery reports whether a route section is free. It gates train
// introduction only.
type SectionQuery func(section int) bool

// Metric observes the settled world once per tick.
type Metric interface {
	Name() string
	Observe(trains []*train.Train, now float64)
	Value() float64
	Reset()
}

// Observer receives the settled world after every tick.
type Observer interface {
	OnTick(trains []*train.Train, now float64)
}

// World owns the train list and runs the frame-stepped batch
// computation over it. All mutation happens inside Step; concurrent
// readers must coordinate with the caller driving Step.
type World struct {
	Layout *track.Layout
	Trains []*train.Train
	Brakes BrakeSystem

	// SectionFree gates pending trains. Nil means every section is
	// free and pending trains enter on the next tick.
	SectionFree SectionQuery

	bus       *events.Bus
	metrics   []Metric
	observers []Observer
	pool      *pool
	rngs      []*rand.Rand
	seed      int64
	now       float64
}

func New(layout *track.Layout, brakes BrakeSystem, seed int64) *World {
	return &World{
		Layout: layout,
		Brakes: brakes,
		bus:    events.NewBus(),
		pool:   newPool(0),
		seed:   seed,
	}
}

// AddTrain registers a train. Each train gets its own random source so
// the parallel finalize phase stays deterministic per train.
func (w *World) AddTrain(t *train.Train) {
	w.rngs = append(w.rngs, rand.New(rand.NewSource(w.seed+int64(len(w.Trains)))))
	w.Trains = append(w.Trains, t)
}

func (w *World) AddMetric(m Metric)     { w.metrics = append(w.metrics, m) }
func (w *World) AddObserver(o Observer) { w.observers = append(w.observers, o) }

// Events returns a subscription to the notification bus.
func (w *World) Events(depth int) <-chan events.Event {
	return w.bus.Subscribe(depth)
}

// Now is the accumulated simulation time in seconds.
func (w *World) Now() float64 { return w.now }

// Close shuts the notification bus down. The world itself needs no
// teardown.
func (w *World) Close() { w.bus.Close() }

// Dispose removes a train from simulation. Its cars stay where they
// are; every physics phase skips it from now on.
func (w *World) Dispose(t *train.Train) {
	t.State = train.StateDisposed
	if f, ok := w.Brakes.(interface{ Forget(*train.Train) }); ok {
		f.Forget(t)
	}
}

// Step advances the whole world by elapsed seconds: introduce pending
// trains, integrate each available train, resolve train/train and
// buffer contacts, then derive world poses and roll state. A
// non-positive (or NaN) elapsed is a no-op.
func (w *World) Step(elapsed float64) {
	if !(elapsed > 0) {
		return
	}
	w.now += elapsed

	w.introduce()
	for _, t := range w.Trains {
		w.StepTrain(t, elapsed)
	}
	w.resolveCollisions()
	w.finalize(elapsed)

	for _, m := range w.metrics {
		m.Observe(w.Trains, w.now)
	}
	for _, o := range w.observers {
		o.OnTick(w.Trains, w.now)
	}
}

// StepTrain advances a single available train: displace cars by their
// settled speeds, evaluate the brake system, run the speed integrator
// and the coupler solver, then commit. Ticks longer than staleElapsed
// are dropped.
func (w *World) StepTrain(t *train.Train, elapsed float64) {
	if t.State != train.StateAvailable || !(elapsed > 0) || elapsed > staleElapsed {
		return
	}

	for _, c := range t.Cars {
		c.Displace(c.Specs.CurrentSpeed * elapsed)
	}

	var out train.BrakeOutput
	if w.Brakes != nil {
		out = w.Brakes.Evaluate(t, elapsed)
	}
	speeds := physics.UpdateSpeeds(t, elapsed, out)
	rep := dynamics.SolveCouplers(t, speeds)
	t.ApplySpeeds(speeds, elapsed)
	w.report(t, events.CouplerImpact, rep)
}

func (w *World) introduce() {
	for _, t := range w.Trains {
		if t.State != train.StatePending {
			continue
		}
		if w.SectionFree == nil || w.SectionFree(t.Section) {
			t.State = train.StateAvailable
		}
	}
}

// resolveCollisions detects contacts in parallel and resolves them in
// train-index order. Detection is read-only; each detection task owns
// index i and scans pairs (i, j) with j > i, so no pair is found
// twice. Only the sequential resolution loop mutates trains.
func (w *World) resolveCollisions() {
	n := len(w.Trains)
	if n > 1 {
		contacts := make([][]int, n)
		w.pool.forEach(n, func(i int) {
			a := w.Trains[i]
			if a.State != train.StateAvailable {
				return
			}
			for j := i + 1; j < n; j++ {
				b := w.Trains[j]
				if b.State != train.StateAvailable {
					continue
				}
				if dynamics.Overlapping(a, b) {
					contacts[i] = append(contacts[i], j)
				}
			}
		})
		for i := 0; i < n; i++ {
			for _, j := range contacts[i] {
				// the resolver re-checks overlap, so a pair separated
				// by an earlier resolution falls through harmlessly
				ra, rb := dynamics.ResolveTrainCollision(w.Trains[i], w.Trains[j])
				w.report(w.Trains[i], events.Collision, ra)
				w.report(w.Trains[j], events.Collision, rb)
			}
		}
	}

	if w.Layout == nil {
		return
	}
	buffers := w.Layout.Buffers()
	if len(buffers) == 0 {
		return
	}
	for _, t := range w.Trains {
		if t.IsPlayer && t.State == train.StateAvailable {
			rep := dynamics.ResolveBufferCollisions(t, buffers)
			w.report(t, events.BufferImpact, rep)
		}
	}
}

// finalize derives world poses and advances toppling, cant and shake
// state for every train that is still part of the world. Trains are
// fanned out across the pool; each task mutates only its own trains
// and draws from that train's random source.
func (w *World) finalize(elapsed float64) {
	gauge := track.StandardGauge
	if w.Layout != nil {
		gauge = w.Layout.Gauge()
	}
	w.pool.forEach(len(w.Trains), func(i int) {
		t := w.Trains[i]
		if t.State == train.StateDisposed || t.State == train.StateBogus {
			return
		}
		rng := w.rngs[i]
		for ci, c := range t.Cars {
			c.UpdateWorldPose()
			if dynamics.UpdateTopplingCantAndSpring(c, gauge, elapsed, rng) {
				w.bus.Publish(events.Event{
					Kind:  events.Derailment,
					Train: t.Name,
					Car:   ci,
					Time:  w.now,
				})
			}
		}
	})
}

// report publishes a resolution report and rings the shake spring of
// every struck car.
func (w *World) report(t *train.Train, kind events.Kind, rep dynamics.Report) {
	for _, im := range rep.Impacts {
		if im.Car >= 0 && im.Car < len(t.Cars) {
			dynamics.ApplyImpactShake(t.Cars[im.Car], im.Severity)
		}
		w.bus.Publish(events.Event{
			Kind:     kind,
			Train:    t.Name,
			Car:      im.Car,
			Severity: im.Severity,
			Time:     w.now,
		})
	}
	for _, ci := range rep.DerailedCars {
		w.bus.Publish(events.Event{
			Kind:  events.Derailment,
			Train: t.Name,
			Car:   ci,
			Time:  w.now,
		})
	}
}
