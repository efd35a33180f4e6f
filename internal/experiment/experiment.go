// Package experiment runs scenarios headless and varies their
// parameters: single runs with the standard metric set, entry-speed
// sweeps, and seed ensembles for the stochastic re-adhesion path.
package experiment

import (
	"context"

	"github.com/railkit/railsim/internal/config"
	"github.com/railkit/railsim/internal/metrics"
	"github.com/railkit/railsim/internal/world"
)

type Result struct {
	Metrics map[string]float64
	Samples int
}

// StandardMetrics is the metric set every headless run collects.
func StandardMetrics() []world.Metric {
	return []world.Metric{
		metrics.NewMomentum(),
		metrics.NewDerailments(),
		metrics.NewCouplerStress(),
		metrics.NewEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewRollStability(0.5),
		metrics.NewTractionEffort(),
	}
}

// Run executes one scenario to completion and reports the standard
// metrics.
func Run(ctx context.Context, scenario *config.Scenario) (*Result, error) {
	w, err := scenario.Build()
	if err != nil {
		return nil, err
	}
	defer w.Close()

	collected := StandardMetrics()
	for _, m := range collected {
		m.Reset()
		w.AddMetric(m)
	}

	steps := scenario.Steps()
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		w.Step(scenario.Dt)
	}

	res := &Result{
		Metrics: make(map[string]float64, len(collected)),
		Samples: steps,
	}
	for _, m := range collected {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}
