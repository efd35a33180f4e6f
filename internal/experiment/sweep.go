package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/railkit/railsim/internal/config"
)

// Sweep runs the base scenario once per speed, each run with the named
// train's entry speed replaced. Runs execute in parallel; the base
// scenario is never mutated.
type Sweep struct {
	Base   *config.Scenario
	Train  string
	Speeds []float64
}

// Point is the outcome of one sweep run.
type Point struct {
	Speed   float64
	Metrics map[string]float64
}

func (s *Sweep) Run(ctx context.Context) ([]Point, error) {
	if !s.trainExists() {
		return nil, fmt.Errorf("experiment: scenario has no train %q", s.Train)
	}

	points := make([]Point, len(s.Speeds))
	errs := make([]error, len(s.Speeds))

	var wg sync.WaitGroup
	for i, speed := range s.Speeds {
		wg.Add(1)
		go func(idx int, speed float64) {
			defer wg.Done()

			scenario := s.Base.Clone()
			for j := range scenario.Trains {
				if scenario.Trains[j].Name == s.Train {
					scenario.Trains[j].Speed = speed
				}
			}

			res, err := Run(ctx, scenario)
			if err != nil {
				errs[idx] = err
				return
			}
			points[idx] = Point{Speed: speed, Metrics: res.Metrics}
		}(i, speed)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return points, nil
}

func (s *Sweep) trainExists() bool {
	for _, tc := range s.Base.Trains {
		if tc.Name == s.Train {
			return true
		}
	}
	return false
}

// CriticalSpeed returns the first swept speed that produced a
// derailment. Points are inspected in input order, so pass ascending
// speeds to read the result as a threshold.
func CriticalSpeed(points []Point) (float64, bool) {
	for _, p := range points {
		if p.Metrics["derailments"] > 0 {
			return p.Speed, true
		}
	}
	return 0, false
}

// Ensemble repeats the same scenario across consecutive seeds. Only
// the stochastic re-adhesion path differs between runs, so the spread
// of outcomes is the sensitivity to slip timing.
type Ensemble struct {
	Base     *config.Scenario
	Runs     int
	SeedBase int64
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.Runs)
	errs := make([]error, e.Runs)

	var wg sync.WaitGroup
	for i := 0; i < e.Runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			scenario := e.Base.Clone()
			scenario.Seed = e.SeedBase + int64(idx)

			results[idx], errs[idx] = Run(ctx, scenario)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// DerailmentRate is the fraction of ensemble runs that derailed at
// least one car.
func DerailmentRate(results []*Result) float64 {
	if len(results) == 0 {
		return 0
	}
	derailed := 0
	for _, r := range results {
		if r.Metrics["derailments"] > 0 {
			derailed++
		}
	}
	return float64(derailed) / float64(len(results))
}
