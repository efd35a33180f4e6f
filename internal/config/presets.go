package config

import "sort"

// presets are built fresh per call so a caller tweaking one cannot
// corrupt later runs.
var presets = map[string]func() *Scenario{
	"head-on":         headOn,
	"buffer-stop":     bufferStop,
	"overspeed-curve": overspeedCurve,
	"grade-start":     gradeStart,
}

func GetPreset(name string) *Scenario {
	f, ok := presets[name]
	if !ok {
		return nil
	}
	return f()
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// headOn closes two light trains at 20 m/s relative speed; the merge
// stays below the default derailment threshold, so they couple up and
// drift together.
func headOn() *Scenario {
	s := DefaultScenario()
	s.Name = "head-on"
	s.Duration = 30
	s.Trains = []TrainConfig{
		{
			Name:     "eastbound",
			Player:   true,
			Position: 200,
			Speed:    10,
			Coupler:  CouplerConfig{Minimum: 0.3, Maximum: 0.6},
			Cars:     []CarConfig{DefaultMotorCar(), DefaultTrailerCar()},
		},
		{
			Name:     "westbound",
			Position: 420,
			Speed:    -10,
			Coupler:  CouplerConfig{Minimum: 0.3, Maximum: 0.6},
			Cars:     []CarConfig{DefaultMotorCar(), DefaultTrailerCar()},
		},
	}
	return s
}

// bufferStop runs the player train into a dead end at 8 m/s.
func bufferStop() *Scenario {
	s := DefaultScenario()
	s.Name = "buffer-stop"
	s.Duration = 30
	s.Track = TrackConfig{
		Gauge:    DefaultGauge,
		Segments: []SegmentConfig{{Length: 600}},
		Buffers:  []float64{550},
	}
	s.Trains = []TrainConfig{{
		Name:     "terminator",
		Player:   true,
		Position: 400,
		Speed:    8,
		Coupler:  CouplerConfig{Minimum: 0.3, Maximum: 0.6},
		Cars:     []CarConfig{DefaultMotorCar(), DefaultTrailerCar()},
	}}
	return s
}

// overspeedCurve takes a tight right-hander far above its stability
// speed; the outward lean passes the critical toppling angle and the
// rake derails.
func overspeedCurve() *Scenario {
	s := DefaultScenario()
	s.Name = "overspeed-curve"
	s.Duration = 20
	s.Track = TrackConfig{
		Gauge: DefaultGauge,
		Segments: []SegmentConfig{
			{Length: 150},
			{Length: 800, Radius: 90, Cant: 0.05},
		},
	}
	s.Trains = []TrainConfig{{
		Name:     "runaway",
		Player:   true,
		Position: 120,
		Speed:    32,
		Coupler:  CouplerConfig{Minimum: 0.3, Maximum: 0.6},
		Cars:     []CarConfig{DefaultMotorCar(), DefaultTrailerCar()},
	}}
	return s
}

// gradeStart pulls away from rest on a 3% climb under full power.
func gradeStart() *Scenario {
	s := DefaultScenario()
	s.Name = "grade-start"
	s.Duration = 60
	s.Track = TrackConfig{
		Gauge:    DefaultGauge,
		Segments: []SegmentConfig{{Length: 2000, Grade: 0.03}},
	}
	s.Trains = []TrainConfig{{
		Name:       "climber",
		Player:     true,
		Position:   100,
		Speed:      0,
		Reverser:   1,
		PowerNotch: 4,
		Coupler:    CouplerConfig{Minimum: 0.3, Maximum: 0.6},
		Cars:       []CarConfig{DefaultMotorCar(), DefaultTrailerCar(), DefaultMotorCar()},
	}}
	return s
}
