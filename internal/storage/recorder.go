package storage

import "github.com/railkit/railsim/internal/train"

// Series is a recorded run: one time column plus three columns per
// train (position, speed, derailed car count), row per sample.
type Series struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

// Recorder samples the world after each tick. It satisfies the world
// observer interface and can be handed straight to AddObserver.
//
// Columns are bound to the trains present on the first sampled tick;
// trains added afterwards are not recorded.
type Recorder struct {
	stride int
	tick   int
	series Series
}

// NewRecorder samples every stride-th tick. A stride below 1 records
// every tick.
func NewRecorder(stride int) *Recorder {
	if stride < 1 {
		stride = 1
	}
	return &Recorder{stride: stride}
}

func (r *Recorder) OnTick(trains []*train.Train, now float64) {
	defer func() { r.tick++ }()
	if r.tick%r.stride != 0 {
		return
	}

	if r.series.Columns == nil {
		for _, t := range trains {
			r.series.Columns = append(r.series.Columns,
				t.Name+"_position", t.Name+"_speed", t.Name+"_derailed")
		}
	}

	n := len(r.series.Columns) / 3
	if len(trains) < n {
		n = len(trains)
	}
	row := make([]float64, 0, len(r.series.Columns))
	for _, t := range trains[:n] {
		row = append(row, t.Cars[0].CenterPosition(), t.Cars[0].Specs.CurrentSpeed, float64(derailedCars(t)))
	}
	for len(row) < len(r.series.Columns) {
		row = append(row, 0)
	}

	r.series.Times = append(r.series.Times, now)
	r.series.Rows = append(r.series.Rows, row)
}

// Series returns what has been recorded so far. The recorder keeps
// appending to the same backing slices, so take it after the run.
func (r *Recorder) Series() *Series { return &r.series }

func (r *Recorder) Samples() int { return len(r.series.Times) }

func derailedCars(t *train.Train) int {
	count := 0
	for _, c := range t.Cars {
		if c.Derailed {
			count++
		}
	}
	return count
}
