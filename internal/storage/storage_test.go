package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/railkit/railsim/internal/train"
)

func singleTrain(t *testing.T, name string, center, speed float64) *train.Train {
	t.Helper()
	c := &train.Car{Length: 20}
	c.FrontAxle.Position = 8
	c.RearAxle.Position = -8
	c.Specs.MassEmpty = 40000
	c.Specs.MassCurrent = 40000
	c.Specs.CurrentSpeed = speed
	c.PlaceAt(nil, center)

	tr, err := train.New(name, []*train.Car{c}, nil)
	if err != nil {
		t.Fatalf("building train: %v", err)
	}
	tr.State = train.StateAvailable
	return tr
}

func TestRecorderSamplesEveryTick(t *testing.T) {
	tr := singleTrain(t, "local", 100, 5)
	rec := NewRecorder(1)

	rec.OnTick([]*train.Train{tr}, 0.01)
	tr.Cars[0].PlaceAt(nil, 100.05)
	rec.OnTick([]*train.Train{tr}, 0.02)

	s := rec.Series()
	wantCols := []string{"local_position", "local_speed", "local_derailed"}
	if len(s.Columns) != len(wantCols) {
		t.Fatalf("expected %d columns, got %v", len(wantCols), s.Columns)
	}
	for i, col := range wantCols {
		if s.Columns[i] != col {
			t.Errorf("column %d: expected %s, got %s", i, col, s.Columns[i])
		}
	}
	if rec.Samples() != 2 {
		t.Fatalf("expected 2 samples, got %d", rec.Samples())
	}
	if s.Times[0] != 0.01 || s.Times[1] != 0.02 {
		t.Errorf("times = %v", s.Times)
	}
	if s.Rows[0][0] != 100 || math.Abs(s.Rows[1][0]-100.05) > 1e-9 {
		t.Errorf("positions = %f, %f", s.Rows[0][0], s.Rows[1][0])
	}
	if s.Rows[0][1] != 5 {
		t.Errorf("speed = %f", s.Rows[0][1])
	}
	if s.Rows[0][2] != 0 {
		t.Errorf("derailed = %f", s.Rows[0][2])
	}
}

func TestRecorderStride(t *testing.T) {
	tr := singleTrain(t, "local", 100, 5)
	rec := NewRecorder(2)

	for i := 0; i < 5; i++ {
		rec.OnTick([]*train.Train{tr}, float64(i+1)*0.01)
	}
	if rec.Samples() != 3 {
		t.Errorf("expected ticks 0, 2, 4 sampled, got %d samples", rec.Samples())
	}
}

func TestRecorderCountsDerailedCars(t *testing.T) {
	tr := singleTrain(t, "local", 100, 5)
	rec := NewRecorder(1)

	rec.OnTick([]*train.Train{tr}, 0.01)
	tr.Cars[0].Derail()
	rec.OnTick([]*train.Train{tr}, 0.02)

	s := rec.Series()
	if s.Rows[0][2] != 0 || s.Rows[1][2] != 1 {
		t.Errorf("derailed column = %f, %f", s.Rows[0][2], s.Rows[1][2])
	}
}

func TestRecorderBindsColumnsOnce(t *testing.T) {
	first := singleTrain(t, "first", 100, 5)
	rec := NewRecorder(1)
	rec.OnTick([]*train.Train{first}, 0.01)

	late := singleTrain(t, "late", 300, 0)
	rec.OnTick([]*train.Train{first, late}, 0.02)

	s := rec.Series()
	if len(s.Columns) != 3 {
		t.Errorf("late train should not widen the series: %v", s.Columns)
	}
	if len(s.Rows[1]) != 3 {
		t.Errorf("late row has %d values", len(s.Rows[1]))
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	tr := singleTrain(t, "local", 100, 5)
	rec := NewRecorder(1)
	rec.OnTick([]*train.Train{tr}, 0.01)
	tr.Cars[0].PlaceAt(nil, 100.05)
	rec.OnTick([]*train.Train{tr}, 0.02)

	runID, err := st.Save("default", 0.01, 60, 42, map[string]float64{"momentum": 200000}, rec.Series())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Scenario != "default" || meta.Seed != 42 {
		t.Errorf("metadata: %+v", meta)
	}
	if meta.Samples != 2 {
		t.Errorf("expected 2 samples, got %d", meta.Samples)
	}
	if meta.Metrics["momentum"] != 200000 {
		t.Errorf("expected momentum metric, got %v", meta.Metrics)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	if len(series.Columns) != 3 || series.Columns[0] != "local_position" {
		t.Errorf("columns = %v", series.Columns)
	}
	if len(series.Times) != 2 || series.Times[1] != 0.02 {
		t.Errorf("times = %v", series.Times)
	}
	if series.Rows[0][0] != 100 || series.Rows[0][1] != 5 {
		t.Errorf("row 0 = %v", series.Rows[0])
	}
	if math.Abs(series.Rows[1][0]-100.05) > 1e-6 {
		t.Errorf("row 1 position = %f", series.Rows[1][0])
	}
}

func TestStoreSave_NoSamples(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := st.Save("empty", 0.01, 60, 1, nil, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	if len(series.Times) != 0 {
		t.Errorf("expected empty series, got %d samples", len(series.Times))
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := st.Save("first", 0.01, 60, 1, nil, nil); err != nil {
		t.Fatal(err)
	}
	second, err := st.Save("second", 0.01, 60, 2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Junk that List must skip.
	if err := os.MkdirAll(filepath.Join(dir, "not-a-run"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second {
		t.Errorf("expected newest run first, got %s", runs[0].ID)
	}
}

func TestStoreList_MissingBaseDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never-created"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
