// Package export renders recorded runs to interchange formats: JSON,
// CSV and a minimal polyline SVG for quick plots.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/railkit/railsim/internal/storage"
)

type ExportData struct {
	Scenario string             `json:"scenario"`
	RunID    string             `json:"run_id,omitempty"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Seed     int64              `json:"seed"`
	Samples  int                `json:"samples"`
	Columns  []string           `json:"columns"`
	Times    []float64          `json:"times"`
	Rows     [][]float64        `json:"rows"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// FromRun flattens stored metadata and its series into one document.
func FromRun(meta *storage.RunMetadata, series *storage.Series) ExportData {
	data := ExportData{
		Scenario: meta.Scenario,
		RunID:    meta.ID,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Seed:     meta.Seed,
		Metrics:  meta.Metrics,
	}
	if series != nil {
		data.Samples = len(series.Times)
		data.Columns = series.Columns
		data.Times = series.Times
		data.Rows = series.Rows
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func JSONToFile(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}
