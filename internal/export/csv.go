package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/railkit/railsim/internal/storage"
)

func WriteCSV(w io.Writer, series *storage.Series) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, series.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range series.Rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, strconv.FormatFloat(series.Times[i], 'f', 6, 64))
		for _, val := range row {
			record = append(record, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func CSVToFile(path string, series *storage.Series) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, series)
}
