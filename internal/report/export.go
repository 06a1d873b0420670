package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeaders = []string{
	"Test",
	"Step",
	"Status",
	"Duration Milliseconds",
	"Started",
	"Error",
}

// ExportCSV writes one row per step, preceded by a header row.
func ExportCSV(w io.Writer, steps []Step) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeaders); err != nil {
		return err
	}
	for _, step := range steps {
		row := []string{
			step.Test,
			step.Name,
			step.Status(),
			strconv.FormatInt(step.Duration.Milliseconds(), 10),
			formatTime(step.Started),
			step.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
