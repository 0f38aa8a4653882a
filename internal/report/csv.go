package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/beamline-data/fluence.report/internal/fluence"
)

// renderCSV dumps the map in long form, one bin per row. Values keep full
// float64 precision so the dump round-trips into downstream analysis.
func renderCSV(m *fluence.Map) ([]byte, error) {
	binsY, binsX := m.Dims()
	errs := m.Errors()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"y_mm", "x_mm", "fluence_per_cm2", "error_per_cm2"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for j := 0; j < binsY; j++ {
		for i := 0; i < binsX; i++ {
			row := []string{
				strconv.FormatFloat(m.CentersY[j], 'g', -1, 64),
				strconv.FormatFloat(m.CentersX[i], 'g', -1, 64),
				strconv.FormatFloat(m.At(j, i), 'g', -1, 64),
				strconv.FormatFloat(errs.At(j, i), 'g', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
