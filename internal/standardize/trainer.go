package standardize

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

// IdleRow is one parsed row of a device's idle CSV (§4.6.1 input).
type IdleRow struct {
	Numeric [types.NumericFeatureCount]float64
	Tail    [types.TailFieldCount]string
}

// ReadIdleCSV parses a 28-column idle CSV (with header) into rows,
// filling any unparseable/missing numeric value with -1 (§4.6.1: "fill NaN
// with -1").
func ReadIdleCSV(path string) ([]IdleRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read idle csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse idle csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	records = records[1:] // drop header

	rows := make([]IdleRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < types.TotalColumnCount {
			continue
		}
		var row IdleRow
		for i := 0; i < types.NumericFeatureCount; i++ {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil || math.IsNaN(v) {
				v = -1
			}
			row.Numeric[i] = v
		}
		for i := 0; i < types.TailFieldCount; i++ {
			row.Tail[i] = rec[types.NumericFeatureCount+i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SplitEightyTwenty splits rows 80/20 by row order (not by time), per
// spec.md §9's Open Question resolution.
func SplitEightyTwenty(rows []IdleRow) (train, test []IdleRow) {
	n := len(rows)
	cut := int(float64(n) * 0.8)
	return rows[:cut], rows[cut:]
}

// FitStandardizer implements §4.6.1: fit a scaler on the 80% training
// split, persist it, and return both splits transformed (tail fields
// reattached) for the caller to write out.
func FitStandardizer(rows []IdleRow) (ss *modelstore.Standardizer, train, test []IdleRow) {
	trainRows, testRows := SplitEightyTwenty(rows)

	numeric := make([][types.NumericFeatureCount]float64, len(trainRows))
	for i, r := range trainRows {
		numeric[i] = r.Numeric
	}
	ss = modelstore.FitStandardizer(numeric)

	transform := func(rows []IdleRow) []IdleRow {
		out := make([]IdleRow, len(rows))
		for i, r := range rows {
			out[i] = IdleRow{Numeric: ss.Transform(r.Numeric), Tail: r.Tail}
		}
		return out
	}
	return ss, transform(trainRows), transform(testRows)
}

// WriteStandardizedCSV writes rows to path with the 28-column header,
// numeric part first then tail fields, per §4.6.1's output layout.
func WriteStandardizedCSV(path string, rows []IdleRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write standardized csv %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(types.Header()); err != nil {
		return err
	}
	for _, r := range rows {
		record := make([]string, 0, types.TotalColumnCount)
		for _, v := range r.Numeric {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		record = append(record, r.Tail[:]...)
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
