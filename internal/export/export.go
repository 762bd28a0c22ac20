// Package export writes feature tables and rankings to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/s1_features"
)

const dateLayout = "2006-01-02"

// PredictionHeader 예측 결과 내보내기 열 순서
var PredictionHeader = []string{
	"horizon", "rank", "symbol", "date", "close",
	"delivery_pct", "fii_net_ma5", "dii_net_ma5", "probability",
}

// FeatureHeader returns the feature table columns: keys, every feature, one label per horizon
func FeatureHeader(horizons []string) []string {
	h := []string{"symbol", "date", "close"}
	for _, c := range s1_features.Columns {
		h = append(h, c.Name)
	}
	for _, name := range horizons {
		h = append(h, "label_"+name)
	}
	return h
}

// WriteFeatures 피처 행을 CSV로 기록 (NaN은 빈 셀)
func WriteFeatures(w io.Writer, rows []contracts.FeatureRow, horizons []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FeatureHeader(horizons)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rec := make([]string, 0, 3+len(s1_features.Columns)+len(horizons))
	for i := range rows {
		r := &rows[i]
		rec = rec[:0]
		rec = append(rec, r.Symbol, r.Date.Format(dateLayout), formatFloat(r.Close))
		for _, c := range s1_features.Columns {
			rec = append(rec, formatFloat(c.Get(&r.Features)))
		}
		for _, h := range horizons {
			l := r.Label(h)
			if !l.Defined() {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.Itoa(int(l)))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePredictions writes every ranked prediction as CSV, horizons in the given order
func WritePredictions(w io.Writer, rankings []contracts.HorizonRanking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PredictionHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, h := range rankings {
		for _, p := range h.Predictions {
			if err := cw.Write(predictionRecord(p)); err != nil {
				return fmt.Errorf("failed to write prediction: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// FeaturesFile writes the feature table to dir/features_<date>.csv and returns the path
func FeaturesFile(dir string, rows []contracts.FeatureRow, horizons []string, at time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("features_%s.csv", at.Format("20060102")))
	return path, writeFile(path, func(w io.Writer) error {
		return WriteFeatures(w, rows, horizons)
	})
}

// PredictionsFile writes rankings to dir/predictions_<timestamp>.csv and returns the path
func PredictionsFile(dir string, rankings []contracts.HorizonRanking, at time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("predictions_%s.csv", at.Format("20060102_150405")))
	return path, writeFile(path, func(w io.Writer) error {
		return WritePredictions(w, rankings)
	})
}

// PredictionsWorkbook 호라이즌마다 시트 하나씩 XLSX 기록
func PredictionsWorkbook(path string, rankings []contracts.HorizonRanking) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, h := range rankings {
		if h.Skipped != "" {
			continue
		}
		sheet := h.Horizon
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		if err := setRow(f, sheet, 1, PredictionHeader); err != nil {
			return err
		}
		for i, p := range h.Predictions {
			row := []interface{}{
				p.Horizon, p.Rank, p.Symbol, p.Date.Format(dateLayout), p.Close,
				p.DeliveryPct, p.FIINetMA5, p.DIINetMA5, p.Probability,
			}
			if err := setRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func predictionRecord(p contracts.Prediction) []string {
	return []string{
		p.Horizon,
		strconv.Itoa(p.Rank),
		p.Symbol,
		p.Date.Format(dateLayout),
		formatFloat(p.Close),
		formatFloat(p.DeliveryPct),
		formatFloat(p.FIINetMA5),
		formatFloat(p.DIINetMA5),
		strconv.FormatFloat(p.Probability, 'f', 6, 64),
	}
}

// formatFloat NaN → 빈 셀
func formatFloat(v float64) string {
	if contracts.IsUndefined(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
