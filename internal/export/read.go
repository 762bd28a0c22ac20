package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// ErrNoPredictions is returned when the output directory holds no prediction file
var ErrNoPredictions = errors.New("no prediction files found")

// LatestPredictionsFile dir에서 가장 최근 predictions_<timestamp>.csv
func LatestPredictionsFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "predictions_*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoPredictions
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// ReadPredictionsFile reads a predictions CSV written by PredictionsFile
func ReadPredictionsFile(path string) ([]contracts.HorizonRanking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rankings, err := ReadPredictions(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rankings, nil
}

// ReadPredictions parses a predictions CSV into rankings, in order of first appearance.
// Eligible is unknown from the file and set to the number of rows read.
func ReadPredictions(r io.Reader) ([]contracts.HorizonRanking, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, name := range PredictionHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out []contracts.HorizonRanking
	index := make(map[string]int)
	for n, rec := range records[1:] {
		p, err := parsePrediction(rec, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}

		i, ok := index[p.Horizon]
		if !ok {
			i = len(out)
			index[p.Horizon] = i
			out = append(out, contracts.HorizonRanking{Horizon: p.Horizon, Date: p.Date})
		}
		out[i].Predictions = append(out[i].Predictions, p)
		out[i].Eligible++
	}
	return out, nil
}

func parsePrediction(rec []string, col map[string]int) (contracts.Prediction, error) {
	var (
		p   contracts.Prediction
		err error
	)
	if len(rec) < len(col) {
		return p, fmt.Errorf("expected %d fields, got %d", len(col), len(rec))
	}

	p.Horizon = rec[col["horizon"]]
	p.Symbol = rec[col["symbol"]]
	if p.Rank, err = strconv.Atoi(rec[col["rank"]]); err != nil {
		return p, fmt.Errorf("rank: %w", err)
	}
	if p.Date, err = time.Parse(dateLayout, rec[col["date"]]); err != nil {
		return p, fmt.Errorf("date: %w", err)
	}

	for name, dst := range map[string]*float64{
		"close":        &p.Close,
		"delivery_pct": &p.DeliveryPct,
		"fii_net_ma5":  &p.FIINetMA5,
		"dii_net_ma5":  &p.DIINetMA5,
		"probability":  &p.Probability,
	} {
		if *dst, err = parseFloat(rec[col[name]]); err != nil {
			return p, fmt.Errorf("%s: %w", name, err)
		}
	}
	return p, nil
}

// parseFloat 빈 셀 → NaN
func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
