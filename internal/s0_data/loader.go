package s0_data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// Raw 로드만 되고 아직 검증 전인 패널 테이블
type Raw struct {
	Source  string
	Header  []string // normalized column names present in the source
	Rows    []contracts.PanelRow
	Skipped int // rows without symbol/date or outside the EQ series
}

// Panel 테이블 검증 후 정렬된 패널 생성
func (r *Raw) Panel() (*contracts.Panel, error) {
	p, err := contracts.NewPanel(r.Header, r.Rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Source, err)
	}
	return p, nil
}

// Loader reads the merged daily panel from CSV or XLSX
// ⭐ SSOT: 패널 파일 읽기는 여기서만
type Loader struct {
	log zerolog.Logger
}

// NewLoader 패널 로더 생성
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		log: log.With().Str("component", "s0_data.loader").Logger(),
	}
}

// Load 확장자(.csv, .xlsx)로 형식을 골라 path 읽기
func (l *Loader) Load(ctx context.Context, path string) (*Raw, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSVFile(path)
	case ".xlsx":
		records, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("load %s: unsupported file type", path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := parseRecords(records)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	raw.Source = path

	l.log.Info().
		Str("path", path).
		Int("rows", len(raw.Rows)).
		Int("skipped", raw.Skipped).
		Strs("columns", raw.Header).
		Msg("panel loaded")

	return raw, nil
}

// ReadCSV parses a CSV panel from r
func (l *Loader) ReadCSV(r io.Reader) (*Raw, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return parseRecords(records)
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// readXLSX 비어 있지 않은 첫 시트의 행
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("workbook has no data")
}

// parseRecords 헤더 + 데이터 행 → 패널 행
func parseRecords(records [][]string) (*Raw, error) {
	if len(records) == 0 {
		return nil, &contracts.SchemaError{Column: "*", Reason: "empty file"}
	}

	cols := make(map[string]int)
	raw := &Raw{}
	for i, h := range records[0] {
		name := NormalizeColumn(h)
		if name == "" {
			continue
		}
		if _, dup := cols[name]; dup {
			continue
		}
		cols[name] = i
		raw.Header = append(raw.Header, name)
	}

	// close 없으면 last price로 대체
	if _, ok := cols[contracts.ColClose]; !ok {
		if i, ok := cols[colLast]; ok {
			cols[contracts.ColClose] = i
			raw.Header = append(raw.Header, contracts.ColClose)
		}
	}

	for _, col := range contracts.RequiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, &contracts.SchemaError{Column: col, Reason: "mandatory column missing"}
		}
	}

	raw.Rows = make([]contracts.PanelRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		cell := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		if s := cell(colSeries); s != "" && !strings.EqualFold(s, "EQ") {
			raw.Skipped++
			continue
		}

		symbol := strings.ToUpper(cell(contracts.ColSymbol))
		dateStr := cell(contracts.ColDate)
		if symbol == "" || dateStr == "" {
			raw.Skipped++
			continue
		}
		date, err := ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := contracts.PanelRow{Symbol: symbol, Date: date}
		fields := []struct {
			col string
			dst *float64
		}{
			{contracts.ColOpen, &row.Open},
			{contracts.ColHigh, &row.High},
			{contracts.ColLow, &row.Low},
			{contracts.ColClose, &row.Close},
			{contracts.ColVolume, &row.Volume},
			{contracts.ColDeliveryPct, &row.DeliveryPct},
			{contracts.ColOpenInterest, &row.OpenInterest},
			{contracts.ColFIINet, &row.FIINet},
			{contracts.ColDIINet, &row.DIINet},
			{contracts.ColBulkDealFlag, &row.BulkDealFlag},
			{contracts.ColBlockDealFlag, &row.BlockDealFlag},
		}
		for _, f := range fields {
			v, err := parseNumber(cell(f.col))
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, f.col, err)
			}
			*f.dst = v
		}
		raw.Rows = append(raw.Rows, row)
	}

	return raw, nil
}

// parseNumber 숫자 셀 파싱: 빈 셀과 "-"는 0, 천 단위 구분자 무시
func parseNumber(s string) (float64, error) {
	if s == "" || s == "-" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	// ParseFloat은 "NaN", "Inf"도 받아들임 → 패널에는 유한값만
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-Jan-2006",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"20060102",
	"01-02-06", // excelize default date rendering (mm-dd-yy)
}

// ParseDate parses a trading date in any supported layout (UTC midnight)
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
