package contracts

import "time"

// DataQualitySnapshot summarizes the panel checks run before feature computation
// ⭐ SSOT: S0 → S1 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	Source       string             `json:"source"`
	CheckedAt    time.Time          `json:"checked_at"`
	TotalRows    int                `json:"total_rows"`
	TotalSymbols int                `json:"total_symbols"`
	FirstDate    time.Time          `json:"first_date"`
	LatestDate   time.Time          `json:"latest_date"`
	Coverage     map[string]float64 `json:"coverage"` // 컬럼별 커버리지 (0.0 ~ 1.0)
	Issues       []string           `json:"issues"`   // critical
	Warnings     []string           `json:"warnings"`
}

// Passed reports whether no critical issue was found
func (d *DataQualitySnapshot) Passed() bool {
	return len(d.Issues) == 0 && d.TotalRows > 0
}

// CoverageRate returns the average coverage rate across all columns
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
