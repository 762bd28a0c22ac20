// Package gaps detects and handles trading days missing from the panel.
package gaps

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

// SymbolCoverage 종목별 달력 커버리지
type SymbolCoverage struct {
	Symbol   string      `json:"symbol"`
	First    time.Time   `json:"first"`
	Last     time.Time   `json:"last"`
	Days     int         `json:"days"`
	Expected int         `json:"expected"` // panel calendar days in [First, Last]
	Missing  []time.Time `json:"missing,omitempty"`
}

// Coverage Days/Expected (기대 일수 0이면 1)
func (c SymbolCoverage) Coverage() float64 {
	if c.Expected == 0 {
		return 1
	}
	return float64(c.Days) / float64(c.Expected)
}

// Report summarizes missing trading days.
// MissingDates are weekdays between the first and last panel dates absent for every symbol
// (exchange holidays included). Calendar is the sorted set of dates present for any symbol.
type Report struct {
	First        time.Time        `json:"first"`
	Last         time.Time        `json:"last"`
	Calendar     []time.Time      `json:"-"`
	MissingDates []time.Time      `json:"missing_dates"`
	Symbols      []SymbolCoverage `json:"symbols"`
}

// Incomplete 하루 이상 빠진 종목
func (r *Report) Incomplete() []SymbolCoverage {
	var out []SymbolCoverage
	for _, s := range r.Symbols {
		if len(s.Missing) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Detect 패널의 누락일 리포트 생성
func Detect(p *contracts.Panel) *Report {
	rep := &Report{}
	if len(p.Rows) == 0 {
		return rep
	}

	rep.First, rep.Last = p.DateRange()
	rep.Calendar = calendar(p.Rows)

	present := make(map[time.Time]struct{}, len(rep.Calendar))
	for _, d := range rep.Calendar {
		present[d] = struct{}{}
	}
	for d := rep.First; !d.After(rep.Last); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if _, ok := present[d]; !ok {
			rep.MissingDates = append(rep.MissingDates, d)
		}
	}

	for _, span := range p.Spans() {
		rows := p.Rows[span.Start:span.End]
		cov := SymbolCoverage{
			Symbol: span.Symbol,
			First:  rows[0].Date,
			Last:   rows[len(rows)-1].Date,
			Days:   len(rows),
		}

		j := 0
		for _, d := range between(rep.Calendar, cov.First, cov.Last) {
			cov.Expected++
			if j < len(rows) && rows[j].Date.Equal(d) {
				j++
				continue
			}
			cov.Missing = append(cov.Missing, d)
		}
		rep.Symbols = append(rep.Symbols, cov)
	}

	return rep
}

// Apply 지정한 전략으로 누락일을 처리하고 새 패널 반환
//
//   - forward_fill: 종목의 [first, last] 구간 안에서 빠진 거래일마다 행 삽입.
//     가격은 직전 종가, 거래량/인도율/미결제약정은 직전 값 유지.
//     deal flag는 0, FII/DII는 그날의 시장 값.
//   - interpolate: 같은 행을 삽입하되 종가, 거래량, 인도율, 미결제약정을 앞뒤 행 사이
//     달력 위치로 선형 보간 (OHLC 모두 보간된 종가).
//   - skip: 전체 달력 중 하루라도 빠진 종목 제거.
//   - mark_only: 패널 그대로 반환.
func Apply(p *contracts.Panel, rep *Report, strategy string) (*contracts.Panel, error) {
	switch strategy {
	case strategyconfig.MissingMarkOnly:
		return p, nil
	case strategyconfig.MissingSkip:
		return skipIncomplete(p, rep)
	case strategyconfig.MissingForwardFill:
		return fill(p, rep, false)
	case strategyconfig.MissingInterpolate:
		return fill(p, rep, true)
	default:
		return nil, fmt.Errorf("unknown missing day strategy %q", strategy)
	}
}

// fill 종목 구간 안의 빠진 거래일 삽입
func fill(p *contracts.Panel, rep *Report, interpolate bool) (*contracts.Panel, error) {
	type flows struct{ fii, dii float64 }
	market := make(map[time.Time]flows)
	for _, r := range p.Rows {
		if _, ok := market[r.Date]; !ok {
			market[r.Date] = flows{r.FIINet, r.DIINet}
		}
	}

	rows := make([]contracts.PanelRow, 0, len(p.Rows))
	for _, span := range p.Spans() {
		src := p.Rows[span.Start:span.End]
		days := between(rep.Calendar, src[0].Date, src[len(src)-1].Date)
		prev, prevAt := src[0], 0
		j := 0
		for k, d := range days {
			if j < len(src) && src[j].Date.Equal(d) {
				prev, prevAt = src[j], k
				rows = append(rows, prev)
				j++
				continue
			}

			// 누락일은 항상 구간 내부 → src[j]가 다음 실제 행
			// 직전 거래일 값 유지 (거래량 포함, deal flag는 이벤트라 0)
			px, vol, delivery, oi := prev.Close, prev.Volume, prev.DeliveryPct, prev.OpenInterest
			if interpolate {
				next := src[j]
				nextAt := prevAt + 1
				for !days[nextAt].Equal(next.Date) {
					nextAt++
				}
				w := float64(k-prevAt) / float64(nextAt-prevAt)
				px = lerp(prev.Close, next.Close, w)
				vol = lerp(prev.Volume, next.Volume, w)
				delivery = lerp(prev.DeliveryPct, next.DeliveryPct, w)
				oi = lerp(prev.OpenInterest, next.OpenInterest, w)
			}

			m := market[d]
			rows = append(rows, contracts.PanelRow{
				Symbol:       prev.Symbol,
				Date:         d,
				Open:         px,
				High:         px,
				Low:          px,
				Close:        px,
				Volume:       vol,
				DeliveryPct:  delivery,
				OpenInterest: oi,
				FIINet:       m.fii,
				DIINet:       m.dii,
			})
		}
	}

	return contracts.NewPanel(header(p.Columns), rows)
}

func lerp(a, b, w float64) float64 {
	return a + (b-a)*w
}

func skipIncomplete(p *contracts.Panel, rep *Report) (*contracts.Panel, error) {
	full := len(rep.Calendar)
	rows := make([]contracts.PanelRow, 0, len(p.Rows))
	for _, span := range p.Spans() {
		if span.Len() < full {
			continue
		}
		rows = append(rows, p.Rows[span.Start:span.End]...)
	}
	return contracts.NewPanel(header(p.Columns), rows)
}

// calendar 행들의 고유 날짜 (정렬)
func calendar(rows []contracts.PanelRow) []time.Time {
	seen := make(map[time.Time]struct{})
	var days []time.Time
	for _, r := range rows {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		days = append(days, r.Date)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// between [from, to] 범위의 달력 날짜
func between(cal []time.Time, from, to time.Time) []time.Time {
	lo := sort.Search(len(cal), func(i int) bool { return !cal[i].Before(from) })
	hi := sort.Search(len(cal), func(i int) bool { return cal[i].After(to) })
	return cal[lo:hi]
}

func header(cols contracts.ColumnSet) []string {
	h := append([]string{}, contracts.RequiredColumns...)
	for _, col := range contracts.OptionalColumns {
		if cols.Has(col) {
			h = append(h, col)
		}
	}
	return h
}
