package scoring

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang-stock-scorer/internal/dto"
)

// Values is the normalized input set consumed by the score engine. The
// extractor is the only place that touches the raw screener payload, so the
// engine always operates on a fixed, validated shape.
type Values struct {
	Growth       float64 `json:"growth"`
	DivYield     float64 `json:"div_yield"`
	PER          float64 `json:"per"`
	ROE          float64 `json:"roe"`
	Margin       float64 `json:"margin"`
	Profit       float64 `json:"profit"`
	CashPositive bool    `json:"cash_positive"`
	CashRatio    float64 `json:"cash_ratio"`
}

// UnknownPER is the sentinel for an absent or invalid price/earnings ratio.
const UnknownPER = 999

// ParseFloat coerces an arbitrary JSON leaf into a float64. The screener
// mixes numbers, formatted strings and nulls; nil and anything unparsable
// become 0. Never panics.
func ParseFloat(v interface{}) float64 {
	f, _ := parseFloat(v)
	return f
}

func parseFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Extract maps a raw screener payload to a normalized value set. Missing
// sections produce zeroed outputs; it never fails.
func Extract(detail *dto.StockDetail) Values {
	if detail == nil {
		detail = &dto.StockDetail{}
	}

	v := Values{
		DivYield: ParseFloat(detail.Stock["DY"]),
		ROE:      ParseFloat(detail.Stock["ROE"]),
		PER:      UnknownPER,
	}
	if per, ok := parseFloat(detail.Stock["PE"]); ok {
		v.PER = per
	}

	reports := sortReportsByQuarter(detail.FinancialReports)

	v.Growth = extractGrowth(detail.StockIndicator, reports)
	v.Margin, v.Profit = extractMargin(reports)
	v.CashPositive = extractCashPositive(reports, detail.BalanceSheet)
	v.CashRatio = extractCashRatio(detail.BalanceSheet)

	return v
}

// sortReportsByQuarter orders reports by quarter_date_end descending. Dates
// are ISO formatted, so a plain string compare is sufficient.
func sortReportsByQuarter(reports []map[string]interface{}) []map[string]interface{} {
	sorted := make([]map[string]interface{}, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := sorted[i]["quarter_date_end"].(string)
		b, _ := sorted[j]["quarter_date_end"].(string)
		return a > b
	})
	return sorted
}

// extractGrowth prefers the source-reported 5y CAGR and falls back to
// recomputing it from annual profit sums, then to the 3y CAGR.
func extractGrowth(indicator map[string]interface{}, reports []map[string]interface{}) float64 {
	growth := ParseFloat(indicator["cagr_5y"])
	if growth != 0 {
		return growth
	}

	annual := map[string]float64{}
	for _, r := range reports {
		yearEnd, _ := r["financial_year_end"].(string)
		if len(yearEnd) < 4 {
			continue
		}
		year := yearEnd[:4]
		annual[year] += ParseFloat(r["profit_loss"])
	}

	years := make([]string, 0, len(annual))
	for y := range annual {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	if len(years) > 5 {
		years = years[:5]
	}

	if len(years) >= 2 {
		latest := annual[years[0]]
		earliest := annual[years[len(years)-1]]
		if latest > 0 && earliest > 0 {
			n := float64(len(years) - 1)
			return (math.Pow(latest/earliest, 1/n) - 1) * 100
		}
	}

	return ParseFloat(indicator["cagr_3y"])
}

// extractMargin computes the profit margin of the most recent quarter.
// Revenue defaults to 1 when the field is absent; an explicit zero revenue
// yields a zero margin.
func extractMargin(reports []map[string]interface{}) (margin, profit float64) {
	if len(reports) == 0 {
		return 0, 0
	}
	latest := reports[0]
	profit = ParseFloat(latest["profit_loss"])

	revenue := 1.0
	if raw, ok := latest["revenue"]; ok {
		revenue = ParseFloat(raw)
	}
	if revenue == 0 {
		return 0, profit
	}
	return profit / revenue * 100, profit
}

// extractCashPositive ORs three independent signals: positive operating cash
// flow in the latest quarter, positive profit in any of the last four
// quarters when the cash flow field is missing, and cash exceeding debt on
// the balance sheet.
func extractCashPositive(reports []map[string]interface{}, bs map[string]interface{}) bool {
	if len(reports) > 0 {
		latest := reports[0]
		if raw, ok := latest["operating_cf"]; ok {
			if ParseFloat(raw) > 0 {
				return true
			}
		} else {
			recent := reports
			if len(recent) > 4 {
				recent = recent[:4]
			}
			for _, r := range recent {
				if ParseFloat(r["profit_loss"]) > 0 {
					return true
				}
			}
		}
	}

	return ParseFloat(bs["total_cash"]) > ParseFloat(bs["total_debt"])
}

func extractCashRatio(bs map[string]interface{}) float64 {
	equity := ParseFloat(bs["total_equity"])
	if equity <= 0 {
		return 0
	}
	return ParseFloat(bs["total_cash"]) / equity * 100
}
