package scoring

// Breakdown maps a score component label to its awarded points.
type Breakdown map[string]int

// band awards Points when the value reaches Threshold (inclusive).
type band struct {
	Threshold float64
	Points    int
}

// Lower-bound band tables, evaluated top down, first match wins.
var (
	growthBands = []band{{15, 50}, {10, 40}, {6, 30}, {1, 20}}
	divBands    = []band{{7, 20}, {5, 15}, {3, 10}, {1, 5}}
	marginBands = []band{{16, 20}, {11, 15}, {6, 10}, {1, 5}}
	roeBands    = []band{{16, 40}, {11, 30}, {6, 20}, {1, 10}}
)

// perBands is an upper-bound table: a positive PER at or below Threshold
// scores Points, anything above the last threshold scores perTailPoints.
// The 999 unknown sentinel is positive and lands in the tail on purpose.
var perBands = []band{{9, 30}, {15, 20}, {24, 10}}

const perTailPoints = 5

const maxCashPoints = 50

func bandPoints(bands []band, value float64) int {
	for _, b := range bands {
		if value >= b.Threshold {
			return b.Points
		}
	}
	return 0
}

func perPoints(per float64) int {
	if per <= 0 {
		return 0
	}
	for _, b := range perBands {
		if per <= b.Threshold {
			return b.Points
		}
	}
	return perTailPoints
}

// cashPoints rewards cash generation relative to profitability. A cash
// positive stock earns a bonus from its cash ratio, clamped at maxCashPoints.
func cashPoints(profit float64, cashPositive bool, cashRatio float64) int {
	profitPositive := profit >= 0

	var points int
	switch {
	case profitPositive && cashPositive:
		points = 40
	case profitPositive:
		points = 30
	case cashPositive:
		points = 20
	default:
		points = 1
	}

	if cashPositive {
		bonus := int(cashRatio / 10)
		if bonus > 10 {
			bonus = 10
		}
		points += bonus
		if points > maxCashPoints {
			points = maxCashPoints
		}
	}
	return points
}

// Compute derives the composite score and its breakdown from a normalized
// value set. Deterministic, no I/O. The total never goes below zero and the
// breakdown's W entry always equals the total.
func Compute(v Values) (int, Breakdown) {
	g := bandPoints(growthBands, v.Growth)
	d := bandPoints(divBands, v.DivYield)
	p := perPoints(v.PER)
	gdp := g + d + p

	pm := bandPoints(marginBands, v.Margin)
	r := bandPoints(roeBands, v.ROE)
	c := cashPoints(v.Profit, v.CashPositive, v.CashRatio)
	prc := pm + r + c

	total := gdp + prc
	if total < 0 {
		total = 0
	}

	return total, Breakdown{
		"G": g, "D": d, "P_PER": p, "GDP": gdp,
		"P_PM": pm, "R": r, "C": c, "PRC": prc,
		"W": total,
	}
}
