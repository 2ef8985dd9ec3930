package costing

import (
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Summary struct {
	BaseCost       decimal.Decimal `json:"base_cost"`
	ErrorMargin    decimal.Decimal `json:"error_margin"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	CostPerPortion decimal.Decimal `json:"cost_per_portion"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	MarginPercent  decimal.Decimal `json:"margin_percent"`
}

// Summarize is a pure function of its inputs. Portions below 1 count as 1.
// The multiplier must be positive.
func Summarize(lines []Line, portions int, errorMarginRate decimal.Decimal, multiplier decimal.Decimal) (Summary, error) {
	if errorMarginRate.IsNegative() {
		return Summary{}, utils.InvalidInput("error_margin_rate", "must be >= 0")
	}
	if !multiplier.IsPositive() {
		return Summary{}, utils.InvalidInput("multiplier", "must be > 0")
	}
	if portions < 1 {
		portions = 1
	}

	base := decimal.Zero
	for _, l := range lines {
		base = base.Add(l.Total())
	}
	errorMargin := base.Mul(errorMarginRate)
	total := base.Add(errorMargin)
	suggested := total.Mul(multiplier)

	margin := decimal.Zero
	if !suggested.IsZero() {
		margin = suggested.Sub(total).Div(suggested).Mul(hundred)
	}

	return Summary{
		BaseCost:       base,
		ErrorMargin:    errorMargin,
		TotalCost:      total,
		CostPerPortion: total.Div(decimal.NewFromInt(int64(portions))),
		SuggestedPrice: suggested,
		MarginPercent:  margin,
	}, nil
}
