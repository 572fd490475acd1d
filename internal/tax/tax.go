// Package tax implements the engine's progressive-bracket income tax
// and flat-rate capital-gains tax, plus the daily marginal-delta
// decomposition the day-step kernel needs.
package tax

import (
	"sort"

	"finsim/internal/money"
)

// Bracket is one marginal tax bracket: income up to UpperBound is taxed
// at Rate (brackets are evaluated cumulatively, ascending).
type Bracket struct {
	UpperBound money.Decimal
	Rate       float64
}

// Config is the tax configuration for a simulation run.
type Config struct {
	Brackets         []Bracket
	CapitalGainsRate float64
	Currency         string
}

// DailyTax is the result of a single day's tax computation.
type DailyTax struct {
	IncomeTax    money.Decimal
	CapitalGains money.Decimal
	TotalTax     money.Decimal
}

// ComputeProgressiveTax walks the brackets ascending by UpperBound,
// taxing each slice of income at its bracket's rate; income above the
// top bracket is taxed at the top bracket's rate. Zero or negative
// income returns zero.
func ComputeProgressiveTax(annualIncome money.Decimal, cfg Config) money.Decimal {
	if len(cfg.Brackets) == 0 || !annualIncome.IsPositive() {
		return money.Zero
	}

	sorted := make([]Bracket, len(cfg.Brackets))
	copy(sorted, cfg.Brackets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UpperBound.LessThan(sorted[j].UpperBound)
	})

	tax := money.Zero
	prevUpper := money.Zero
	remaining := annualIncome

	for i, b := range sorted {
		if remaining.LessThanOrEqual(money.Zero) {
			break
		}
		bandWidth := b.UpperBound.Sub(prevUpper)
		taxableInBand := money.Min(remaining, bandWidth)
		tax = tax.Add(taxableInBand.Mul(money.NewFromFloat(b.Rate)))
		remaining = remaining.Sub(taxableInBand)
		prevUpper = b.UpperBound

		if i == len(sorted)-1 && remaining.IsPositive() {
			// Income above the top bracket is taxed at the top bracket's rate.
			tax = tax.Add(remaining.Mul(money.NewFromFloat(b.Rate)))
			remaining = money.Zero
		}
	}

	return money.Round(tax)
}

// ComputeCapitalGainsTax applies the flat capital-gains rate to
// realized gains. Negative gains (net losses) are not taxed.
func ComputeCapitalGainsTax(realizedGains money.Decimal, cfg Config) money.Decimal {
	taxable := money.Max(money.Zero, realizedGains)
	return money.Round(taxable.Mul(money.NewFromFloat(cfg.CapitalGainsRate)))
}

// ComputeDailyTax returns the day's income tax (the marginal delta of
// progressive tax over the day's income against the running annual
// total) and the day's capital-gains tax (on the day's realized gains
// only). Summed over a year, the income-tax component reproduces the
// annual progressive-tax figure exactly — this identity is what makes
// ComputeDailyTax safe to call once per day rather than settling tax
// annually.
func ComputeDailyTax(dailyIncome, dailyRealizedGains, cumulativeAnnualIncome money.Decimal, cfg Config) DailyTax {
	before := ComputeProgressiveTax(cumulativeAnnualIncome, cfg)
	after := ComputeProgressiveTax(cumulativeAnnualIncome.Add(dailyIncome), cfg)
	incomeTax := money.Round(after.Sub(before))

	capGains := ComputeCapitalGainsTax(dailyRealizedGains, cfg)

	return DailyTax{
		IncomeTax:    incomeTax,
		CapitalGains: capGains,
		TotalTax:     money.Round(incomeTax.Add(capGains)),
	}
}
