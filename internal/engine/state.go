package engine

import (
	"finsim/internal/fxengine"
	"finsim/internal/money"
	"finsim/internal/rng"
	"finsim/internal/tax"
)

// state is the engine's single mutable working memory for one run. It
// owns deep-cloned copies of every input collection; the engine never
// mutates the caller's SimulationInput.
type state struct {
	day          int
	baseCurrency string
	balance      money.Decimal

	incomeStreams []IncomeStream
	expenses      []Expense
	assets        []Asset
	liabilities   []Liability
	taxConfig     *tax.Config

	fx  *fxengine.Engine
	rng *rng.RNG

	creditScore            money.Decimal
	totalRealizedGains     money.Decimal
	dailyRealizedGains     money.Decimal
	cumulativeAnnualIncome money.Decimal

	shockCount             int
	recoveryDays           int
	consecutiveDeficitDays int
	collapseDay            *int

	// per-day scratch, reset at the start of each step
	dailyIncome      money.Decimal
	dailyExpenses    money.Decimal
	dailyIncomeTax   money.Decimal
	dailyCapGainsTax money.Decimal
}

// newState deep-clones input into a fresh mutable state.
func newState(input SimulationInput) *state {
	s := &state{
		day:                    0,
		baseCurrency:           input.BaseCurrency,
		balance:                input.InitialBalance,
		incomeStreams:          cloneIncomeStreams(input.IncomeStreams),
		expenses:               cloneExpenses(input.Expenses),
		assets:                 cloneAssets(input.Assets),
		liabilities:            cloneLiabilities(input.Liabilities),
		taxConfig:              cloneTaxConfig(input.TaxConfig),
		fx:                     fxengine.New(),
		rng:                    rng.New(input.Seed),
		creditScore:            money.New(650, 0),
		totalRealizedGains:     money.Zero,
		dailyRealizedGains:     money.Zero,
		cumulativeAnnualIncome: money.Zero,
	}
	s.fx.LogEnabled = input.ConversionLogEnabled
	for _, r := range input.ExchangeRates {
		s.fx.SetRate(r.From, r.To, r.Rate, r.Volatility)
	}
	return s
}

func cloneIncomeStreams(in []IncomeStream) []IncomeStream {
	out := make([]IncomeStream, len(in))
	copy(out, in)
	for i, s := range in {
		if s.EndDay != nil {
			v := *s.EndDay
			out[i].EndDay = &v
		}
	}
	return out
}

func cloneExpenses(in []Expense) []Expense {
	out := make([]Expense, len(in))
	copy(out, in)
	for i, e := range in {
		if e.EndDay != nil {
			v := *e.EndDay
			out[i].EndDay = &v
		}
	}
	return out
}

func cloneAssets(in []Asset) []Asset {
	out := make([]Asset, len(in))
	copy(out, in)
	for i, a := range in {
		if a.LockUntilDay != nil {
			v := *a.LockUntilDay
			out[i].LockUntilDay = &v
		}
		if a.CostBasis.IsZero() {
			out[i].CostBasis = a.Value
		}
	}
	return out
}

func cloneLiabilities(in []Liability) []Liability {
	out := make([]Liability, len(in))
	copy(out, in)
	return out
}

func cloneTaxConfig(in *tax.Config) *tax.Config {
	if in == nil {
		return nil
	}
	out := *in
	out.Brackets = make([]tax.Bracket, len(in.Brackets))
	copy(out.Brackets, in.Brackets)
	return &out
}

// totalDebt sums outstanding principal across all liabilities.
func (s *state) totalDebt() money.Decimal {
	total := money.Zero
	for _, l := range s.liabilities {
		total = total.Add(l.Principal)
	}
	return total
}

// assetNAV sums book value across all assets.
func (s *state) assetNAV() money.Decimal {
	total := money.Zero
	for _, a := range s.assets {
		total = total.Add(a.Value)
	}
	return total
}

// totalUnrealizedGains sums (value - costBasis) across all assets; a
// supplemental observability figure, never consumed by the tax module.
func (s *state) totalUnrealizedGains() money.Decimal {
	total := money.Zero
	for _, a := range s.assets {
		total = total.Add(a.Value.Sub(a.CostBasis))
	}
	return total
}

// liquidityRatio follows the spec's three-way rule: unlocked liquid
// asset value over total debt when debt is positive; 999 if there is
// no debt but some liquid assets exist; 0 otherwise.
func (s *state) liquidityRatio() money.Decimal {
	liquidUnlocked := money.Zero
	for _, a := range s.assets {
		if a.Type == AssetLiquid && !a.Locked {
			liquidUnlocked = liquidUnlocked.Add(a.Value)
		}
	}
	debt := s.totalDebt()
	if debt.IsPositive() {
		return money.Round(liquidUnlocked.DivRound(debt, money.Precision))
	}
	if liquidUnlocked.IsPositive() {
		return money.New(999, 0)
	}
	return money.Zero
}

// shockResilienceIndex implements clamp(100 - 10*shockCount +
// 2*recoveryDays, 0, 100).
func (s *state) shockResilienceIndex() int {
	v := 100 - 10*s.shockCount + 2*s.recoveryDays
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// snapshot builds the DailySnapshot for the current day from state.
func (s *state) snapshot() DailySnapshot {
	return DailySnapshot{
		Day:                  s.day,
		Date:                 dateForDay(s.day),
		Balance:              s.balance,
		TotalIncome:          s.dailyIncome,
		TotalExpenses:        s.dailyExpenses,
		NetCashFlow:          s.dailyIncome.Sub(s.dailyExpenses),
		AssetNAV:             s.assetNAV(),
		TotalDebt:            s.totalDebt(),
		CreditScore:          s.creditScore,
		LiquidityRatio:       s.liquidityRatio(),
		ShockResilienceIndex: s.shockResilienceIndex(),
		TaxPaid:              s.dailyIncomeTax,
		CapitalGainsTax:      s.dailyCapGainsTax,
		TotalUnrealizedGains: s.totalUnrealizedGains(),
	}
}

func dateForDay(day int) string {
	return epochTime().AddDate(0, 0, day).Format("2006-01-02")
}
