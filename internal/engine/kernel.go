package engine

import (
	"math"
	"sort"

	"finsim/internal/dag"
	"finsim/internal/money"
	"finsim/internal/tax"
)

// kernelGraph is the fixed per-day component graph from the spec. It is
// resolved once per run (the order never changes across days) and the
// cached order is replayed by stepDay for every day in the horizon.
var kernelGraph = []dag.Node{
	{ID: "income"},
	{ID: "expenses", DependsOn: []string{"income"}},
	{ID: "liabilities", DependsOn: []string{"expenses"}},
	{ID: "asset_valuation"},
	{ID: "auto_liquidation", DependsOn: []string{"expenses", "liabilities"}},
	{ID: "taxation", DependsOn: []string{"income", "auto_liquidation"}},
	{ID: "credit_score", DependsOn: []string{"liabilities", "auto_liquidation", "taxation"}},
	{ID: "behavioral", DependsOn: []string{"credit_score"}},
}

// kernelOrder resolves kernelGraph, surfacing DagError as a fatal
// engine error per spec.md §7. The fixed graph never actually cycles or
// references an unknown id, but the resolver is a general utility and
// always checks.
func kernelOrder() ([]string, error) {
	order, err := dag.Resolve(kernelGraph)
	if err != nil {
		switch {
		case err == dag.ErrCycle:
			return nil, wrapf(ErrDagCycle, "resolving day-step graph")
		default:
			return nil, wrapf(ErrDagUnknownDependency, "resolving day-step graph: %v", err)
		}
	}
	return order, nil
}

// stepFuncs dispatches each DAG node id to its component function, the
// "fixed table after the sort" the Design Notes call for instead of
// dynamic reflection.
func (s *state) stepFuncs() map[string]func() error {
	return map[string]func() error{
		"income":           s.stepIncome,
		"expenses":         s.stepExpenses,
		"liabilities":      s.stepLiabilities,
		"asset_valuation":  s.stepAssetValuation,
		"auto_liquidation": s.stepAutoLiquidation,
		"taxation":         s.stepTaxation,
		"credit_score":     s.stepCreditScore,
		"behavioral":       s.stepBehavioral,
	}
}

// stepDay advances state by exactly one day, running the eight
// components in the given DAG order.
func (s *state) stepDay(day int, order []string) error {
	s.day = day
	s.dailyRealizedGains = money.Zero
	s.dailyIncome = money.Zero
	s.dailyExpenses = money.Zero
	s.dailyIncomeTax = money.Zero
	s.dailyCapGainsTax = money.Zero

	funcs := s.stepFuncs()
	for _, id := range order {
		if err := funcs[id](); err != nil {
			return err
		}
	}
	return nil
}

// isRecurrenceDay implements the spec's recurrence predicate: elapsed
// is d - startDay.
func isRecurrenceDay(elapsed int, recurrence Recurrence) bool {
	if elapsed < 0 {
		return false
	}
	switch recurrence {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		return elapsed%7 == 0
	case RecurrenceBiweekly:
		return elapsed%14 == 0
	case RecurrenceMonthly:
		return elapsed%30 == 0
	case RecurrenceYearly:
		return elapsed%365 == 0
	case RecurrenceOnce:
		return elapsed == 0
	default:
		return false
	}
}

func activeToday(day, startDay int, endDay *int, recurrence Recurrence) bool {
	if day < startDay {
		return false
	}
	if endDay != nil && day > *endDay {
		return false
	}
	return isRecurrenceDay(day-startDay, recurrence)
}

func (s *state) stepIncome() error {
	for _, stream := range s.incomeStreams {
		if !activeToday(s.day, stream.StartDay, stream.EndDay, stream.Recurrence) {
			continue
		}
		amount, err := s.fx.Convert(stream.Amount, stream.Currency, s.baseCurrency, s.day, s.rng, "income:"+stream.Name)
		if err != nil {
			return wrapf(ErrNoExchangeRate, "income %s", stream.Name)
		}
		s.balance = s.balance.Add(amount)
		s.dailyIncome = s.dailyIncome.Add(amount)
	}
	return nil
}

func (s *state) stepExpenses() error {
	for _, exp := range s.expenses {
		if !activeToday(s.day, exp.StartDay, exp.EndDay, exp.Recurrence) {
			continue
		}
		amount, err := s.fx.Convert(exp.Amount, exp.Currency, s.baseCurrency, s.day, s.rng, "expense:"+exp.Name)
		if err != nil {
			return wrapf(ErrNoExchangeRate, "expense %s", exp.Name)
		}
		s.balance = s.balance.Sub(amount)
		s.dailyExpenses = s.dailyExpenses.Add(amount)
	}
	return nil
}

func (s *state) stepLiabilities() error {
	thirty := money.New(30, 0)
	for i := range s.liabilities {
		l := &s.liabilities[i]
		if !l.Principal.IsPositive() {
			continue
		}
		annualFactor := 1 + l.InterestRate/365
		l.Principal = money.Round(l.Principal.Mul(money.NewFromFloat(annualFactor)))

		dailyPayment := money.Min(l.MinimumPayment.DivRound(thirty, money.Precision), l.Principal)
		dailyPayment = money.Round(dailyPayment)

		converted, err := s.fx.Convert(dailyPayment, l.Currency, s.baseCurrency, s.day, s.rng, "liability:"+l.Name)
		if err != nil {
			return wrapf(ErrNoExchangeRate, "liability %s", l.Name)
		}
		s.balance = s.balance.Sub(converted)
		l.Principal = l.Principal.Sub(dailyPayment)
	}
	return nil
}

func (s *state) stepAssetValuation() error {
	for i := range s.assets {
		a := &s.assets[i]
		if a.Volatility > 0 {
			sigma := a.Volatility / math.Sqrt(365)
			g := s.rng.Gaussian(0, sigma)
			a.Value = money.Max(money.Zero, money.Round(a.Value.Mul(money.NewFromFloat(1+g))))
		}
		if a.YieldRate > 0 && !a.Locked {
			a.Value = money.Round(a.Value.Mul(money.NewFromFloat(1 + a.YieldRate/365)))
		}
		if a.Locked && a.LockUntilDay != nil && s.day >= *a.LockUntilDay {
			a.Locked = false
		}
	}
	return nil
}

// liquidationPriority orders the three eligible asset types; illiquid
// assets never appear here and are never liquidated.
var liquidationPriority = []AssetType{AssetLiquid, AssetVolatile, AssetYieldGenerating}

func (s *state) stepAutoLiquidation() error {
	if !money.IsNegative(s.balance) {
		return nil
	}

	for _, assetType := range liquidationPriority {
		type candidate struct {
			index int
			order int
		}
		var candidates []candidate
		for i, a := range s.assets {
			if a.Type != assetType || a.Locked || !a.Value.IsPositive() {
				continue
			}
			candidates = append(candidates, candidate{index: i, order: i})
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return s.assets[candidates[i].index].LiquidationPenalty < s.assets[candidates[j].index].LiquidationPenalty
		})

		for _, c := range candidates {
			if !money.IsNegative(s.balance) {
				return nil
			}
			a := &s.assets[c.index]
			proceeds := money.Round(a.Value.Mul(money.NewFromFloat(1 - a.LiquidationPenalty)))
			converted, err := s.fx.Convert(proceeds, a.Currency, s.baseCurrency, s.day, s.rng, "liquidation:"+a.Name)
			if err != nil {
				return wrapf(ErrNoExchangeRate, "liquidating %s", a.Name)
			}
			s.balance = s.balance.Add(converted)
			s.dailyRealizedGains = s.dailyRealizedGains.Add(converted)
			s.totalRealizedGains = s.totalRealizedGains.Add(converted)
			a.Value = money.Zero
		}
	}
	return nil
}

func (s *state) stepTaxation() error {
	if s.taxConfig == nil {
		s.dailyIncomeTax = money.Zero
		s.dailyCapGainsTax = money.Zero
	} else {
		result := tax.ComputeDailyTax(s.dailyIncome, s.dailyRealizedGains, s.cumulativeAnnualIncome, *s.taxConfig)
		s.dailyIncomeTax = result.IncomeTax
		s.dailyCapGainsTax = result.CapitalGains
		s.balance = s.balance.Sub(result.TotalTax)
	}

	s.cumulativeAnnualIncome = s.cumulativeAnnualIncome.Add(s.dailyIncome)
	if s.day > 0 && s.day%365 == 0 {
		s.cumulativeAnnualIncome = money.Zero
	}
	return nil
}

func (s *state) stepCreditScore() error {
	debt := s.totalDebt()
	balance := s.balance

	var debtRatio float64
	switch {
	case balance.IsPositive():
		ratio, _ := debt.DivRound(balance, money.Precision).Float64()
		debtRatio = ratio
	case debt.IsPositive():
		debtRatio = 2
	default:
		debtRatio = 0
	}

	punctuality := 1.0
	if s.consecutiveDeficitDays != 0 {
		punctuality = -1.0
	}

	adjustment := (-0.5*debtRatio + 0.3*punctuality) * 0.1
	newScore := s.creditScore.Add(money.NewFromFloat(adjustment))
	s.creditScore = money.Round(money.Clamp(newScore, money.New(300, 0), money.New(850, 0)))
	return nil
}

func (s *state) stepBehavioral() error {
	if money.IsNegative(s.balance) {
		s.consecutiveDeficitDays++
		if s.consecutiveDeficitDays == 1 {
			s.shockCount++
		}
		if s.collapseDay == nil && s.consecutiveDeficitDays > 30 {
			d := s.day
			s.collapseDay = &d
		}
	} else {
		if s.consecutiveDeficitDays > 0 {
			s.recoveryDays++
		}
		s.consecutiveDeficitDays = 0
	}
	return nil
}
