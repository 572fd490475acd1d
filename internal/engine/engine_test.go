package engine

import (
	"testing"

	"finsim/internal/money"
	"finsim/internal/tax"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neutralLoopInput() SimulationInput {
	return SimulationInput{
		Seed:           42,
		HorizonDays:    365,
		BaseCurrency:   "USD",
		InitialBalance: money.New(10000, 0),
		IncomeStreams: []IncomeStream{
			{ID: uuid.New(), Name: "salary", Amount: money.New(100, 0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
		Expenses: []Expense{
			{ID: uuid.New(), Name: "rent", Amount: money.New(100, 0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
	}
}

func TestNeutralLoopPrecision(t *testing.T) {
	out, err := Simulate(neutralLoopInput())
	require.NoError(t, err)
	for _, snap := range out.Snapshots {
		assert.True(t, snap.Balance.Equal(money.New(10000, 0)), "day %d balance %s", snap.Day, snap.Balance)
	}
}

func TestSimpleRecurrenceBitExact(t *testing.T) {
	input := SimulationInput{
		Seed:           42,
		HorizonDays:    30,
		BaseCurrency:   "USD",
		InitialBalance: money.New(10000, 0),
		IncomeStreams: []IncomeStream{
			{ID: uuid.New(), Name: "salary", Amount: money.New(3000, 0), Currency: "USD", Recurrence: RecurrenceMonthly, StartDay: 0},
		},
		Expenses: []Expense{
			{ID: uuid.New(), Name: "rent", Amount: money.New(1500, 0), Currency: "USD", Recurrence: RecurrenceMonthly, StartDay: 0},
			{ID: uuid.New(), Name: "food", Amount: money.New(30, 0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
	}

	out1, err := Simulate(input)
	require.NoError(t, err)
	out2, err := Simulate(input)
	require.NoError(t, err)

	assert.True(t, out1.Snapshots[0].TotalIncome.Equal(money.New(3000, 0)))
	assert.True(t, out1.Snapshots[0].TotalExpenses.Equal(money.New(1530, 0)))

	require.Equal(t, len(out1.Snapshots), len(out2.Snapshots))
	for i := range out1.Snapshots {
		assert.True(t, out1.Snapshots[i].Balance.Equal(out2.Snapshots[i].Balance), "day %d diverged", i)
	}
}

func TestFXMix(t *testing.T) {
	input := SimulationInput{
		Seed:           42,
		HorizonDays:    1,
		BaseCurrency:   "USD",
		InitialBalance: money.New(10000, 0),
		IncomeStreams: []IncomeStream{
			{ID: uuid.New(), Name: "eur-income", Amount: money.New(2500, 0), Currency: "EUR", Recurrence: RecurrenceMonthly, StartDay: 0},
		},
		Expenses: []Expense{
			{ID: uuid.New(), Name: "gbp-rent", Amount: money.New(1000, 0), Currency: "GBP", Recurrence: RecurrenceMonthly, StartDay: 0},
		},
		ExchangeRates: []ExchangeRate{
			{From: "EUR", To: "USD", Rate: money.NewFromFloat(1.18), Volatility: 0},
			{From: "GBP", To: "USD", Rate: money.NewFromFloat(1.37), Volatility: 0},
		},
	}

	out, err := Simulate(input)
	require.NoError(t, err)
	snap := out.Snapshots[0]

	assert.InDelta(t, 2950.0, money.ToFloat64(snap.TotalIncome), 0.01)
	assert.InDelta(t, 1370.0, money.ToFloat64(snap.TotalExpenses), 0.01)
	assert.InDelta(t, 11580.0, money.ToFloat64(snap.Balance), 0.01)
}

func TestLiquidationPriority(t *testing.T) {
	input := SimulationInput{
		Seed:           1,
		HorizonDays:    1,
		BaseCurrency:   "USD",
		InitialBalance: money.New(-100, 0),
		Assets: []Asset{
			{ID: uuid.New(), Name: "cash-like", Type: AssetLiquid, Value: money.New(200, 0), Currency: "USD", LiquidationPenalty: 0.5},
		},
	}

	out, err := Simulate(input)
	require.NoError(t, err)
	assert.True(t, out.Snapshots[0].Balance.Equal(money.Zero), "got %s", out.Snapshots[0].Balance)
}

func TestLiquidationSkipsLockedAssets(t *testing.T) {
	lockUntil := 10
	input := SimulationInput{
		Seed:           1,
		HorizonDays:    1,
		BaseCurrency:   "USD",
		InitialBalance: money.New(-100, 0),
		Assets: []Asset{
			{ID: uuid.New(), Name: "locked", Type: AssetLiquid, Value: money.New(100000, 0), Currency: "USD", Locked: true, LockUntilDay: &lockUntil},
		},
	}

	out, err := Simulate(input)
	require.NoError(t, err)
	assert.True(t, money.IsNegative(out.Snapshots[0].Balance))
}

func TestCollapseRegime(t *testing.T) {
	input := SimulationInput{
		Seed:           7,
		HorizonDays:    60,
		BaseCurrency:   "USD",
		InitialBalance: money.New(100, 0),
		Expenses: []Expense{
			{ID: uuid.New(), Name: "rent", Amount: money.New(100, 0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
		MonteCarloConfig: &MonteCarloConfig{Runs: 10},
	}

	out, err := Simulate(input)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.CollapseProbability)
}

func TestDeterminismAcrossRepeatedRuns(t *testing.T) {
	input := neutralLoopInput()
	input.HorizonDays = 90
	first, err := Simulate(input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		next, err := Simulate(input)
		require.NoError(t, err)
		require.Equal(t, len(first.Snapshots), len(next.Snapshots))
		for d := range first.Snapshots {
			assert.True(t, first.Snapshots[d].Balance.Equal(next.Snapshots[d].Balance))
		}
	}
}

func TestSnapshotLengthMatchesHorizon(t *testing.T) {
	input := neutralLoopInput()
	input.HorizonDays = 17
	out, err := Simulate(input)
	require.NoError(t, err)
	assert.Len(t, out.Snapshots, 17)
}

func TestDayAndDateMonotonicity(t *testing.T) {
	input := neutralLoopInput()
	input.HorizonDays = 10
	out, err := Simulate(input)
	require.NoError(t, err)
	for i, snap := range out.Snapshots {
		assert.Equal(t, i, snap.Day)
		if i > 0 {
			assert.Greater(t, snap.Date, out.Snapshots[i-1].Date)
		}
	}
}

func TestCreditScoreStaysInBounds(t *testing.T) {
	input := neutralLoopInput()
	input.HorizonDays = 400
	out, err := Simulate(input)
	require.NoError(t, err)
	for _, snap := range out.Snapshots {
		f := money.ToFloat64(snap.CreditScore)
		assert.GreaterOrEqual(t, f, 300.0)
		assert.LessOrEqual(t, f, 850.0)
	}
}

func TestCollapseDayMonotonicWithConsecutiveDeficit(t *testing.T) {
	input := SimulationInput{
		Seed:           3,
		HorizonDays:    40,
		BaseCurrency:   "USD",
		InitialBalance: money.Zero,
		Expenses: []Expense{
			{ID: uuid.New(), Name: "rent", Amount: money.New(10, 0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
	}
	out, err := Simulate(input)
	require.NoError(t, err)
	require.NotNil(t, out.CollapseDay)
	// Balance is negative from day 0, so day 30 is the 31st consecutive
	// deficit day: the first day the count exceeds 30.
	assert.Equal(t, 30, *out.CollapseDay)
}

func TestInvalidHorizonRejected(t *testing.T) {
	input := neutralLoopInput()
	input.HorizonDays = 0
	_, err := Simulate(input)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestMissingExchangeRateIsFatal(t *testing.T) {
	input := SimulationInput{
		Seed:           1,
		HorizonDays:    1,
		BaseCurrency:   "USD",
		InitialBalance: money.Zero,
		IncomeStreams: []IncomeStream{
			{ID: uuid.New(), Name: "eur-income", Amount: money.New(100, 0), Currency: "EUR", Recurrence: RecurrenceDaily, StartDay: 0},
		},
	}
	_, err := Simulate(input)
	assert.ErrorIs(t, err, ErrNoExchangeRate)
}

func TestInputNotMutated(t *testing.T) {
	input := neutralLoopInput()
	originalAmount := input.IncomeStreams[0].Amount
	_, err := Simulate(input)
	require.NoError(t, err)
	assert.True(t, input.IncomeStreams[0].Amount.Equal(originalAmount))
	assert.True(t, input.InitialBalance.Equal(money.New(10000, 0)))
}

func TestProgressiveTaxIdentityThroughEngine(t *testing.T) {
	cfg := &tax.Config{
		Brackets: []tax.Bracket{
			{UpperBound: money.New(10000, 0), Rate: 0.10},
			{UpperBound: money.New(40000, 0), Rate: 0.20},
		},
		CapitalGainsRate: 0.15,
		Currency:         "USD",
	}
	input := SimulationInput{
		Seed:           1,
		HorizonDays:    365,
		BaseCurrency:   "USD",
		InitialBalance: money.Zero,
		IncomeStreams: []IncomeStream{
			{ID: uuid.New(), Name: "salary", Amount: money.NewFromFloat(25000.0 / 365.0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
		TaxConfig: cfg,
	}
	out, err := Simulate(input)
	require.NoError(t, err)

	totalTax := money.Zero
	for _, snap := range out.Snapshots {
		totalTax = totalTax.Add(snap.TaxPaid)
	}
	assert.InDelta(t, 4000.0, money.ToFloat64(totalTax), 1.0)
}
