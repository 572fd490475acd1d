package engine

import (
	"testing"

	"finsim/internal/money"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monteCarloInput(runs int) SimulationInput {
	return SimulationInput{
		Seed:           42,
		HorizonDays:    90,
		BaseCurrency:   "USD",
		InitialBalance: money.New(5000, 0),
		IncomeStreams: []IncomeStream{
			{ID: uuid.New(), Name: "salary", Amount: money.New(120, 0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
		Expenses: []Expense{
			{ID: uuid.New(), Name: "rent", Amount: money.New(100, 0), Currency: "USD", Recurrence: RecurrenceDaily, StartDay: 0},
		},
		Assets: []Asset{
			{ID: uuid.New(), Name: "stocks", Type: AssetVolatile, Value: money.New(2000, 0), Currency: "USD", Volatility: 0.3},
		},
		MonteCarloConfig: &MonteCarloConfig{Runs: runs},
	}
}

func TestMonteCarloPrimaryRunMatchesSingleRun(t *testing.T) {
	single, err := SimulateSingleRun(monteCarloInput(1), nil)
	require.NoError(t, err)

	multi, err := Simulate(monteCarloInput(20))
	require.NoError(t, err)

	require.Equal(t, len(single.Snapshots), len(multi.Snapshots))
	for i := range single.Snapshots {
		assert.True(t, single.Snapshots[i].Balance.Equal(multi.Snapshots[i].Balance), "day %d primary trace diverged", i)
	}
}

func TestMonteCarloDeterministicAcrossRepeatedCalls(t *testing.T) {
	input := monteCarloInput(24)
	first, err := Simulate(input)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		next, err := Simulate(input)
		require.NoError(t, err)
		assert.True(t, first.FinalBalance.Expected.Equal(next.FinalBalance.Expected))
		assert.True(t, first.FinalBalance.P5.Equal(next.FinalBalance.P5))
		assert.True(t, first.FinalBalance.P95.Equal(next.FinalBalance.P95))
		assert.Equal(t, first.CollapseProbability, next.CollapseProbability)
	}
}

func TestMonteCarloPercentileOrdering(t *testing.T) {
	out, err := Simulate(monteCarloInput(30))
	require.NoError(t, err)
	assert.True(t, out.FinalBalance.P5.LessThanOrEqual(out.FinalBalance.Expected.Add(money.New(1, 0))))
	assert.True(t, out.FinalBalance.P5.LessThanOrEqual(out.FinalBalance.P95))
}

func TestPercentileUsesNearestRankNotInterpolation(t *testing.T) {
	values := make([]money.Decimal, 10)
	for i := range values {
		values[i] = money.New(int64(i), 0) // 0..9, already sorted
	}

	assert.True(t, percentile(values, 0.05).Equal(values[0]), "p5 of 10 sorted values must be sorted[0], got %s", percentile(values, 0.05))
	assert.True(t, percentile(values, 0.95).Equal(values[9]), "p95 of 10 sorted values must be sorted[9], got %s", percentile(values, 0.95))
	assert.True(t, percentile(values, 0.5).Equal(values[5]))
}

func TestPercentileIgnoresInputOrder(t *testing.T) {
	shuffled := []money.Decimal{
		money.New(9, 0), money.New(3, 0), money.New(0, 0), money.New(7, 0), money.New(1, 0),
		money.New(5, 0), money.New(2, 0), money.New(8, 0), money.New(4, 0), money.New(6, 0),
	}
	assert.True(t, percentile(shuffled, 0.05).Equal(money.New(0, 0)))
	assert.True(t, percentile(shuffled, 0.95).Equal(money.New(9, 0)))
}

func TestMonteCarloSingleRunShortCircuits(t *testing.T) {
	input := monteCarloInput(1)
	out, err := Simulate(input)
	require.NoError(t, err)
	assert.True(t, out.CollapseProbability == 0 || out.CollapseProbability == 1)
}
