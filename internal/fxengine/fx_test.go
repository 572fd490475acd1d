package fxengine

import (
	"errors"
	"testing"

	"finsim/internal/money"
	"finsim/internal/rng"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameCurrencyIsIdentityAndUnlogged(t *testing.T) {
	e := New()
	e.LogEnabled = true
	r := rng.New(1)

	out, err := e.Convert(money.New(100, 0), "USD", "USD", 0, r, "test")
	require.NoError(t, err)
	assert.True(t, out.Equal(money.New(100, 0)))
	assert.Empty(t, e.ConversionLog())
}

func TestNoRateErrors(t *testing.T) {
	e := New()
	r := rng.New(1)
	_, err := e.Convert(money.New(100, 0), "USD", "JPY", 0, r, "test")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRate))
}

func TestZeroVolatilityDoesNotConsumeRNG(t *testing.T) {
	e := New()
	e.SetRate("EUR", "USD", money.NewFromFloat(1.18), 0)
	r1 := rng.New(5)
	r2 := rng.New(5)

	rate, err := e.GetDailyRate("EUR", "USD", 0, r1)
	require.NoError(t, err)
	assert.True(t, rate.Equal(money.NewFromFloat(1.18)))

	// r1 should not have advanced: its next draw must equal r2's first draw.
	assert.Equal(t, r2.Next(), r1.Next())
}

func TestReciprocalCacheIsExactRoundTrip(t *testing.T) {
	e := New()
	e.SetRate("EUR", "USD", money.NewFromFloat(1.18), 0)
	r := rng.New(1)

	amount := money.New(1000, 0)
	converted, err := e.Convert(amount, "EUR", "USD", 3, r, "ctx")
	require.NoError(t, err)

	back, err := e.Convert(converted, "USD", "EUR", 3, r, "ctx")
	require.NoError(t, err)

	assert.True(t, back.Equal(amount), "expected %s got %s", amount, back)
}

func TestInverseLookupWhenOnlyReverseConfigured(t *testing.T) {
	e := New()
	e.SetRate("USD", "EUR", money.NewFromFloat(0.85), 0)
	r := rng.New(1)

	rate, err := e.GetDailyRate("EUR", "USD", 0, r)
	require.NoError(t, err)

	expected := money.New(1, 0).DivRound(money.NewFromFloat(0.85), money.Precision)
	assert.True(t, rate.Equal(expected))
}

func TestClearCacheEmptiesLogAndCache(t *testing.T) {
	e := New()
	e.LogEnabled = true
	e.SetRate("EUR", "USD", money.NewFromFloat(1.1), 0)
	r := rng.New(1)
	_, err := e.Convert(money.New(10, 0), "EUR", "USD", 0, r, "x")
	require.NoError(t, err)
	require.NotEmpty(t, e.ConversionLog())

	e.ClearCache()
	assert.Empty(t, e.ConversionLog())
	assert.Empty(t, e.cache)

	// With the cache empty, the next GetDailyRate for the same day
	// re-derives the rate; at zero volatility it is the configured rate.
	v, err := e.GetDailyRate("EUR", "USD", 0, r)
	require.NoError(t, err)
	assert.True(t, v.Equal(money.NewFromFloat(1.1)))
}

func TestVolatilityProducesBoundedRate(t *testing.T) {
	e := New()
	e.SetRate("USD", "GBP", money.NewFromFloat(0.8), 0.2)
	r := rng.New(42)

	for day := 0; day < 30; day++ {
		rate, err := e.GetDailyRate("USD", "GBP", day, r)
		require.NoError(t, err)
		assert.True(t, rate.GreaterThanOrEqual(money.NewFromFloat(0.8*0.01)))
	}
}
