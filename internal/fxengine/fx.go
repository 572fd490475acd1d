// Package fxengine implements per-day FX rate derivation, caching, and
// conversion auditing for the simulation engine.
package fxengine

import (
	"errors"
	"fmt"
	"math"

	"finsim/internal/money"
	"finsim/internal/rng"
)

// ErrNoRate is returned when neither a direct nor an inverse base rate
// exists for a currency pair.
var ErrNoRate = errors.New("fxengine: no rate for currency pair")

// baseRate is a configured (from, to) exchange rate and its volatility.
type baseRate struct {
	rate       money.Decimal
	volatility float64
}

// ConversionLogEntry records one audited conversion.
type ConversionLogEntry struct {
	Day             int
	From            string
	To              string
	OriginalAmount  money.Decimal
	ConvertedAmount money.Decimal
	RateUsed        money.Decimal
	Context         string
}

type cacheKey struct {
	day  int
	from string
	to   string
}

// Engine holds configured base rates plus the per-run daily cache and
// conversion log.
type Engine struct {
	bases map[[2]string]baseRate
	cache map[cacheKey]money.Decimal
	log   []ConversionLogEntry

	// LogEnabled controls whether Convert appends to the audit log.
	// Disabled by default so callers that do not need the log never pay
	// its memory cost; the engine sets it from
	// SimulationInput.ConversionLogEnabled, the same value for every run
	// of a Monte Carlo fan-out.
	LogEnabled bool
}

// New constructs an Engine with no configured rates.
func New() *Engine {
	return &Engine{
		bases: make(map[[2]string]baseRate),
		cache: make(map[cacheKey]money.Decimal),
	}
}

// SetRate configures (or overwrites) the base rate for from->to.
func (e *Engine) SetRate(from, to string, rate money.Decimal, volatility float64) {
	e.bases[[2]string{from, to}] = baseRate{rate: rate, volatility: volatility}
}

// HasRate reports whether a direct or inverse base rate exists for the
// pair. It never consumes RNG and never mutates the cache.
func (e *Engine) HasRate(from, to string) bool {
	if from == to {
		return true
	}
	if _, ok := e.bases[[2]string{from, to}]; ok {
		return true
	}
	_, ok := e.bases[[2]string{to, from}]
	return ok
}

// ClearCache empties the daily rate cache and the conversion log.
func (e *Engine) ClearCache() {
	e.cache = make(map[cacheKey]money.Decimal)
	e.log = nil
}

// ConversionLog returns the accumulated conversion audit entries.
func (e *Engine) ConversionLog() []ConversionLogEntry {
	return e.log
}

// GetDailyRate returns the volatility-adjusted rate for from->to on day
// d, deriving and caching it (and its reciprocal) on first use for that
// day.
func (e *Engine) GetDailyRate(from, to string, day int, r *rng.RNG) (money.Decimal, error) {
	if from == to {
		return money.New(1, 0), nil
	}

	key := cacheKey{day: day, from: from, to: to}
	if v, ok := e.cache[key]; ok {
		return v, nil
	}

	base, inverse, err := e.resolveBase(from, to)
	if err != nil {
		return money.Decimal{}, err
	}

	rate := e.deriveRate(base, inverse, r)
	e.cache[key] = rate

	reciprocalKey := cacheKey{day: day, from: to, to: from}
	if _, ok := e.cache[reciprocalKey]; !ok {
		// Store the reciprocal verbatim rather than recomputing it from a
		// fresh RNG draw — this is what makes A->B->A round-trip exactly
		// within a run, because both directions share the same derived
		// rate_t.
		one := money.New(1, 0)
		e.cache[reciprocalKey] = one.DivRound(rate, money.Precision)
	}

	return rate, nil
}

// resolveBase finds the configured base rate for from->to, returning
// whether it had to use the inverse direction.
func (e *Engine) resolveBase(from, to string) (baseRate, bool, error) {
	if b, ok := e.bases[[2]string{from, to}]; ok {
		return b, false, nil
	}
	if b, ok := e.bases[[2]string{to, from}]; ok {
		return b, true, nil
	}
	return baseRate{}, false, fmt.Errorf("%w: %s->%s", ErrNoRate, from, to)
}

// deriveRate applies the volatility model to a configured base rate,
// inverting it first if the lookup only found the reverse direction.
func (e *Engine) deriveRate(b baseRate, inverse bool, r *rng.RNG) money.Decimal {
	rate := b.rate
	if inverse {
		one := money.New(1, 0)
		rate = one.DivRound(rate, money.Precision)
	}

	if b.volatility == 0 {
		return rate
	}

	sigma := b.volatility / math.Sqrt(365)
	g := r.Gaussian(0, sigma)
	factor := math.Max(0.01, 1+g)
	return money.Round(rate.Mul(money.NewFromFloat(factor)))
}

// Convert converts amount from `from` to `to` on day d. Same-currency
// conversions return the amount unchanged and do not touch the cache,
// the RNG stream, or the audit log.
func (e *Engine) Convert(amount money.Decimal, from, to string, day int, r *rng.RNG, context string) (money.Decimal, error) {
	if from == to {
		return amount, nil
	}

	rate, err := e.GetDailyRate(from, to, day, r)
	if err != nil {
		return money.Decimal{}, err
	}

	converted := money.Round(amount.Mul(rate))

	if e.LogEnabled {
		e.log = append(e.log, ConversionLogEntry{
			Day:             day,
			From:            from,
			To:              to,
			OriginalAmount:  amount,
			ConvertedAmount: converted,
			RateUsed:        rate,
			Context:         context,
		})
	}

	return converted, nil
}
