package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIsBoundedAndDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 1000; i++ {
		va := a.Next()
		vb := b.Next()
		require.Equal(t, va, vb, "same seed must yield same stream at draw %d", i)
		assert.GreaterOrEqual(t, va, 0.0)
		assert.Less(t, va, 1.0)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)

	same := true
	for i := 0; i < 16; i++ {
		if a.Next() != b.Next() {
			same = false
			break
		}
	}
	assert.False(t, same, "different seeds should not produce an identical prefix")
}

func TestRangeBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 500; i++ {
		v := r.Range(-5, 10)
		assert.GreaterOrEqual(t, v, -5.0)
		assert.Less(t, v, 10.0)
	}
}

func TestGaussianConsumesExactlyTwoDraws(t *testing.T) {
	withGaussian := New(99)
	withGaussian.Gaussian(0, 1)
	nextAfterGaussian := withGaussian.Next()

	reference := New(99)
	reference.Next()
	reference.Next()
	nextAfterTwoDraws := reference.Next()

	assert.Equal(t, nextAfterTwoDraws, nextAfterGaussian,
		"Gaussian must consume exactly two uniform draws with no discard")
}

func TestGaussianDistributionShape(t *testing.T) {
	r := New(1234)
	const n = 20000
	sum := 0.0
	sumSq := 0.0
	for i := 0; i < n; i++ {
		v := r.Gaussian(0, 1)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	assert.InDelta(t, 0.0, mean, 0.05)
	assert.InDelta(t, 1.0, variance, 0.1)
}

func TestGaussianIsFinite(t *testing.T) {
	r := New(0)
	for i := 0; i < 1000; i++ {
		v := r.Gaussian(0, 0.5)
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}
}
