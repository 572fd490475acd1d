package store

import (
	"context"
	"testing"
	"time"

	"finsim/internal/engine"

	"github.com/stretchr/testify/assert"
)

func TestNilStoreIsNoOp(t *testing.T) {
	var s *RunStore
	assert.NoError(t, s.EnsureSchema(context.Background()))
	s.RecordAsync(engine.SimulationOutput{}, nil)
	// RecordAsync on a nil store must return without scheduling any
	// goroutine; give the test a moment in case a bug queued one.
	time.Sleep(10 * time.Millisecond)
}

func TestStoreWithNilPoolIsNoOp(t *testing.T) {
	s := New(nil, nil)
	assert.NoError(t, s.EnsureSchema(context.Background()))
	s.RecordRun(context.Background(), engine.SimulationOutput{Seed: 1}, nil)
}
