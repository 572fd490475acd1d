package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"finsim/internal/money"

	"golang.org/x/sync/errgroup"
)

// maxMonteCarloWorkers bounds how many simulation runs execute
// concurrently. Each run is CPU-bound and allocates its own snapshot
// trace, so unbounded fan-out on a large horizon/run-count combination
// would exhaust memory well before it exhausts CPU.
const maxMonteCarloWorkers = 16

// simulateMonteCarlo runs input.MonteCarloConfig.Runs independent
// simulations and reduces them into a single SimulationOutput. Run 0
// always executes at input.Seed and its snapshot trace, conversion
// log, vibe, pet, and credit/NAV/liquidity fields are the ones carried
// into the final output; runs 1..N-1 execute at seed+i purely to
// contribute to the FinalBalance/CollapseProbability statistics.
//
// Results are written into a pre-sized slice by index, exactly as the
// agent executor does it, so determinism never depends on goroutine
// completion order.
func simulateMonteCarlo(input SimulationInput) (SimulationOutput, error) {
	runs := input.MonteCarloConfig.Runs

	outputs := make([]SimulationOutput, runs)
	primarySeed := input.Seed
	outputs[0], _ = SimulateSingleRun(input, &primarySeed)

	if runs == 1 {
		return outputs[0], nil
	}

	g, _ := errgroup.WithContext(context.Background())
	sem := make(chan struct{}, maxMonteCarloWorkers)

	for i := 1; i < runs; i++ {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("engine: monte carlo run %d panicked: %v", i, r)
				}
			}()

			sem <- struct{}{}
			defer func() { <-sem }()

			seed := input.Seed + int64(i)
			out, runErr := SimulateSingleRun(input, &seed)
			if runErr != nil {
				return fmt.Errorf("engine: monte carlo run %d: %w", i, runErr)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return SimulationOutput{}, err
	}

	return reduceMonteCarloOutputs(outputs), nil
}

// reduceMonteCarloOutputs combines N independent single-run outputs
// into the primary run's trace plus aggregate final-balance statistics
// and collapse probability across all runs. Reduction walks outputs in
// index order, never goroutine-completion order, so the result is
// identical regardless of how the runs were scheduled.
func reduceMonteCarloOutputs(outputs []SimulationOutput) SimulationOutput {
	primary := outputs[0]

	finals := make([]money.Decimal, len(outputs))
	collapses := 0
	for i, o := range outputs {
		finals[i] = o.FinalBalance.Expected
		if o.CollapseDay != nil {
			collapses++
		}
	}

	primary.FinalBalance = FinalBalance{
		Expected: mean(finals),
		P5:       percentile(finals, 0.05),
		P95:      percentile(finals, 0.95),
	}
	primary.CollapseProbability = float64(collapses) / float64(len(outputs))

	return primary
}

func mean(values []money.Decimal) money.Decimal {
	sum := money.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return money.Round(sum.DivRound(money.New(int64(len(values)), 0), money.Precision))
}

// percentile returns the value at fraction p in the sorted slice using
// nearest-rank indexing (no interpolation), without disturbing the
// caller's slice: index = floor(p * n), clamped to the last element.
func percentile(values []money.Decimal, p float64) money.Decimal {
	sorted := make([]money.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	idx := int(math.Floor(p * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
