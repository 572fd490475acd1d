package engine

import (
	"time"
)

// runOnce materializes a SimulationState from input, advances it
// exactly input.HorizonDays times under the fixed DAG order, and
// returns the resulting snapshot trace plus the final state for
// aggregate-field derivation. It is the only place the horizon loop
// lives.
func runOnce(input SimulationInput) ([]DailySnapshot, *state, error) {
	order, err := kernelOrder()
	if err != nil {
		return nil, nil, err
	}

	s := newState(input)
	snapshots := make([]DailySnapshot, input.HorizonDays)

	for d := 0; d < input.HorizonDays; d++ {
		if err := s.stepDay(d, order); err != nil {
			return nil, nil, err
		}
		snapshots[d] = s.snapshot()
	}

	return snapshots, s, nil
}

// SimulateSingleRun runs exactly one simulation, optionally overriding
// the seed (used by the Monte Carlo orchestrator and left nil for a
// plain single run). It is a pure function of its arguments.
func SimulateSingleRun(input SimulationInput, seedOverride *int64) (SimulationOutput, error) {
	if seedOverride != nil {
		input.Seed = *seedOverride
	}
	if err := validateInput(input); err != nil {
		return SimulationOutput{}, err
	}

	snapshots, s, err := runOnce(input)
	if err != nil {
		return SimulationOutput{}, err
	}

	vibe := deriveVibe(s)
	pet := petForVibe(vibe)

	finalBalance := s.balance
	collapseProbability := 0.0
	if s.collapseDay != nil {
		collapseProbability = 1.0
	}

	return SimulationOutput{
		Seed:          input.Seed,
		HorizonDays:   input.HorizonDays,
		BaseCurrency:  input.BaseCurrency,
		ComputedAt:    time.Now().UTC(),
		EngineVersion: EngineVersion,
		Snapshots:     snapshots,
		FinalBalance: FinalBalance{
			Expected: finalBalance,
			P5:       finalBalance,
			P95:      finalBalance,
		},
		CollapseProbability:  collapseProbability,
		CollapseDay:          s.collapseDay,
		VibeState:            vibe,
		PetState:             pet,
		FinalCreditScore:     s.creditScore,
		ShockResilienceIndex: s.shockResilienceIndex(),
		FinalNAV:             s.assetNAV(),
		FinalLiquidityRatio:  s.liquidityRatio(),
		ConversionLog:        s.fx.ConversionLog(),
	}, nil
}

// validateInput enforces the invariants the engine assumes its caller
// (the schema/validation layer) has already checked, as a defensive
// backstop so a malformed input fails fast with ErrInvariant rather
// than producing a subtly wrong trajectory.
func validateInput(input SimulationInput) error {
	if input.HorizonDays < 1 || input.HorizonDays > 3650 {
		return wrapf(ErrInvariant, "horizonDays %d out of range [1,3650]", input.HorizonDays)
	}
	if input.BaseCurrency == "" {
		return wrapf(ErrInvariant, "baseCurrency is required")
	}
	for _, ie := range input.IncomeStreams {
		if ie.EndDay != nil && *ie.EndDay < ie.StartDay {
			return wrapf(ErrInvariant, "income stream %s: endDay before startDay", ie.Name)
		}
	}
	for _, e := range input.Expenses {
		if e.EndDay != nil && *e.EndDay < e.StartDay {
			return wrapf(ErrInvariant, "expense %s: endDay before startDay", e.Name)
		}
	}
	return nil
}

// Simulate is the engine's top-level entry point: a plain single run if
// MonteCarloConfig is absent or Runs <= 1, otherwise the Monte Carlo
// fan-out described in SPEC_FULL §4.7.
func Simulate(input SimulationInput) (SimulationOutput, error) {
	if input.MonteCarloConfig == nil || input.MonteCarloConfig.Runs <= 1 {
		return SimulateSingleRun(input, nil)
	}
	return simulateMonteCarlo(input)
}
