// Package engine implements the deterministic financial trajectory
// simulator: a pure function of SimulationInput to SimulationOutput,
// advancing an in-memory SimulationState through a fixed per-day DAG of
// eight components.
package engine

import (
	"time"

	"finsim/internal/fxengine"
	"finsim/internal/money"
	"finsim/internal/tax"

	"github.com/google/uuid"
)

// Epoch is the fixed date day 0 maps to. Every snapshot.Date is derived
// from it; treat it as a constant unless a future revision changes it.
const Epoch = "2026-01-01"

// EngineVersion identifies the kernel revision in audit records. It has
// no effect on simulated values.
const EngineVersion = "1.0.0"

func epochTime() time.Time {
	t, err := time.Parse("2006-01-02", Epoch)
	if err != nil {
		// Epoch is a compile-time constant; a parse failure here would be
		// a programming error, not a runtime condition callers can act on.
		panic(err)
	}
	return t
}

// Recurrence enumerates how an IncomeStream or Expense repeats.
type Recurrence string

const (
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
	RecurrenceYearly   Recurrence = "yearly"
	RecurrenceOnce     Recurrence = "once"
)

// AssetType enumerates the four asset kinds the engine models.
type AssetType string

const (
	AssetLiquid          AssetType = "liquid"
	AssetIlliquid        AssetType = "illiquid"
	AssetYieldGenerating AssetType = "yield_generating"
	AssetVolatile        AssetType = "volatile"
)

// IncomeStream is a recurring (or one-off) source of income.
type IncomeStream struct {
	ID         uuid.UUID
	Name       string
	Amount     money.Decimal
	Currency   string
	Recurrence Recurrence
	StartDay   int
	EndDay     *int
}

// Expense is a recurring (or one-off) outflow.
type Expense struct {
	ID         uuid.UUID
	Name       string
	Amount     money.Decimal
	Currency   string
	Recurrence Recurrence
	StartDay   int
	EndDay     *int
	Essential  bool
}

// Asset is a holding the auto-liquidation policy and valuation step can
// act on.
type Asset struct {
	ID                 uuid.UUID
	Name               string
	Type               AssetType
	Value              money.Decimal
	Currency           string
	Volatility         float64
	YieldRate          float64
	LiquidationPenalty float64
	Locked             bool
	LockUntilDay       *int

	// CostBasis tracks the asset's original cost for the supplemental
	// totalUnrealizedGains output field; a zero CostBasis is taken as the
	// asset's starting Value. It is never consumed by the tax module,
	// which taxes realized gains only.
	CostBasis money.Decimal
}

// Liability is an amortizing debt.
type Liability struct {
	ID                uuid.UUID
	Name              string
	Principal         money.Decimal
	InterestRate      float64
	Currency          string
	MinimumPayment    money.Decimal
	RemainingTermDays int
}

// ExchangeRate is one configured base FX rate.
type ExchangeRate struct {
	From       string
	To         string
	Rate       money.Decimal
	Date       string
	Volatility float64
}

// MonteCarloConfig configures the Monte Carlo orchestrator.
type MonteCarloConfig struct {
	Runs               int
	PerturbationFactor float64 // accepted but not consumed by the kernel; see Design Notes
}

// SimulationInput is the complete request to the engine.
type SimulationInput struct {
	Seed             int64
	HorizonDays      int
	BaseCurrency     string
	InitialBalance   money.Decimal
	IncomeStreams    []IncomeStream
	Expenses         []Expense
	Assets           []Asset
	Liabilities      []Liability
	ExchangeRates    []ExchangeRate
	TaxConfig        *tax.Config
	MonteCarloConfig *MonteCarloConfig

	// ConversionLogEnabled controls whether the FX engine's audit log is
	// populated for this run.
	ConversionLogEnabled bool
}

// DailySnapshot is one day's derived state, per spec.
type DailySnapshot struct {
	Day                  int
	Date                 string
	Balance              money.Decimal
	TotalIncome          money.Decimal
	TotalExpenses        money.Decimal
	NetCashFlow          money.Decimal
	AssetNAV             money.Decimal
	TotalDebt            money.Decimal
	CreditScore          money.Decimal
	LiquidityRatio       money.Decimal
	ShockResilienceIndex int
	TaxPaid              money.Decimal
	CapitalGainsTax      money.Decimal

	// TotalUnrealizedGains is a supplemental observability field (see
	// SPEC_FULL §3.1): sum of (asset.Value - asset.CostBasis) across all
	// assets. It has no effect on tax, liquidation, or any other
	// component.
	TotalUnrealizedGains money.Decimal
}

// FinalBalance carries the Monte Carlo statistics over final balances.
type FinalBalance struct {
	Expected money.Decimal
	P5       money.Decimal
	P95      money.Decimal
}

// VibeState is a qualitative label derived from final state.
type VibeState string

const (
	VibeThriving  VibeState = "thriving"
	VibeStable    VibeState = "stable"
	VibeStrained  VibeState = "strained"
	VibeCritical  VibeState = "critical"
	VibeCollapsed VibeState = "collapsed"
)

// PetState is a pure function of VibeState.
type PetState string

const (
	PetHappy      PetState = "happy"
	PetContent    PetState = "content"
	PetAnxious    PetState = "anxious"
	PetDistressed PetState = "distressed"
	PetFainted    PetState = "fainted"
)

// SimulationOutput is the complete result of a run.
type SimulationOutput struct {
	Seed          int64
	HorizonDays   int
	BaseCurrency  string
	ComputedAt    time.Time
	EngineVersion string

	Snapshots            []DailySnapshot
	FinalBalance         FinalBalance
	CollapseProbability  float64
	CollapseDay          *int
	VibeState            VibeState
	PetState             PetState
	FinalCreditScore     money.Decimal
	ShockResilienceIndex int
	FinalNAV             money.Decimal
	FinalLiquidityRatio  money.Decimal

	ConversionLog []fxengine.ConversionLogEntry
}
