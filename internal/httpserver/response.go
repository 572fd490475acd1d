package httpserver

import (
	"time"

	"finsim/internal/engine"
	"finsim/internal/fxengine"
	"finsim/internal/money"
)

// Decimal fields cross into JSON as float64 here: the Design Notes
// reserve exact decimal arithmetic for everything inside the engine,
// and single out output serialization as the one point a display
// double is acceptable.

type daySnapshotResponse struct {
	Day                  int     `json:"day"`
	Date                 string  `json:"date"`
	Balance              float64 `json:"balance"`
	TotalIncome          float64 `json:"totalIncome"`
	TotalExpenses        float64 `json:"totalExpenses"`
	NetCashFlow          float64 `json:"netCashFlow"`
	AssetNAV             float64 `json:"assetNav"`
	TotalDebt            float64 `json:"totalDebt"`
	CreditScore          float64 `json:"creditScore"`
	LiquidityRatio       float64 `json:"liquidityRatio"`
	ShockResilienceIndex int     `json:"shockResilienceIndex"`
	TaxPaid              float64 `json:"taxPaid"`
	CapitalGainsTax      float64 `json:"capitalGainsTax"`
	TotalUnrealizedGains float64 `json:"totalUnrealizedGains"`
}

type finalBalanceResponse struct {
	Expected float64 `json:"expected"`
	P5       float64 `json:"p5"`
	P95      float64 `json:"p95"`
}

type conversionLogEntryResponse struct {
	Day             int     `json:"day"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	OriginalAmount  float64 `json:"originalAmount"`
	ConvertedAmount float64 `json:"convertedAmount"`
	RateUsed        float64 `json:"rateUsed"`
	Context         string  `json:"context"`
}

type simulationOutputResponse struct {
	Seed          int64     `json:"seed"`
	HorizonDays   int       `json:"horizonDays"`
	BaseCurrency  string    `json:"baseCurrency"`
	ComputedAt    time.Time `json:"computedAt"`
	EngineVersion string    `json:"engineVersion"`

	Snapshots            []daySnapshotResponse        `json:"snapshots"`
	FinalBalance         finalBalanceResponse         `json:"finalBalance"`
	CollapseProbability  float64                      `json:"collapseProbability"`
	CollapseDay          *int                         `json:"collapseDay,omitempty"`
	VibeState            string                       `json:"vibeState"`
	PetState             string                       `json:"petState"`
	FinalCreditScore     float64                      `json:"finalCreditScore"`
	ShockResilienceIndex int                          `json:"shockResilienceIndex"`
	FinalNAV             float64                      `json:"finalNav"`
	FinalLiquidityRatio  float64                      `json:"finalLiquidityRatio"`
	ConversionLog        []conversionLogEntryResponse `json:"conversionLog,omitempty"`
}

func toSnapshotResponse(s engine.DailySnapshot) daySnapshotResponse {
	return daySnapshotResponse{
		Day:                  s.Day,
		Date:                 s.Date,
		Balance:              money.ToFloat64(s.Balance),
		TotalIncome:          money.ToFloat64(s.TotalIncome),
		TotalExpenses:        money.ToFloat64(s.TotalExpenses),
		NetCashFlow:          money.ToFloat64(s.NetCashFlow),
		AssetNAV:             money.ToFloat64(s.AssetNAV),
		TotalDebt:            money.ToFloat64(s.TotalDebt),
		CreditScore:          money.ToFloat64(s.CreditScore),
		LiquidityRatio:       money.ToFloat64(s.LiquidityRatio),
		ShockResilienceIndex: s.ShockResilienceIndex,
		TaxPaid:              money.ToFloat64(s.TaxPaid),
		CapitalGainsTax:      money.ToFloat64(s.CapitalGainsTax),
		TotalUnrealizedGains: money.ToFloat64(s.TotalUnrealizedGains),
	}
}

func toConversionLogResponse(log []fxengine.ConversionLogEntry) []conversionLogEntryResponse {
	if len(log) == 0 {
		return nil
	}
	out := make([]conversionLogEntryResponse, len(log))
	for i, e := range log {
		out[i] = conversionLogEntryResponse{
			Day:             e.Day,
			From:            e.From,
			To:              e.To,
			OriginalAmount:  money.ToFloat64(e.OriginalAmount),
			ConvertedAmount: money.ToFloat64(e.ConvertedAmount),
			RateUsed:        money.ToFloat64(e.RateUsed),
			Context:         e.Context,
		}
	}
	return out
}

func toOutputResponse(out engine.SimulationOutput) simulationOutputResponse {
	snaps := make([]daySnapshotResponse, len(out.Snapshots))
	for i, s := range out.Snapshots {
		snaps[i] = toSnapshotResponse(s)
	}

	return simulationOutputResponse{
		Seed:          out.Seed,
		HorizonDays:   out.HorizonDays,
		BaseCurrency:  out.BaseCurrency,
		ComputedAt:    out.ComputedAt,
		EngineVersion: out.EngineVersion,
		Snapshots:     snaps,
		FinalBalance: finalBalanceResponse{
			Expected: money.ToFloat64(out.FinalBalance.Expected),
			P5:       money.ToFloat64(out.FinalBalance.P5),
			P95:      money.ToFloat64(out.FinalBalance.P95),
		},
		CollapseProbability:  out.CollapseProbability,
		CollapseDay:          out.CollapseDay,
		VibeState:            string(out.VibeState),
		PetState:             string(out.PetState),
		FinalCreditScore:     money.ToFloat64(out.FinalCreditScore),
		ShockResilienceIndex: out.ShockResilienceIndex,
		FinalNAV:             money.ToFloat64(out.FinalNAV),
		FinalLiquidityRatio:  money.ToFloat64(out.FinalLiquidityRatio),
		ConversionLog:        toConversionLogResponse(out.ConversionLog),
	}
}

type stateChangeResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type branchDeltasResponse struct {
	FinalBalanceDiff         float64             `json:"finalBalanceDiff"`
	CollapseProbabilityDiff  float64             `json:"collapseProbabilityDiff"`
	CreditScoreDiff          float64             `json:"creditScoreDiff"`
	NAVDiff                  float64             `json:"navDiff"`
	LiquidityRatioDiff       float64             `json:"liquidityRatioDiff"`
	ShockResilienceIndexDiff int                 `json:"shockResilienceIndexDiff"`
	VibeStateChange          stateChangeResponse `json:"vibeStateChange"`
	PetStateChange           stateChangeResponse `json:"petStateChange"`
}

func toDeltasResponse(d engine.BranchDeltas) branchDeltasResponse {
	return branchDeltasResponse{
		FinalBalanceDiff:         money.ToFloat64(d.FinalBalanceDiff),
		CollapseProbabilityDiff:  d.CollapseProbabilityDiff,
		CreditScoreDiff:          money.ToFloat64(d.CreditScoreDiff),
		NAVDiff:                  money.ToFloat64(d.NAVDiff),
		LiquidityRatioDiff:       money.ToFloat64(d.LiquidityRatioDiff),
		ShockResilienceIndexDiff: d.ShockResilienceIndexDiff,
		VibeStateChange:          stateChangeResponse{From: d.VibeStateChange.From, To: d.VibeStateChange.To},
		PetStateChange:           stateChangeResponse{From: d.PetStateChange.From, To: d.PetStateChange.To},
	}
}
