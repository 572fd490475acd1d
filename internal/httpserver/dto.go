package httpserver

import (
	"encoding/json"
	"fmt"

	"finsim/internal/engine"
	"finsim/internal/money"
	"finsim/internal/tax"
	"finsim/internal/validate"

	"github.com/google/uuid"
)

// DecodeSimulationInput parses and validates a JSON-encoded
// SimulationInput, the same request shape /simulate accepts. It is
// exported for the CLI collaborator, which has no HTTP layer of its
// own to route the decode through.
func DecodeSimulationInput(raw []byte) (engine.SimulationInput, error) {
	var dto simulationInputDTO
	if err := decodeStrict(raw, &dto); err != nil {
		return engine.SimulationInput{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := validate.Struct(&dto); err != nil {
		return engine.SimulationInput{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return toEngineInput(dto), nil
}

// EncodeSimulationOutput renders a SimulationOutput through the same
// float-at-the-boundary response shape the HTTP surface returns.
func EncodeSimulationOutput(out engine.SimulationOutput) ([]byte, error) {
	return json.MarshalIndent(toOutputResponse(out), "", "  ")
}

// incomeStreamDTO through simulationInputDTO mirror engine.SimulationInput
// field-for-field but carry validator tags and decimal-as-string
// encoding, since money.Decimal's native JSON form would round-trip
// through a float and lose precision.
type incomeStreamDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	Currency   string `json:"currency" validate:"required,len=3"`
	Recurrence string `json:"recurrence" validate:"required,oneof=daily weekly biweekly monthly yearly once"`
	StartDay   int    `json:"startDay" validate:"gte=0"`
	EndDay     *int   `json:"endDay,omitempty"`
}

type expenseDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	Currency   string `json:"currency" validate:"required,len=3"`
	Recurrence string `json:"recurrence" validate:"required,oneof=daily weekly biweekly monthly yearly once"`
	StartDay   int    `json:"startDay" validate:"gte=0"`
	EndDay     *int   `json:"endDay,omitempty"`
	Essential  bool   `json:"essential"`
}

type assetDTO struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name" validate:"required"`
	Type               string  `json:"type" validate:"required,oneof=liquid illiquid yield_generating volatile"`
	Value              string  `json:"value" validate:"required"`
	Currency           string  `json:"currency" validate:"required,len=3"`
	Volatility         float64 `json:"volatility" validate:"gte=0,lte=1"`
	YieldRate          float64 `json:"yieldRate"`
	LiquidationPenalty float64 `json:"liquidationPenalty" validate:"gte=0,lte=1"`
	Locked             bool    `json:"locked"`
	LockUntilDay       *int    `json:"lockUntilDay,omitempty"`
	CostBasis          string  `json:"costBasis,omitempty"`
}

type liabilityDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name" validate:"required"`
	Principal         string  `json:"principal" validate:"required"`
	InterestRate      float64 `json:"interestRate" validate:"gte=0"`
	Currency          string  `json:"currency" validate:"required,len=3"`
	MinimumPayment    string  `json:"minimumPayment"`
	RemainingTermDays int     `json:"remainingTermDays" validate:"gt=0"`
}

type exchangeRateDTO struct {
	From       string  `json:"from" validate:"required,len=3"`
	To         string  `json:"to" validate:"required,len=3"`
	Rate       string  `json:"rate" validate:"required"`
	Date       string  `json:"date"`
	Volatility float64 `json:"volatility" validate:"gte=0,lte=1"`
}

type taxBracketDTO struct {
	UpperBound string  `json:"upperBound" validate:"required"`
	Rate       float64 `json:"rate" validate:"gte=0,lte=1"`
}

type taxConfigDTO struct {
	Brackets         []taxBracketDTO `json:"brackets" validate:"required,min=1,dive"`
	CapitalGainsRate float64         `json:"capitalGainsRate" validate:"gte=0,lte=1"`
	Currency         string          `json:"currency" validate:"required,len=3"`
}

type monteCarloConfigDTO struct {
	Runs               int     `json:"runs" validate:"required,gte=1,lte=1000"`
	PerturbationFactor float64 `json:"perturbationFactor" validate:"gte=0,lte=0.5"`
}

// simulationInputDTO is the /simulate request body.
type simulationInputDTO struct {
	Seed                 int64                `json:"seed"`
	HorizonDays          int                  `json:"horizonDays" validate:"required,gte=1,lte=3650"`
	BaseCurrency         string               `json:"baseCurrency" validate:"required,len=3"`
	InitialBalance       string               `json:"initialBalance" validate:"required"`
	IncomeStreams        []incomeStreamDTO    `json:"incomeStreams" validate:"dive"`
	Expenses             []expenseDTO         `json:"expenses" validate:"dive"`
	Assets               []assetDTO           `json:"assets" validate:"dive"`
	Liabilities          []liabilityDTO       `json:"liabilities" validate:"dive"`
	ExchangeRates        []exchangeRateDTO    `json:"exchangeRates" validate:"dive"`
	TaxConfig            *taxConfigDTO        `json:"taxConfig,omitempty"`
	MonteCarloConfig     *monteCarloConfigDTO `json:"monteCarloConfig,omitempty"`
	ConversionLogEnabled bool                 `json:"conversionLogEnabled"`
}

// branchRequestDTO is the shared /simulate/branch and /simulate/compare
// request body.
type branchRequestDTO struct {
	BaseInput   simulationInputDTO `json:"baseInput" validate:"required"`
	BranchAtDay int                `json:"branchAtDay" validate:"gte=0"`
	// ModifiedInput deliberately carries no nested validation ("-"):
	// it is a partial SimulationInput whose zero-valued fields are
	// meant to be left unset, and mergeInput's merge step only copies
	// the fields the caller actually provided.
	ModifiedInput simulationInputDTO `json:"modifiedInput" validate:"-"`
}

func mustDecimal(s string) money.Decimal {
	if s == "" {
		return money.Zero
	}
	d, err := money.NewFromString(s)
	if err != nil {
		return money.Zero
	}
	return d
}

func toEngineInput(dto simulationInputDTO) engine.SimulationInput {
	input := engine.SimulationInput{
		Seed:                 dto.Seed,
		HorizonDays:          dto.HorizonDays,
		BaseCurrency:         dto.BaseCurrency,
		InitialBalance:       mustDecimal(dto.InitialBalance),
		ConversionLogEnabled: dto.ConversionLogEnabled,
	}

	for _, s := range dto.IncomeStreams {
		id, _ := uuid.Parse(s.ID)
		input.IncomeStreams = append(input.IncomeStreams, engine.IncomeStream{
			ID:         id,
			Name:       s.Name,
			Amount:     mustDecimal(s.Amount),
			Currency:   s.Currency,
			Recurrence: engine.Recurrence(s.Recurrence),
			StartDay:   s.StartDay,
			EndDay:     s.EndDay,
		})
	}

	for _, e := range dto.Expenses {
		id, _ := uuid.Parse(e.ID)
		input.Expenses = append(input.Expenses, engine.Expense{
			ID:         id,
			Name:       e.Name,
			Amount:     mustDecimal(e.Amount),
			Currency:   e.Currency,
			Recurrence: engine.Recurrence(e.Recurrence),
			StartDay:   e.StartDay,
			EndDay:     e.EndDay,
			Essential:  e.Essential,
		})
	}

	for _, a := range dto.Assets {
		id, _ := uuid.Parse(a.ID)
		input.Assets = append(input.Assets, engine.Asset{
			ID:                 id,
			Name:               a.Name,
			Type:               engine.AssetType(a.Type),
			Value:              mustDecimal(a.Value),
			Currency:           a.Currency,
			Volatility:         a.Volatility,
			YieldRate:          a.YieldRate,
			LiquidationPenalty: a.LiquidationPenalty,
			Locked:             a.Locked,
			LockUntilDay:       a.LockUntilDay,
			CostBasis:          mustDecimal(a.CostBasis),
		})
	}

	for _, l := range dto.Liabilities {
		id, _ := uuid.Parse(l.ID)
		input.Liabilities = append(input.Liabilities, engine.Liability{
			ID:                id,
			Name:              l.Name,
			Principal:         mustDecimal(l.Principal),
			InterestRate:      l.InterestRate,
			Currency:          l.Currency,
			MinimumPayment:    mustDecimal(l.MinimumPayment),
			RemainingTermDays: l.RemainingTermDays,
		})
	}

	for _, r := range dto.ExchangeRates {
		input.ExchangeRates = append(input.ExchangeRates, engine.ExchangeRate{
			From:       r.From,
			To:         r.To,
			Rate:       mustDecimal(r.Rate),
			Date:       r.Date,
			Volatility: r.Volatility,
		})
	}

	if dto.TaxConfig != nil {
		cfg := &tax.Config{
			CapitalGainsRate: dto.TaxConfig.CapitalGainsRate,
			Currency:         dto.TaxConfig.Currency,
		}
		for _, b := range dto.TaxConfig.Brackets {
			cfg.Brackets = append(cfg.Brackets, tax.Bracket{
				UpperBound: mustDecimal(b.UpperBound),
				Rate:       b.Rate,
			})
		}
		input.TaxConfig = cfg
	}

	if dto.MonteCarloConfig != nil {
		input.MonteCarloConfig = &engine.MonteCarloConfig{
			Runs:               dto.MonteCarloConfig.Runs,
			PerturbationFactor: dto.MonteCarloConfig.PerturbationFactor,
		}
	}

	return input
}
