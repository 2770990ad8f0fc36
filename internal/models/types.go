package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnknownAsset = errors.New("unknown asset")

type AssetType string

const (
	AssetTypeCrypto     AssetType = "crypto"
	AssetTypeDeFiPool   AssetType = "defi_pool"
	AssetTypeRWABond    AssetType = "rwa_bond"
	AssetTypeRWACredit  AssetType = "rwa_credit"
	AssetTypeStablecoin AssetType = "stablecoin"
	AssetTypeOther      AssetType = "other"
)

var assetTypes = []AssetType{
	AssetTypeCrypto,
	AssetTypeDeFiPool,
	AssetTypeRWABond,
	AssetTypeRWACredit,
	AssetTypeStablecoin,
	AssetTypeOther,
}

// ParseAssetType resolves a case-insensitive asset type name.
func ParseAssetType(name string) (AssetType, error) {
	normalized := AssetType(strings.ToLower(strings.TrimSpace(name)))
	for _, t := range assetTypes {
		if t == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: asset type %q", ErrUnknownAsset, name)
}

type Asset struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Type         AssetType       `json:"asset_type"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Volatility   decimal.Decimal `json:"volatility"`
	YieldRate    decimal.Decimal `json:"yield_rate"`
}

type Position struct {
	Asset        Asset           `json:"asset"`
	Quantity     decimal.Decimal `json:"quantity"`
	EntryPrice   decimal.Decimal `json:"entry_price"`
	CurrentValue decimal.Decimal `json:"current_value"`
}

type Portfolio struct {
	Positions  map[string]*Position `json:"positions"`
	Cash       decimal.Decimal      `json:"cash"`
	TotalValue decimal.Decimal      `json:"total_value"`
	Timestamp  time.Time            `json:"timestamp"`
}

// PortfolioSnapshot is appended once per simulation step and never mutated.
type PortfolioSnapshot struct {
	Timestamp      time.Time       `json:"timestamp"`
	TotalValue     decimal.Decimal `json:"total_value"`
	Cash           decimal.Decimal `json:"cash"`
	PositionsValue decimal.Decimal `json:"positions_value"`
	PositionsCount int             `json:"positions_count"`
}

// RoutingDecision moves Amount of cash from SourceAsset into TargetAsset.
// RiskScore is advisory and never gates execution.
type RoutingDecision struct {
	Timestamp     time.Time       `json:"timestamp"`
	SourceAsset   string          `json:"source_asset"`
	TargetAsset   string          `json:"target_asset"`
	Amount        decimal.Decimal `json:"amount"`
	ExpectedYield decimal.Decimal `json:"expected_yield"`
	RiskScore     float64         `json:"risk_score"`
	ExecutionCost decimal.Decimal `json:"execution_cost"`
}

type SimulationResults struct {
	RunID                string              `json:"run_id"`
	Strategy             string              `json:"strategy"`
	Steps                int                 `json:"steps"`
	InitialValue         decimal.Decimal     `json:"initial_value"`
	FinalValue           decimal.Decimal     `json:"final_value"`
	TotalReturn          decimal.Decimal     `json:"total_return"`
	TotalReturnPct       float64             `json:"total_return_pct"`
	SharpeRatio          float64             `json:"sharpe_ratio"`
	MaxDrawdownPct       float64             `json:"max_drawdown_pct"`
	VolatilityPct        float64             `json:"volatility_pct"`
	ValueAtRisk          decimal.Decimal     `json:"value_at_risk"`
	ConditionalVaR       decimal.Decimal     `json:"conditional_var"`
	DiversificationScore float64             `json:"diversification_score"`
	PortfolioYield       decimal.Decimal     `json:"portfolio_yield"`
	PortfolioRisk        decimal.Decimal     `json:"portfolio_risk"`
	PortfolioHistory     []PortfolioSnapshot `json:"portfolio_history"`
}

type MonteCarloResults struct {
	RunID           string                  `json:"run_id"`
	Iterations      int                     `json:"iterations"`
	FailedTrials    int                     `json:"failed_trials"`
	ExpectedValue   decimal.Decimal         `json:"expected_value"`
	ValueAtRisk     decimal.Decimal         `json:"value_at_risk"`
	ConditionalVaR  decimal.Decimal         `json:"conditional_var"`
	MaxDrawdownPct  float64                 `json:"max_drawdown_pct"`
	ConfidenceLevel float64                 `json:"confidence_level"`
	Distribution    []float64               `json:"distribution"`
	Percentiles     map[int]decimal.Decimal `json:"percentiles"`
}

type BacktestResults struct {
	RunID               string          `json:"run_id"`
	Strategy            string          `json:"strategy"`
	Steps               int             `json:"steps"`
	StartDate           time.Time       `json:"start_date"`
	EndDate             time.Time       `json:"end_date"`
	InitialValue        decimal.Decimal `json:"initial_value"`
	FinalValue          decimal.Decimal `json:"final_value"`
	TotalReturnPct      float64         `json:"total_return_pct"`
	AnnualizedReturnPct float64         `json:"annualized_return_pct"`
	VolatilityPct       float64         `json:"volatility_pct"`
	SharpeRatio         float64         `json:"sharpe_ratio"`
	MaxDrawdownPct      float64         `json:"max_drawdown_pct"`
	WinRate             float64         `json:"win_rate"`
	ProfitFactor        float64         `json:"profit_factor"`
	BenchmarkSymbol     string          `json:"benchmark_symbol"`
	BenchmarkReturnPct  float64         `json:"benchmark_return_pct"`
	Trades              []Trade         `json:"trades"`
}

// Trade is a round trip on one asset. Exit fields stay nil while open.
type Trade struct {
	EntryTime  time.Time        `json:"entry_time"`
	ExitTime   *time.Time       `json:"exit_time,omitempty"`
	Asset      string           `json:"asset"`
	Quantity   decimal.Decimal  `json:"quantity"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price,omitempty"`
	PnL        *decimal.Decimal `json:"pnl,omitempty"`
	PnLPct     *float64         `json:"pnl_pct,omitempty"`
}

type MarketData struct {
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
}

type RiskParameters struct {
	MaxPositionSizePct float64 `json:"max_position_size_pct"`
	MaxLeverage        float64 `json:"max_leverage"`
	StopLossPct        float64 `json:"stop_loss_pct"`
	TakeProfitPct      float64 `json:"take_profit_pct"`
	MaxDrawdownPct     float64 `json:"max_drawdown_pct"`
	CorrelationLimit   float64 `json:"correlation_limit"`
}

func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MaxPositionSizePct: 20.0,
		MaxLeverage:        1.0,
		StopLossPct:        5.0,
		TakeProfitPct:      10.0,
		MaxDrawdownPct:     15.0,
		CorrelationLimit:   0.7,
	}
}

type StrategyConfig struct {
	Name                   string         `json:"name"`
	RiskParameters         RiskParameters `json:"risk_parameters"`
	RebalanceFrequencyDays int            `json:"rebalance_frequency_days"`
	MinYieldThreshold      float64        `json:"min_yield_threshold"`
	MaxSlippagePct         float64        `json:"max_slippage_pct"`
	PreferredAssetTypes    []AssetType    `json:"preferred_asset_types"`
}
