package entity

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type OrderType string
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

func (s OrderSide) IsValid() bool {
	return s == OrderSideBuy || s == OrderSideSell
}

func (t OrderType) IsValid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}

// FillMode is the fidelity level a simulator fills orders at.
type FillMode string

const (
	FillModeInstant    FillMode = "instant"
	FillModeRealistic  FillMode = "realistic"
	FillModeHistorical FillMode = "historical"
)

func (m FillMode) IsValid() bool {
	switch m {
	case FillModeInstant, FillModeRealistic, FillModeHistorical:
		return true
	default:
		return false
	}
}

// MarketContext is a sparse market snapshot. Every field is optional.
type MarketContext struct {
	Volatility null.Float `json:"volatility"`
	High       null.Float `json:"high"`
	Low        null.Float `json:"low"`
	Close      null.Float `json:"close"`
}

// HasCandleRange reports whether the next candle's high or low is known.
func (m *MarketContext) HasCandleRange() bool {
	return m != nil && (m.High.Valid || m.Low.Valid)
}

func (m *MarketContext) IsEmpty() bool {
	return m == nil || (!m.Volatility.Valid && !m.High.Valid && !m.Low.Valid && !m.Close.Valid)
}

func (m *MarketContext) Validate() error {
	if m == nil {
		return nil
	}

	if m.Volatility.Valid && (!isFinite(m.Volatility.Float64) || m.Volatility.Float64 < 0) {
		return fmt.Errorf("%w: volatility must be a non-negative number", ErrInvalidInput)
	}

	fields := map[string]null.Float{"high": m.High, "low": m.Low, "close": m.Close}
	for name, value := range fields {
		if value.Valid && (!isFinite(value.Float64) || value.Float64 <= 0) {
			return fmt.Errorf("%w: %s must be greater than zero", ErrInvalidInput, name)
		}
	}

	if m.High.Valid && m.Low.Valid && m.High.Float64 < m.Low.Float64 {
		return fmt.Errorf("%w: high must not be below low", ErrInvalidInput)
	}

	return nil
}

type OrderRequest struct {
	RequestID     string         `json:"request_id"`
	Exchange      string         `json:"exchange"`
	Symbol        string         `json:"symbol"`
	Type          OrderType      `json:"type"`
	Side          OrderSide      `json:"side"`
	Quantity      float64        `json:"quantity"`
	SignalPrice   float64        `json:"signal_price"`
	SignalTime    time.Time      `json:"signal_time"`
	MarketContext *MarketContext `json:"market_context,omitempty"`
}

// Validate rejects requests the fill algorithms cannot price.
func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	if !r.Side.IsValid() {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidInput, r.Side)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, r.Type)
	}
	if !isFinite(r.Quantity) || r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidInput)
	}
	if !isFinite(r.SignalPrice) || r.SignalPrice <= 0 {
		return fmt.Errorf("%w: signal price must be greater than zero", ErrInvalidInput)
	}

	return r.MarketContext.Validate()
}

type RealisticDiagnostics struct {
	SpreadPct           float64 `json:"spread_pct"`
	MarketImpactPct     float64 `json:"market_impact_pct"`
	VolatilityImpactPct float64 `json:"volatility_impact_pct"`
}

type HistoricalDiagnostics struct {
	CandleHigh  null.Float `json:"candle_high"`
	CandleLow   null.Float `json:"candle_low"`
	CandleClose null.Float `json:"candle_close"`
}

// ExecutionReport is the synthetic fill of one order. At most one of
// Realistic and Historical is set, matching Mode.
type ExecutionReport struct {
	ID                   string                 `json:"id"`
	RequestID            string                 `json:"request_id,omitempty"`
	Symbol               string                 `json:"symbol"`
	Side                 OrderSide              `json:"side"`
	Type                 OrderType              `json:"type"`
	Mode                 FillMode               `json:"mode"`
	SignalPrice          float64                `json:"signal_price"`
	Quantity             float64                `json:"quantity"`
	FilledPrice          float64                `json:"filled_price"`
	FilledQuantity       float64                `json:"filled_quantity"`
	SlippagePct          float64                `json:"slippage_pct"`
	ExecutionTimeMs      int64                  `json:"execution_time_ms"`
	PartialFill          bool                   `json:"partial_fill"`
	FillPercentage       float64                `json:"fill_percentage"`
	SignalTime           time.Time              `json:"signal_time"`
	ExecutionStartedAt   time.Time              `json:"execution_started_at"`
	ExecutionCompletedAt time.Time              `json:"execution_completed_at"`
	Realistic            *RealisticDiagnostics  `json:"realistic,omitempty"`
	Historical           *HistoricalDiagnostics `json:"historical,omitempty"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
