package simulator

import "time"

const (
	defaultRealisticMinDelay          = 50 * time.Millisecond
	defaultRealisticMaxDelay          = 200 * time.Millisecond
	defaultMinSpread                  = 0.0002 // 0.02%
	defaultMaxSpread                  = 0.0005 // 0.05%
	defaultMarketImpactRate           = 0.001  // per 100 units
	defaultMarketImpactCap            = 0.002  // 0.2%
	defaultVolatilityRate             = 0.0005
	defaultPartialFillMinQuantity     = 10
	defaultPartialFillProbability     = 0.05
	defaultPartialFillMinPercentage   = 80
	defaultPartialFillMaxPercentage   = 95
	defaultHistoricalMinDelay         = 100 * time.Millisecond
	defaultHistoricalMaxDelay         = 500 * time.Millisecond
	defaultHistoricalMinInterpolation = 0.3
	defaultHistoricalMaxInterpolation = 0.7
)

// RealisticParams tunes the spread, impact and partial fill model. Spread,
// impact and volatility values are fractions, partial fill bounds are
// percentages.
type RealisticParams struct {
	MinDelay                 time.Duration
	MaxDelay                 time.Duration
	MinSpread                float64
	MaxSpread                float64
	MarketImpactRate         float64
	MarketImpactCap          float64
	VolatilityRate           float64
	PartialFillMinQuantity   float64
	PartialFillProbability   float64
	PartialFillMinPercentage float64
	PartialFillMaxPercentage float64
}

func DefaultRealisticParams() RealisticParams {
	return RealisticParams{
		MinDelay:                 defaultRealisticMinDelay,
		MaxDelay:                 defaultRealisticMaxDelay,
		MinSpread:                defaultMinSpread,
		MaxSpread:                defaultMaxSpread,
		MarketImpactRate:         defaultMarketImpactRate,
		MarketImpactCap:          defaultMarketImpactCap,
		VolatilityRate:           defaultVolatilityRate,
		PartialFillMinQuantity:   defaultPartialFillMinQuantity,
		PartialFillProbability:   defaultPartialFillProbability,
		PartialFillMinPercentage: defaultPartialFillMinPercentage,
		PartialFillMaxPercentage: defaultPartialFillMaxPercentage,
	}
}

// normalized replaces out of range fields from DefaultRealisticParams and
// lifts each max up to its min. Zero is a valid value and switches the
// matching term off.
func (p RealisticParams) normalized() RealisticParams {
	def := DefaultRealisticParams()

	if p.MinDelay < 0 {
		p.MinDelay = def.MinDelay
	}
	if p.MaxDelay < 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.MinDelay {
		p.MaxDelay = p.MinDelay
	}
	if p.MinSpread < 0 {
		p.MinSpread = def.MinSpread
	}
	if p.MaxSpread < 0 {
		p.MaxSpread = def.MaxSpread
	}
	if p.MaxSpread < p.MinSpread {
		p.MaxSpread = p.MinSpread
	}
	if p.MarketImpactRate < 0 {
		p.MarketImpactRate = def.MarketImpactRate
	}
	if p.MarketImpactCap < 0 {
		p.MarketImpactCap = def.MarketImpactCap
	}
	if p.VolatilityRate < 0 {
		p.VolatilityRate = def.VolatilityRate
	}
	if p.PartialFillMinQuantity < 0 {
		p.PartialFillMinQuantity = def.PartialFillMinQuantity
	}
	if p.PartialFillProbability < 0 || p.PartialFillProbability > 1 {
		p.PartialFillProbability = def.PartialFillProbability
	}
	if p.PartialFillMinPercentage <= 0 || p.PartialFillMinPercentage >= 100 {
		p.PartialFillMinPercentage = def.PartialFillMinPercentage
	}
	if p.PartialFillMaxPercentage <= 0 || p.PartialFillMaxPercentage >= 100 {
		p.PartialFillMaxPercentage = def.PartialFillMaxPercentage
	}
	if p.PartialFillMaxPercentage < p.PartialFillMinPercentage {
		p.PartialFillMaxPercentage = p.PartialFillMinPercentage
	}

	return p
}

// HistoricalParams tunes the candle bounded fill.
type HistoricalParams struct {
	MinDelay         time.Duration
	MaxDelay         time.Duration
	MinInterpolation float64
	MaxInterpolation float64
}

func DefaultHistoricalParams() HistoricalParams {
	return HistoricalParams{
		MinDelay:         defaultHistoricalMinDelay,
		MaxDelay:         defaultHistoricalMaxDelay,
		MinInterpolation: defaultHistoricalMinInterpolation,
		MaxInterpolation: defaultHistoricalMaxInterpolation,
	}
}

func (p HistoricalParams) normalized() HistoricalParams {
	def := DefaultHistoricalParams()

	if p.MinDelay < 0 {
		p.MinDelay = def.MinDelay
	}
	if p.MaxDelay < 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.MinDelay {
		p.MaxDelay = p.MinDelay
	}
	if p.MinInterpolation < 0 || p.MinInterpolation > 1 {
		p.MinInterpolation = def.MinInterpolation
	}
	if p.MaxInterpolation < 0 || p.MaxInterpolation > 1 {
		p.MaxInterpolation = def.MaxInterpolation
	}
	if p.MaxInterpolation < p.MinInterpolation {
		p.MaxInterpolation = p.MinInterpolation
	}

	return p
}
