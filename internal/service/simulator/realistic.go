package simulator

import (
	"context"
	"math"

	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/util"
)

// realisticFill charges half the spread, a size driven market impact and a
// volatility term, then randomly fills large orders partially.
type realisticFill struct {
	params RealisticParams
	rng    RandomSource
	clock  Clock
}

func (a *realisticFill) fill(ctx context.Context, req entity.OrderRequest) (fillResult, error) {
	delay := uniformDuration(a.rng, a.params.MinDelay, a.params.MaxDelay)
	if err := a.clock.Sleep(ctx, delay); err != nil {
		return fillResult{}, err
	}

	spread := uniform(a.rng, a.params.MinSpread, a.params.MaxSpread)
	baseSlippage := spread / 2
	marketImpact := math.Min(req.Quantity/100*a.params.MarketImpactRate, a.params.MarketImpactCap)

	volatilityImpact := 0.0
	if req.MarketContext != nil && req.MarketContext.Volatility.Valid {
		volatilityImpact = req.MarketContext.Volatility.Float64 * a.params.VolatilityRate
	}

	totalSlippagePct := (baseSlippage + marketImpact + volatilityImpact) * 100

	slippagePct := totalSlippagePct
	var price float64
	switch req.Side {
	case entity.OrderSideBuy:
		price = fitPrice(req.SignalPrice*(1+totalSlippagePct/100), req.SignalPrice, noUpperBound)
	case entity.OrderSideSell:
		price = req.SignalPrice * (1 - totalSlippagePct/100)
		if price < minimumPrice {
			price = math.Min(minimumPrice, req.SignalPrice)
			slippagePct = CalculateSlippage(req.SignalPrice, price)
		}
		price = fitPrice(price, 0, req.SignalPrice)
	}

	quantity := req.Quantity
	fillPercentage := 100.0
	if req.Quantity > a.params.PartialFillMinQuantity && a.rng.Float64() < a.params.PartialFillProbability {
		fillPercentage = uniform(a.rng, a.params.PartialFillMinPercentage, a.params.PartialFillMaxPercentage)
		quantity = util.RoundFloor(req.Quantity*fillPercentage/100, 8)
		fillPercentage = util.Round(fillPercentage, 2)
	}

	return fillResult{
		mode:           entity.FillModeRealistic,
		price:          price,
		quantity:       quantity,
		slippagePct:    util.Round(slippagePct, 4),
		fillPercentage: fillPercentage,
		realistic: &entity.RealisticDiagnostics{
			SpreadPct:           util.Round(spread*100, 4),
			MarketImpactPct:     util.Round(marketImpact*100, 4),
			VolatilityImpactPct: util.Round(volatilityImpact*100, 4),
		},
	}, nil
}
