package simulator

import (
	"context"
	"math"

	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/util"
	"github.com/sirupsen/logrus"
)

// historicalFill bounds the fill by the next candle's range. Without a
// candle range the whole request goes to the realistic model.
type historicalFill struct {
	params   HistoricalParams
	rng      RandomSource
	clock    Clock
	fallback algorithm
}

func (a *historicalFill) fill(ctx context.Context, req entity.OrderRequest) (fillResult, error) {
	if !req.MarketContext.HasCandleRange() {
		logrus.WithFields(logrus.Fields{
			"request_id": req.RequestID,
			"symbol":     req.Symbol,
		}).Debug("no candle range in market context, falling back to realistic fill")
		return a.fallback.fill(ctx, req)
	}

	delay := uniformDuration(a.rng, a.params.MinDelay, a.params.MaxDelay)
	if err := a.clock.Sleep(ctx, delay); err != nil {
		return fillResult{}, err
	}

	mc := req.MarketContext
	// a missing bound on the side being filled means no room to slip
	high := mc.High.ValueOrZero()
	if !mc.High.Valid {
		high = req.SignalPrice
	}
	low := mc.Low.ValueOrZero()
	if !mc.Low.Valid {
		low = req.SignalPrice
	}

	factor := uniform(a.rng, a.params.MinInterpolation, a.params.MaxInterpolation)

	var price float64
	switch req.Side {
	case entity.OrderSideBuy:
		upper := math.Max(high, req.SignalPrice)
		price = math.Min(req.SignalPrice+(high-req.SignalPrice)*factor, upper)
		price = fitPrice(math.Max(price, req.SignalPrice), req.SignalPrice, upper)
	case entity.OrderSideSell:
		lower := math.Min(low, req.SignalPrice)
		price = math.Max(req.SignalPrice-(req.SignalPrice-low)*factor, lower)
		price = fitPrice(math.Min(price, req.SignalPrice), lower, req.SignalPrice)
	}

	return fillResult{
		mode:           entity.FillModeHistorical,
		price:          price,
		quantity:       req.Quantity,
		slippagePct:    util.Round(CalculateSlippage(req.SignalPrice, price), 4),
		fillPercentage: 100,
		historical: &entity.HistoricalDiagnostics{
			CandleHigh:  mc.High,
			CandleLow:   mc.Low,
			CandleClose: mc.Close,
		},
	}, nil
}
