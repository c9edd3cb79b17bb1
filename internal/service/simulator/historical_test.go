package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candle(high, low, close float64) *entity.MarketContext {
	return &entity.MarketContext{
		High:  null.FloatFrom(high),
		Low:   null.FloatFrom(low),
		Close: null.FloatFrom(close),
	}
}

func TestHistorical_FixedDraws(t *testing.T) {
	tests := []struct {
		name         string
		side         entity.OrderSide
		draw         float64
		wantPrice    float64
		wantSlippage float64
	}{
		{name: "buy midpoint", side: entity.OrderSideBuy, draw: 0.5, wantPrice: 105, wantSlippage: 5},
		{name: "buy lowest factor", side: entity.OrderSideBuy, draw: 0, wantPrice: 103, wantSlippage: 3},
		{name: "sell midpoint", side: entity.OrderSideSell, draw: 0.5, wantPrice: 95, wantSlippage: 5},
		{name: "sell lowest factor", side: entity.OrderSideSell, draw: 0, wantPrice: 97, wantSlippage: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, clock := newTestSimulator(t, entity.FillModeHistorical, NewScriptedSource([]float64{tt.draw}, []int{0}))

			req := marketOrder(tt.side, 3, 100)
			req.MarketContext = candle(110, 90, 104)

			report, err := sim.Execute(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, entity.FillModeHistorical, report.Mode)
			assert.Equal(t, tt.wantPrice, report.FilledPrice)
			assert.Equal(t, tt.wantSlippage, report.SlippagePct)
			assert.Equal(t, 3.0, report.FilledQuantity)
			assert.Equal(t, 100.0, report.FillPercentage)
			assert.False(t, report.PartialFill)

			require.NotNil(t, report.Historical)
			assert.Equal(t, null.FloatFrom(110), report.Historical.CandleHigh)
			assert.Equal(t, null.FloatFrom(90), report.Historical.CandleLow)
			assert.Equal(t, null.FloatFrom(104), report.Historical.CandleClose)
			assert.Nil(t, report.Realistic)

			assert.Equal(t, []time.Duration{100 * time.Millisecond}, clock.Sleeps())
		})
	}
}

func TestHistorical_DelayBounds(t *testing.T) {
	sim, clock := newTestSimulator(t, entity.FillModeHistorical, NewScriptedSource([]float64{0.5}, []int{400}))

	req := marketOrder(entity.OrderSideBuy, 1, 100)
	req.MarketContext = candle(110, 90, 100)

	report, err := sim.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.Sleeps())
	assert.Equal(t, int64(500), report.ExecutionTimeMs)
}

func TestHistorical_FallsBackToRealistic(t *testing.T) {
	tests := []struct {
		name string
		mc   *entity.MarketContext
	}{
		{name: "no market context", mc: nil},
		{name: "empty market context", mc: &entity.MarketContext{}},
		{name: "only volatility and close", mc: &entity.MarketContext{
			Volatility: null.FloatFrom(1.5),
			Close:      null.FloatFrom(101),
		}},
	}

	for _, tt := range tests {
		for _, side := range []entity.OrderSide{entity.OrderSideBuy, entity.OrderSideSell} {
			t.Run(tt.name+"/"+string(side), func(t *testing.T) {
				floats := []float64{thirdSpreadDraw, 0.01, 0.5}
				ints := []int{42}

				historical, historicalClock := newTestSimulator(t, entity.FillModeHistorical, NewScriptedSource(floats, ints))
				realistic, realisticClock := newTestSimulator(t, entity.FillModeRealistic, NewScriptedSource(floats, ints))

				req := marketOrder(side, 25, 100)
				req.MarketContext = tt.mc

				got, err := historical.Execute(context.Background(), req)
				require.NoError(t, err)
				want, err := realistic.Execute(context.Background(), req)
				require.NoError(t, err)

				assert.Equal(t, entity.FillModeRealistic, got.Mode)
				require.NotNil(t, got.Realistic)
				assert.Nil(t, got.Historical)

				assert.Equal(t, want.FilledPrice, got.FilledPrice)
				assert.Equal(t, want.FilledQuantity, got.FilledQuantity)
				assert.Equal(t, want.SlippagePct, got.SlippagePct)
				assert.Equal(t, want.PartialFill, got.PartialFill)
				assert.Equal(t, want.FillPercentage, got.FillPercentage)
				assert.Equal(t, want.ExecutionTimeMs, got.ExecutionTimeMs)
				assert.Equal(t, *want.Realistic, *got.Realistic)
				assert.Equal(t, realisticClock.Sleeps(), historicalClock.Sleeps())
			})
		}
	}
}

func TestHistorical_MissingBoundForSide(t *testing.T) {
	tests := []struct {
		name string
		side entity.OrderSide
		mc   *entity.MarketContext
	}{
		{name: "buy without high", side: entity.OrderSideBuy, mc: &entity.MarketContext{Low: null.FloatFrom(90)}},
		{name: "sell without low", side: entity.OrderSideSell, mc: &entity.MarketContext{High: null.FloatFrom(110)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := newTestSimulator(t, entity.FillModeHistorical, NewScriptedSource([]float64{0.5}, nil))

			req := marketOrder(tt.side, 1, 100)
			req.MarketContext = tt.mc

			report, err := sim.Execute(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, entity.FillModeHistorical, report.Mode)
			assert.Equal(t, 100.0, report.FilledPrice)
			assert.Equal(t, 0.0, report.SlippagePct)
		})
	}
}

func TestHistorical_Bounds(t *testing.T) {
	sim, _ := newTestSimulator(t, entity.FillModeHistorical, NewRandomSource(99))

	for i := 0; i < 2000; i++ {
		signal := 100 + float64(i%17)
		high := signal + float64(i%13) + 0.37
		low := signal - float64(i%11) - 0.29

		side := entity.OrderSideBuy
		if i%2 == 0 {
			side = entity.OrderSideSell
		}

		req := marketOrder(side, 2, signal)
		req.SignalTime = time.Time{}
		req.MarketContext = candle(high, low, signal)

		report, err := sim.Execute(context.Background(), req)
		require.NoError(t, err)

		if side == entity.OrderSideBuy {
			assert.GreaterOrEqual(t, report.FilledPrice, signal)
			assert.LessOrEqual(t, report.FilledPrice, high)
		} else {
			assert.GreaterOrEqual(t, report.FilledPrice, low)
			assert.LessOrEqual(t, report.FilledPrice, signal)
		}
		assert.GreaterOrEqual(t, report.SlippagePct, 0.0)
		assert.Equal(t, req.Quantity, report.FilledQuantity)
		assert.False(t, report.PartialFill)
		assert.GreaterOrEqual(t, report.ExecutionTimeMs, int64(100))
		assert.LessOrEqual(t, report.ExecutionTimeMs, int64(500))
	}
}

func TestHistorical_SubDollarSignals(t *testing.T) {
	tests := []struct {
		name      string
		side      entity.OrderSide
		signal    float64
		mc        *entity.MarketContext
		wantPrice float64
	}{
		{name: "buy keeps sub-cent precision", side: entity.OrderSideBuy, signal: 0.1234, mc: candle(0.1239, 0.12, 0.1236), wantPrice: 0.12365},
		{name: "sell keeps sub-cent precision", side: entity.OrderSideSell, signal: 0.1234, mc: candle(0.125, 0.1229, 0.1231), wantPrice: 0.12315},
		{name: "buy rounds to a cent inside the candle", side: entity.OrderSideBuy, signal: 0.98, mc: candle(1.2, 0.9, 1), wantPrice: 1.09},
		{name: "buy above the candle fills at signal", side: entity.OrderSideBuy, signal: 100, mc: candle(99, 95, 97), wantPrice: 100},
		{name: "sell below the candle fills at signal", side: entity.OrderSideSell, signal: 100, mc: candle(110, 101, 105), wantPrice: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _ := newTestSimulator(t, entity.FillModeHistorical, NewScriptedSource([]float64{0.5}, nil))

			req := marketOrder(tt.side, 1, tt.signal)
			req.MarketContext = tt.mc

			report, err := sim.Execute(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, entity.FillModeHistorical, report.Mode)
			assert.InDelta(t, tt.wantPrice, report.FilledPrice, 1e-9)
			assert.InDelta(t, CalculateSlippage(tt.signal, report.FilledPrice), report.SlippagePct, 1e-4)
			if tt.side == entity.OrderSideBuy {
				assert.GreaterOrEqual(t, report.FilledPrice, tt.signal)
			} else {
				assert.LessOrEqual(t, report.FilledPrice, tt.signal)
			}
		})
	}
}

func TestHistorical_SubDollarBounds(t *testing.T) {
	sim, _ := newTestSimulator(t, entity.FillModeHistorical, NewRandomSource(11))

	for i := 0; i < 2000; i++ {
		signal := 0.0001 * float64(1+i%997)
		high := signal * (1 + float64(i%7)/100)
		low := signal * (1 - float64(i%5)/100)

		side := entity.OrderSideBuy
		if i%2 == 0 {
			side = entity.OrderSideSell
		}

		req := marketOrder(side, 1, signal)
		req.SignalTime = time.Time{}
		req.MarketContext = candle(high, low, signal)

		report, err := sim.Execute(context.Background(), req)
		require.NoError(t, err)

		assert.Greater(t, report.FilledPrice, 0.0)
		if side == entity.OrderSideBuy {
			assert.GreaterOrEqual(t, report.FilledPrice, signal)
			assert.LessOrEqual(t, report.FilledPrice, high)
		} else {
			assert.GreaterOrEqual(t, report.FilledPrice, low)
			assert.LessOrEqual(t, report.FilledPrice, signal)
		}
	}
}
