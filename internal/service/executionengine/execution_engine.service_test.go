package executionengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/service/simulator"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signalTime = time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

type fakeResolver struct {
	mc    *entity.MarketContext
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string, _ time.Time) (*entity.MarketContext, error) {
	f.calls++
	return f.mc, f.err
}

type failingSimulator struct {
	err   error
	calls int
}

func (f *failingSimulator) Execute(context.Context, entity.OrderRequest) (*entity.ExecutionReport, error) {
	f.calls++
	return nil, f.err
}

func (f *failingSimulator) Mode() entity.FillMode {
	return entity.FillModeRealistic
}

func newSimulator(t *testing.T, mode entity.FillMode, floats []float64) *simulator.Simulator {
	t.Helper()

	sim, err := simulator.New(mode,
		simulator.WithClock(simulator.NewManualClock(signalTime)),
		simulator.WithRandomSource(simulator.NewScriptedSource(floats, nil)),
	)
	require.NoError(t, err)
	return sim
}

func buyOrder() entity.OrderRequest {
	return entity.OrderRequest{
		RequestID:   "req-42",
		Exchange:    "binance",
		Symbol:      "BTCUSDT",
		Type:        entity.OrderTypeMarket,
		Side:        entity.OrderSideBuy,
		Quantity:    1,
		SignalPrice: 100,
		SignalTime:  signalTime,
	}
}

func TestExecute_EnrichesMissingMarketContext(t *testing.T) {
	resolver := &fakeResolver{mc: &entity.MarketContext{
		High:  null.FloatFrom(110),
		Low:   null.FloatFrom(90),
		Close: null.FloatFrom(104),
	}}
	svc := NewExecutionEngineService(newSimulator(t, entity.FillModeHistorical, []float64{0.5}), resolver, nil)

	report, err := svc.Execute(context.Background(), buyOrder())
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, entity.FillModeHistorical, report.Mode)
	assert.Equal(t, 105.0, report.FilledPrice)
	assert.Equal(t, "req-42", report.RequestID)
}

func TestExecute_ResolverFailureDegradesToRealistic(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("database down")}
	svc := NewExecutionEngineService(newSimulator(t, entity.FillModeHistorical, []float64{0.5}), resolver, nil)

	report, err := svc.Execute(context.Background(), buyOrder())
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, entity.FillModeRealistic, report.Mode)
	require.NotNil(t, report.Realistic)
}

func TestExecute_SkipsResolver(t *testing.T) {
	tests := []struct {
		name   string
		mode   entity.FillMode
		mutate func(*entity.OrderRequest)
	}{
		{name: "caller supplied context", mode: entity.FillModeRealistic, mutate: func(r *entity.OrderRequest) {
			r.MarketContext = &entity.MarketContext{Volatility: null.FloatFrom(1)}
		}},
		{name: "instant mode", mode: entity.FillModeInstant, mutate: func(*entity.OrderRequest) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{}
			svc := NewExecutionEngineService(newSimulator(t, tt.mode, []float64{0.5}), resolver, nil)

			req := buyOrder()
			tt.mutate(&req)

			report, err := svc.Execute(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, report.Mode)
			assert.Zero(t, resolver.calls)
		})
	}
}

func TestExecute_InvalidInput(t *testing.T) {
	resolver := &fakeResolver{}
	sim := &failingSimulator{}
	svc := NewExecutionEngineService(sim, resolver, nil)

	req := buyOrder()
	req.SignalPrice = 0

	report, err := svc.Execute(context.Background(), req)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.Zero(t, resolver.calls)
	assert.Zero(t, sim.calls)
}

func TestExecute_SimulatorFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := NewExecutionEngineService(&failingSimulator{err: boom}, nil, nil)

	report, err := svc.Execute(context.Background(), buyOrder())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrSimulationFailed)
	assert.ErrorIs(t, err, boom)
}

func TestExecute_CancelledContext(t *testing.T) {
	svc := NewExecutionEngineService(newSimulator(t, entity.FillModeRealistic, nil), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Execute(ctx, buyOrder())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteAsync_WithoutJetstream(t *testing.T) {
	svc := NewExecutionEngineService(newSimulator(t, entity.FillModeInstant, nil), nil, nil)

	assert.ErrorIs(t, svc.ExecuteAsync(context.Background(), buyOrder()), ErrJetstreamUnavailable)

	req := buyOrder()
	req.Side = "HOLD"
	assert.ErrorIs(t, svc.ExecuteAsync(context.Background(), req), entity.ErrInvalidInput)
}

func TestHandleExecutionRequestEvent(t *testing.T) {
	valid, err := json.Marshal(entity.ExecutionRequestEvent{Data: buyOrder()})
	require.NoError(t, err)

	invalidReq := buyOrder()
	invalidReq.Quantity = -1
	invalid, err := json.Marshal(entity.ExecutionRequestEvent{Data: invalidReq})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		sim  Simulator
	}{
		{name: "valid request", data: valid, sim: newSimulator(t, entity.FillModeInstant, nil)},
		{name: "invalid request is dropped", data: invalid, sim: newSimulator(t, entity.FillModeInstant, nil)},
		{name: "garbage payload is dropped", data: []byte("{not json"), sim: newSimulator(t, entity.FillModeInstant, nil)},
		{name: "null payload is dropped", data: []byte("null"), sim: newSimulator(t, entity.FillModeInstant, nil)},
		{name: "failure past retry budget is dropped", data: valid, sim: &failingSimulator{err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewExecutionEngineService(tt.sim, nil, nil)

			err := svc.handleExecutionRequestEvent(context.Background(), &nats.Msg{Data: tt.data})
			assert.NoError(t, err)
		})
	}
}

func TestJetstreamEventInit_WithoutJetstream(t *testing.T) {
	svc := NewExecutionEngineService(newSimulator(t, entity.FillModeInstant, nil), nil, nil)
	assert.ErrorIs(t, svc.JetstreamEventInit(context.Background()), ErrJetstreamUnavailable)
	assert.ErrorIs(t, svc.JetstreamEventSubscribe(context.Background()), ErrJetstreamUnavailable)
}
