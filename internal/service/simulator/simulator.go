package simulator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownMode = errors.New("unknown fill mode")
)

// fillResult is what an algorithm decides. The simulator wraps it into the
// report envelope.
type fillResult struct {
	mode           entity.FillMode
	price          float64
	quantity       float64
	slippagePct    float64
	fillPercentage float64
	realistic      *entity.RealisticDiagnostics
	historical     *entity.HistoricalDiagnostics
}

type algorithm interface {
	fill(ctx context.Context, req entity.OrderRequest) (fillResult, error)
}

type Option func(*Simulator)

func WithRandomSource(rng RandomSource) Option {
	return func(s *Simulator) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithClock(clock Clock) Option {
	return func(s *Simulator) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithRealisticParams(params RealisticParams) Option {
	return func(s *Simulator) {
		s.realisticParams = params
	}
}

func WithHistoricalParams(params HistoricalParams) Option {
	return func(s *Simulator) {
		s.historicalParams = params
	}
}

// Simulator fills orders at a fidelity mode fixed at construction. It holds
// no per-call state and is safe for concurrent use as long as its
// RandomSource is.
type Simulator struct {
	mode             entity.FillMode
	rng              RandomSource
	clock            Clock
	realisticParams  RealisticParams
	historicalParams HistoricalParams
	algorithm        algorithm
}

func ParseMode(raw string) (entity.FillMode, error) {
	mode := entity.FillMode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}

	return mode, nil
}

func New(mode entity.FillMode, opts ...Option) (*Simulator, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	s := &Simulator{
		mode:             mode,
		realisticParams:  DefaultRealisticParams(),
		historicalParams: DefaultHistoricalParams(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.rng == nil {
		s.rng = NewRandomSource(0)
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}

	realistic := &realisticFill{
		params: s.realisticParams.normalized(),
		rng:    s.rng,
		clock:  s.clock,
	}

	switch mode {
	case entity.FillModeInstant:
		s.algorithm = instantFill{}
	case entity.FillModeRealistic:
		s.algorithm = realistic
	case entity.FillModeHistorical:
		s.algorithm = &historicalFill{
			params:   s.historicalParams.normalized(),
			rng:      s.rng,
			clock:    s.clock,
			fallback: realistic,
		}
	}

	return s, nil
}

func (s *Simulator) Mode() entity.FillMode {
	return s.mode
}

// Execute fills req and returns the execution report. Invalid requests fail
// with entity.ErrInvalidInput; a cancelled ctx during the simulated latency
// returns ctx.Err().
func (s *Simulator) Execute(ctx context.Context, req entity.OrderRequest) (*entity.ExecutionReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	startedAt := s.clock.Now()
	signalTime := req.SignalTime
	if signalTime.IsZero() || signalTime.After(startedAt) {
		signalTime = startedAt
	}

	result, err := s.algorithm.fill(ctx, req)
	if err != nil {
		return nil, err
	}

	completedAt := s.clock.Now()
	if completedAt.Before(startedAt) {
		completedAt = startedAt
	}

	report := &entity.ExecutionReport{
		ID:                   uuid.NewString(),
		RequestID:            req.RequestID,
		Symbol:               req.Symbol,
		Side:                 req.Side,
		Type:                 req.Type,
		Mode:                 result.mode,
		SignalPrice:          req.SignalPrice,
		Quantity:             req.Quantity,
		FilledPrice:          result.price,
		FilledQuantity:       result.quantity,
		SlippagePct:          result.slippagePct,
		ExecutionTimeMs:      completedAt.Sub(signalTime).Milliseconds(),
		PartialFill:          result.quantity < req.Quantity,
		FillPercentage:       result.fillPercentage,
		SignalTime:           signalTime,
		ExecutionStartedAt:   startedAt,
		ExecutionCompletedAt: completedAt,
		Realistic:            result.realistic,
		Historical:           result.historical,
	}

	logrus.WithFields(logrus.Fields{
		"request_id":        req.RequestID,
		"symbol":            req.Symbol,
		"side":              req.Side,
		"mode":              report.Mode,
		"filled_price":      report.FilledPrice,
		"filled_quantity":   report.FilledQuantity,
		"slippage_pct":      report.SlippagePct,
		"execution_time_ms": report.ExecutionTimeMs,
	}).Debug("execution simulated")

	return report, nil
}
