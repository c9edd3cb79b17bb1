package executionengine

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/execution-simulator/internal/config"
	"github.com/krobus00/execution-simulator/internal/constant"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

var (
	ErrSimulationFailed     = errors.New("failed to simulate execution")
	ErrPublishReportFailed  = errors.New("failed to publish execution report")
	ErrPublishRequestFailed = errors.New("failed to publish execution request")
	ErrJetstreamUnavailable = errors.New("jetstream is not configured")
)

type Simulator interface {
	Execute(ctx context.Context, req entity.OrderRequest) (*entity.ExecutionReport, error)
	Mode() entity.FillMode
}

type MarketContextResolver interface {
	Resolve(ctx context.Context, exchange, symbol string, signalTime time.Time) (*entity.MarketContext, error)
}

// ExecutionEngineService feeds order requests to the simulator and hands
// the reports to whoever listens on the report subject. resolver and js are
// optional.
type ExecutionEngineService struct {
	simulator Simulator
	resolver  MarketContextResolver
	js        nats.JetStreamContext
}

func NewExecutionEngineService(simulator Simulator, resolver MarketContextResolver, js nats.JetStreamContext) *ExecutionEngineService {
	return &ExecutionEngineService{
		simulator: simulator,
		resolver:  resolver,
		js:        js,
	}
}

func (s *ExecutionEngineService) JetstreamEventInit(ctx context.Context) error {
	if s.js == nil {
		return ErrJetstreamUnavailable
	}

	streamConfig := &nats.StreamConfig{
		Name:      constant.ExecutionStreamName,
		Subjects:  []string{constant.ExecutionStreamSubjectAll},
		Retention: nats.InterestPolicy,
		Storage:   nats.FileStorage,
		MaxAge:    24 * time.Hour,
	}

	stream, err := s.js.StreamInfo(constant.ExecutionStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.ExecutionStreamName)
		_, err = s.js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.ExecutionStreamName)
	_, err = s.js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		logrus.Error(err)
		return err
	}

	return nil
}

func (s *ExecutionEngineService) JetstreamEventSubscribe(ctx context.Context) error {
	err := s.JetstreamEventInit(ctx)
	if err != nil {
		logrus.Error(err)
		return err
	}

	_, err = s.js.QueueSubscribe(
		constant.ExecutionStreamSubjectSimulate,
		constant.ExecutionQueueName,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(handlerTimeout(), msg, s.handleExecutionRequestEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
				return
			}

			err = msg.Ack()
			if err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
				return
			}
		},
		nats.ManualAck(),
		nats.Durable(constant.ExecutionQueueGroup),
	)
	if err != nil {
		logrus.Error(err)
		return err
	}

	logrus.Infof("subscribed to %s with %s fills", constant.ExecutionStreamSubjectSimulate, s.simulator.Mode())

	return nil
}

func (s *ExecutionEngineService) handleExecutionRequestEvent(ctx context.Context, msg *nats.Msg) (err error) {
	logger := logrus.WithFields(logrus.Fields{
		"req": string(msg.Data),
	})

	var req *entity.ExecutionRequestEvent
	err = json.Unmarshal(msg.Data, &req)
	if err != nil || req == nil {
		// a payload that does not decode will never decode
		logger.WithError(err).Error("dropping undecodable execution request")
		return nil
	}

	defer func() {
		if err != nil {
			logger.Error(err)
			req.RetryCount++
			if req.RetryCount >= maxRetries() {
				err = nil
				return
			}

			pubErr := util.PublishEvent(ctx, s.js, constant.ExecutionStreamSubjectSimulate, req)
			if pubErr != nil {
				logger.Error(pubErr)
				return
			}
			err = nil
		}
	}()

	_, err = s.Execute(ctx, req.Data)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidInput) {
			logger.WithError(err).Warn("dropping invalid execution request")
			return nil
		}
		return err
	}

	return nil
}

// Execute simulates req, enriching it with market context when the caller
// did not supply any. A report that could not be published is still
// returned together with ErrPublishReportFailed.
func (s *ExecutionEngineService) Execute(ctx context.Context, req entity.OrderRequest) (*entity.ExecutionReport, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logger := logrus.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"symbol":     req.Symbol,
		"side":       req.Side,
		"mode":       s.simulator.Mode(),
	})

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.MarketContext == nil && s.resolver != nil && s.simulator.Mode() != entity.FillModeInstant {
		mc, err := s.resolver.Resolve(ctx, req.Exchange, req.Symbol, req.SignalTime)
		if err != nil {
			logger.WithError(err).Warn("market context unavailable, simulating without it")
		} else {
			req.MarketContext = mc
		}
	}

	report, err := s.simulator.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidInput) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Error(err)
		return nil, errors.Join(ErrSimulationFailed, err)
	}

	if s.js != nil {
		err = util.PublishEvent(ctx, s.js, constant.ExecutionStreamSubjectReport, entity.ExecutionReportEvent{Data: *report})
		if err != nil {
			logger.Error(err)
			return report, ErrPublishReportFailed
		}
	}

	return report, nil
}

func (s *ExecutionEngineService) ExecuteAsync(ctx context.Context, req entity.OrderRequest) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := req.Validate(); err != nil {
		return err
	}

	if s.js == nil {
		return ErrJetstreamUnavailable
	}

	event := entity.ExecutionRequestEvent{
		RetryCount: 0,
		Data:       req,
	}

	err := util.PublishEvent(ctx, s.js, constant.ExecutionStreamSubjectSimulate, event)
	if err != nil {
		logrus.Error(err)
		return ErrPublishRequestFailed
	}

	return nil
}

func handlerTimeout() time.Duration {
	if config.Env == nil {
		return 0
	}
	return config.Env.NatsJetstream.TimeoutHandler[constant.TimeoutHandlerSimulateExecution]
}

func maxRetries() int {
	if config.Env == nil || config.Env.NatsJetstream.MaxRetries <= 0 {
		return 1
	}
	return config.Env.NatsJetstream.MaxRetries
}
