package marketcontext

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/krobus00/execution-simulator/internal/constant"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrResolveSymbolFailed = errors.New("failed to resolve kline symbol")
	ErrLoadCandleFailed    = errors.New("failed to load next candle")
	ErrLoadClosesFailed    = errors.New("failed to load recent closes")
)

type KlineReader interface {
	GetNextClosed(ctx context.Context, exchange, symbol, interval string, after time.Time) (*entity.MarketKline, error)
	GetRecentCloses(ctx context.Context, exchange, symbol, interval string, before time.Time, limit int) ([]decimal.Decimal, error)
}

type SymbolResolver interface {
	GetKlineSymbol(ctx context.Context, exchange, symbol string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string) (*entity.MarketContext, bool, error)
	Set(ctx context.Context, key string, value *entity.MarketContext, ttl time.Duration) error
}

type Config struct {
	Exchange         string
	Interval         string
	VolatilityWindow int
	CacheTTL         time.Duration
}

// Service builds market context snapshots from stored klines: the next
// closed candle after the signal for its range and the preceding closes for
// a volatility estimate.
type Service struct {
	config  Config
	klines  KlineReader
	symbols SymbolResolver
	cache   Cache
}

func NewService(config Config, klines KlineReader, symbols SymbolResolver, cache Cache) *Service {
	if strings.TrimSpace(config.Interval) == "" {
		config.Interval = constant.DefaultKlineInterval
	}
	if config.VolatilityWindow <= 1 {
		config.VolatilityWindow = constant.DefaultVolatilityWindow
	}

	return &Service{
		config:  config,
		klines:  klines,
		symbols: symbols,
		cache:   cache,
	}
}

// Resolve returns whatever context is available. Missing candles leave the
// corresponding fields invalid rather than failing.
func (s *Service) Resolve(ctx context.Context, exchange, symbol string, signalTime time.Time) (*entity.MarketContext, error) {
	if strings.TrimSpace(exchange) == "" {
		exchange = s.config.Exchange
	}
	if signalTime.IsZero() {
		signalTime = time.Now().UTC()
	}

	logger := logrus.WithFields(logrus.Fields{
		"exchange": exchange,
		"symbol":   symbol,
		"signal":   signalTime,
	})

	// every signal within one interval sees the same next candle and the
	// same preceding closes, so lookups run against the interval boundary
	boundary := nextIntervalBoundary(signalTime, s.config.Interval)
	key := cacheKey(exchange, symbol, s.config.Interval, boundary)
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.WithError(err).Warn("market context cache read failed")
		}
		if found {
			return cached, nil
		}
	}

	klineSymbol := symbol
	if s.symbols != nil {
		mapped, err := s.symbols.GetKlineSymbol(ctx, exchange, symbol)
		if err != nil {
			logger.Error(err)
			return nil, fmt.Errorf("%w: %w", ErrResolveSymbolFailed, err)
		}
		klineSymbol = mapped
	}

	mc := &entity.MarketContext{}

	next, err := s.klines.GetNextClosed(ctx, exchange, klineSymbol, s.config.Interval, boundary)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		logger.Debug("no closed candle after signal")
	case err != nil:
		logger.Error(err)
		return nil, fmt.Errorf("%w: %w", ErrLoadCandleFailed, err)
	default:
		mc.High = null.FloatFrom(next.HighPrice.InexactFloat64())
		mc.Low = null.FloatFrom(next.LowPrice.InexactFloat64())
		mc.Close = null.FloatFrom(next.ClosePrice.InexactFloat64())
	}

	closes, err := s.klines.GetRecentCloses(ctx, exchange, klineSymbol, s.config.Interval, boundary, s.config.VolatilityWindow+1)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Error(err)
		return nil, fmt.Errorf("%w: %w", ErrLoadClosesFailed, err)
	}
	mc.Volatility = Volatility(closes)

	// a candle that has not closed yet may still arrive
	if s.cache != nil && s.config.CacheTTL > 0 && mc.HasCandleRange() {
		if err := s.cache.Set(ctx, key, mc, s.config.CacheTTL); err != nil {
			logger.WithError(err).Warn("market context cache write failed")
		}
	}

	return mc, nil
}

// Volatility is the sample standard deviation, in percent, of close to
// close returns. Fewer than two returns give an invalid value.
func Volatility(closes []decimal.Decimal) null.Float {
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev.LessThanOrEqual(decimal.Zero) {
			continue
		}
		change := closes[i].Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
		returns = append(returns, change.InexactFloat64())
	}

	if len(returns) < 2 {
		return null.Float{}
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return null.FloatFrom(math.Sqrt(variance))
}

func cacheKey(exchange, symbol, interval string, boundary time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", constant.MarketContextCacheKeyPrefix, exchange, symbol, interval, boundary.UTC().UnixMilli())
}

// nextIntervalBoundary rounds t up to the next candle open time. Intervals
// that cannot be parsed leave t unchanged.
func nextIntervalBoundary(t time.Time, interval string) time.Time {
	d, ok := intervalDuration(interval)
	if !ok {
		return t
	}

	truncated := t.Truncate(d)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(d)
}

// intervalDuration understands exchange kline intervals such as 1m, 4h, 1d
// and 1w. Calendar months have no fixed length and are not supported.
func intervalDuration(interval string) (time.Duration, bool) {
	interval = strings.TrimSpace(interval)
	if len(interval) < 2 {
		return 0, false
	}

	unit := interval[len(interval)-1]
	count, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || count <= 0 {
		return 0, false
	}

	var base time.Duration
	switch unit {
	case 's':
		base = time.Second
	case 'm':
		base = time.Minute
	case 'h':
		base = time.Hour
	case 'd':
		base = 24 * time.Hour
	case 'w':
		base = 7 * 24 * time.Hour
	default:
		return 0, false
	}

	return time.Duration(count) * base, true
}
