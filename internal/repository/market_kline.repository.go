package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/shopspring/decimal"
)

type MarketKlineRepository struct {
	db *sqlx.DB
}

func NewMarketKlineRepository(db *sqlx.DB) *MarketKlineRepository {
	return &MarketKlineRepository{db: db}
}

// Create upserts a candle keyed by exchange, symbol, interval and open time.
func (r *MarketKlineRepository) Create(ctx context.Context, data *entity.MarketKline) error {
	query, args, err := buildUpsertKlineQuery(data)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// GetNextClosed returns the first closed candle opening at or after the
// given time. sql.ErrNoRows is returned when none exists yet.
func (r *MarketKlineRepository) GetNextClosed(ctx context.Context, exchange, symbol, interval string, after time.Time) (*entity.MarketKline, error) {
	query, args, err := buildNextClosedQuery(exchange, symbol, interval, after)
	if err != nil {
		return nil, err
	}

	var kline entity.MarketKline
	err = r.db.GetContext(ctx, &kline, query, args...)
	if err != nil {
		return nil, err
	}

	return &kline, nil
}

// GetRecentCloses returns up to limit close prices of candles opening before
// the given time, oldest first.
func (r *MarketKlineRepository) GetRecentCloses(ctx context.Context, exchange, symbol, interval string, before time.Time, limit int) ([]decimal.Decimal, error) {
	if limit <= 0 {
		return []decimal.Decimal{}, nil
	}

	query, args, err := buildRecentClosesQuery(exchange, symbol, interval, before, limit)
	if err != nil {
		return nil, err
	}

	var closes []decimal.Decimal
	err = r.db.SelectContext(ctx, &closes, query, args...)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	return closes, nil
}

func buildUpsertKlineQuery(data *entity.MarketKline) (string, []any, error) {
	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(data.TableName()).
		Columns(
			"exchange",
			"event_type",
			"event_time",
			"symbol",
			"interval",
			"open_time",
			"close_time",
			"open_price",
			"high_price",
			"low_price",
			"close_price",
			"base_volume",
			"quote_volume",
			"taker_base_volume",
			"taker_quote_volume",
			"trade_count",
			"is_closed",
			"created_at",
			"updated_at",
		).
		Values(
			data.Exchange,
			data.EventType,
			data.EventTime,
			data.Symbol,
			data.Interval,
			data.OpenTime,
			data.CloseTime,
			data.OpenPrice,
			data.HighPrice,
			data.LowPrice,
			data.ClosePrice,
			data.BaseVolume,
			data.QuoteVolume,
			data.TakerBaseVolume,
			data.TakerQuoteVolume,
			data.TradeCount,
			data.IsClosed,
			data.CreatedAt,
			data.UpdatedAt,
		).
		Suffix(`ON CONFLICT (exchange, symbol, interval, open_time)
DO UPDATE SET
	close_time = EXCLUDED.close_time,
	open_price = EXCLUDED.open_price,
	high_price = EXCLUDED.high_price,
	low_price = EXCLUDED.low_price,
	close_price = EXCLUDED.close_price,
	base_volume = EXCLUDED.base_volume,
	quote_volume = EXCLUDED.quote_volume,
	trade_count = EXCLUDED.trade_count,
	is_closed = EXCLUDED.is_closed,
	updated_at = EXCLUDED.updated_at`).
		ToSql()
}

func buildNextClosedQuery(exchange, symbol, interval string, after time.Time) (string, []any, error) {
	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From(entity.MarketKline{}.TableName()).
		Where(sq.Eq{
			"exchange":  exchange,
			"symbol":    symbol,
			"interval":  interval,
			"is_closed": true,
		}).
		Where(sq.GtOrEq{"open_time": after}).
		OrderBy("open_time asc").
		Limit(1).
		ToSql()
}

func buildRecentClosesQuery(exchange, symbol, interval string, before time.Time, limit int) (string, []any, error) {
	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("close_price").
		From(entity.MarketKline{}.TableName()).
		Where(sq.Eq{
			"exchange":  exchange,
			"symbol":    symbol,
			"interval":  interval,
			"is_closed": true,
		}).
		Where(sq.Lt{"open_time": before}).
		OrderBy("open_time desc").
		Limit(uint64(limit)).
		ToSql()
}
