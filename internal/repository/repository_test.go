package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNextClosedQuery(t *testing.T) {
	after := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

	query, args, err := buildNextClosedQuery("binance", "BTCUSDT", "1m", after)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM market_klines WHERE exchange = $1 AND interval = $2 AND is_closed = $3 AND symbol = $4 AND open_time >= $5 ORDER BY open_time asc LIMIT 1", query)
	assert.Equal(t, []any{"binance", "1m", true, "BTCUSDT", after}, args)
}

func TestBuildRecentClosesQuery(t *testing.T) {
	before := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

	query, args, err := buildRecentClosesQuery("binance", "BTCUSDT", "1m", before, 20)
	require.NoError(t, err)

	assert.Equal(t, "SELECT close_price FROM market_klines WHERE exchange = $1 AND interval = $2 AND is_closed = $3 AND symbol = $4 AND open_time < $5 ORDER BY open_time desc LIMIT 20", query)
	assert.Equal(t, []any{"binance", "1m", true, "BTCUSDT", before}, args)
}

func TestBuildKlineSymbolQuery(t *testing.T) {
	query, args, err := buildKlineSymbolQuery("binance", "BTC/USDT")
	require.NoError(t, err)

	assert.Equal(t, "SELECT kline_symbol FROM symbol_mappings WHERE exchange = $1 AND symbol = $2 ORDER BY created_at desc LIMIT 1", query)
	assert.Equal(t, []any{"binance", "BTC/USDT"}, args)
}

func TestBuildUpsertKlineQuery(t *testing.T) {
	openTime := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	kline := &entity.MarketKline{
		Exchange:   "binance",
		EventType:  "import",
		Symbol:     "BTCUSDT",
		Interval:   "1m",
		OpenTime:   openTime,
		CloseTime:  openTime.Add(time.Minute - time.Millisecond),
		HighPrice:  decimal.RequireFromString("101.5"),
		LowPrice:   decimal.RequireFromString("99.5"),
		ClosePrice: decimal.RequireFromString("100.25"),
		IsClosed:   true,
	}

	query, args, err := buildUpsertKlineQuery(kline)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO market_klines (exchange,event_type,event_time,symbol,interval,open_time,"))
	assert.Contains(t, query, "VALUES ($1,$2,$3,")
	assert.Contains(t, query, "ON CONFLICT (exchange, symbol, interval, open_time)")
	require.Len(t, args, 19)
	assert.Equal(t, "binance", args[0])
	assert.Equal(t, "BTCUSDT", args[3])
	assert.Equal(t, openTime, args[5])
	assert.Equal(t, true, args[16])
}
