package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type MarketKline struct {
	ID               string          `db:"id"`
	Exchange         string          `db:"exchange"`
	EventType        string          `db:"event_type"`
	EventTime        time.Time       `db:"event_time"`
	Symbol           string          `db:"symbol"`
	Interval         string          `db:"interval"`
	OpenTime         time.Time       `db:"open_time"`
	CloseTime        time.Time       `db:"close_time"`
	OpenPrice        decimal.Decimal `db:"open_price"`
	HighPrice        decimal.Decimal `db:"high_price"`
	LowPrice         decimal.Decimal `db:"low_price"`
	ClosePrice       decimal.Decimal `db:"close_price"`
	BaseVolume       decimal.Decimal `db:"base_volume"`
	QuoteVolume      decimal.Decimal `db:"quote_volume"`
	TakerBaseVolume  decimal.Decimal `db:"taker_base_volume"`
	TakerQuoteVolume decimal.Decimal `db:"taker_quote_volume"`
	TradeCount       int32           `db:"trade_count"`
	IsClosed         bool            `db:"is_closed"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (m MarketKline) TableName() string {
	return "market_klines"
}
