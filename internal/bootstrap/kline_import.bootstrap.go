package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/execution-simulator/internal/config"
	"github.com/krobus00/execution-simulator/internal/constant"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/infrastructure"
	"github.com/krobus00/execution-simulator/internal/repository"
	"github.com/krobus00/execution-simulator/internal/util"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const klineImportEventType = "import"

var errMalformedKlineRow = errors.New("malformed kline row")

type klineWriter interface {
	Create(ctx context.Context, data *entity.MarketKline) error
}

// klineRow is one row of the exchange REST kline format:
// [open_time, open, high, low, close, volume, close_time, quote_volume,
// trades, taker_base_volume, taker_quote_volume, ...].
type klineRow struct {
	OpenTime         int64
	Open             decimal.Decimal
	High             decimal.Decimal
	Low              decimal.Decimal
	Close            decimal.Decimal
	BaseVolume       decimal.Decimal
	CloseTime        int64
	QuoteVolume      decimal.Decimal
	TradeCount       int32
	TakerBaseVolume  decimal.Decimal
	TakerQuoteVolume decimal.Decimal
}

func (k *klineRow) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", errMalformedKlineRow, err)
	}

	targets := []any{
		&k.OpenTime, &k.Open, &k.High, &k.Low, &k.Close, &k.BaseVolume,
		&k.CloseTime, &k.QuoteVolume, &k.TradeCount, &k.TakerBaseVolume, &k.TakerQuoteVolume,
	}
	if len(raw) < len(targets) {
		return fmt.Errorf("%w: expected at least %d columns, got %d", errMalformedKlineRow, len(targets), len(raw))
	}

	for i, target := range targets {
		if err := json.Unmarshal(raw[i], target); err != nil {
			return fmt.Errorf("%w: column %d: %v", errMalformedKlineRow, i, err)
		}
	}

	return nil
}

func RegisterImportKlinesFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("file", "", "path to a JSON array of exchange kline rows")
	flags.String("exchange", "", "exchange name (default: market_context.exchange)")
	flags.String("symbol", "", "kline symbol")
	flags.String("interval", constant.DefaultKlineInterval, "kline interval")
}

func StartImportKlines(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	filePath, _ := cmd.Flags().GetString("file")
	exchange, _ := cmd.Flags().GetString("exchange")
	symbol, _ := cmd.Flags().GetString("symbol")
	interval, _ := cmd.Flags().GetString("interval")
	if exchange == "" {
		exchange = config.Env.MarketContext.Exchange
	}

	data, err := os.ReadFile(filePath)
	util.ContinueOrFatal(err)

	klines, err := parseKlineRows(data, exchange, symbol, interval, time.Now().UTC())
	util.ContinueOrFatal(err)

	db, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database["market_data"])
	util.ContinueOrFatal(err)
	defer db.Close()

	imported, err := importKlines(ctx, repository.NewMarketKlineRepository(db), klines)
	util.ContinueOrFatal(err)

	logrus.WithFields(logrus.Fields{
		"exchange": exchange,
		"symbol":   symbol,
		"interval": interval,
		"count":    imported,
	}).Info("klines imported")
}

// parseKlineRows converts raw rows into candles. A candle counts as closed
// once its close time is before now.
func parseKlineRows(data []byte, exchange, symbol, interval string, now time.Time) ([]*entity.MarketKline, error) {
	exchange = strings.TrimSpace(exchange)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	interval = strings.TrimSpace(interval)
	if exchange == "" || symbol == "" || interval == "" {
		return nil, errors.New("exchange, symbol and interval are required")
	}

	var rows []klineRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	klines := make([]*entity.MarketKline, 0, len(rows))
	for _, row := range rows {
		closeTime := time.UnixMilli(row.CloseTime).UTC()
		klines = append(klines, &entity.MarketKline{
			Exchange:         exchange,
			EventType:        klineImportEventType,
			EventTime:        now,
			Symbol:           symbol,
			Interval:         interval,
			OpenTime:         time.UnixMilli(row.OpenTime).UTC(),
			CloseTime:        closeTime,
			OpenPrice:        row.Open,
			HighPrice:        row.High,
			LowPrice:         row.Low,
			ClosePrice:       row.Close,
			BaseVolume:       row.BaseVolume,
			QuoteVolume:      row.QuoteVolume,
			TakerBaseVolume:  row.TakerBaseVolume,
			TakerQuoteVolume: row.TakerQuoteVolume,
			TradeCount:       row.TradeCount,
			IsClosed:         closeTime.Before(now),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	return klines, nil
}

func importKlines(ctx context.Context, writer klineWriter, klines []*entity.MarketKline) (int, error) {
	for i, kline := range klines {
		if err := writer.Create(ctx, kline); err != nil {
			return i, fmt.Errorf("import kline %s: %w", kline.OpenTime.Format(time.RFC3339), err)
		}
	}

	return len(klines), nil
}
