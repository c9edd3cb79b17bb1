package bootstrap

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
	"github.com/krobus00/execution-simulator/internal/config"
	"github.com/krobus00/execution-simulator/internal/entity"
	"github.com/krobus00/execution-simulator/internal/util"
	"github.com/spf13/cobra"
)

// RegisterSimulateFlags declares the flags read by StartSimulate.
func RegisterSimulateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("mode", "", "fill mode instant|realistic|historical (default: simulator.mode)")
	flags.Uint64("seed", 0, "random seed, 0 seeds from the clock (default: simulator.seed)")
	flags.String("exchange", "", "exchange name")
	flags.String("symbol", "BTCUSDT", "symbol")
	flags.String("side", "BUY", "order side BUY|SELL")
	flags.String("type", "MARKET", "order type MARKET|LIMIT")
	flags.Float64("quantity", 1, "order quantity")
	flags.Float64("price", 0, "signal price")
	flags.Int64("signal-time", 0, "signal time in unix milliseconds, 0 means now")
	flags.Float64("volatility", 0, "market volatility")
	flags.Float64("high", 0, "next candle high")
	flags.Float64("low", 0, "next candle low")
	flags.Float64("close", 0, "next candle close")
}

func StartSimulate(cmd *cobra.Command, args []string) {
	err := runSimulate(cmd.Context(), cmd, cmd.OutOrStdout())
	util.ContinueOrFatal(err)
}

func runSimulate(ctx context.Context, cmd *cobra.Command, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	simConfig := config.SimulatorConfig{}
	if config.Env != nil {
		simConfig = config.Env.Simulator
	}
	flags := cmd.Flags()
	if flags.Changed("mode") {
		simConfig.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("seed") {
		simConfig.Seed, _ = flags.GetUint64("seed")
	}

	sim, err := newSimulator(simConfig)
	if err != nil {
		return err
	}

	req, err := simulateRequestFromFlags(cmd)
	if err != nil {
		return err
	}

	report, err := sim.Execute(ctx, req)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	_, err = out.Write(append(payload, '\n'))
	return err
}

func simulateRequestFromFlags(cmd *cobra.Command) (entity.OrderRequest, error) {
	flags := cmd.Flags()

	exchange, _ := flags.GetString("exchange")
	symbol, _ := flags.GetString("symbol")
	side, _ := flags.GetString("side")
	orderType, _ := flags.GetString("type")
	quantity, _ := flags.GetFloat64("quantity")
	price, _ := flags.GetFloat64("price")
	signalTimeMs, _ := flags.GetInt64("signal-time")

	req := entity.OrderRequest{
		Exchange:    exchange,
		Symbol:      symbol,
		Side:        entity.OrderSide(strings.ToUpper(side)),
		Type:        entity.OrderType(strings.ToUpper(orderType)),
		Quantity:    quantity,
		SignalPrice: price,
	}
	if signalTimeMs > 0 {
		req.SignalTime = time.UnixMilli(signalTimeMs).UTC()
	}

	mc := &entity.MarketContext{}
	for name, field := range map[string]*null.Float{
		"volatility": &mc.Volatility,
		"high":       &mc.High,
		"low":        &mc.Low,
		"close":      &mc.Close,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetFloat64(name)
		if err != nil {
			return entity.OrderRequest{}, err
		}
		*field = null.FloatFrom(value)
	}
	if !mc.IsEmpty() {
		req.MarketContext = mc
	}

	return req, nil
}
