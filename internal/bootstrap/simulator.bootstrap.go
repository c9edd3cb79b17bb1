package bootstrap

import (
	"github.com/krobus00/execution-simulator/internal/config"
	"github.com/krobus00/execution-simulator/internal/service/simulator"
	"github.com/sirupsen/logrus"
)

func newSimulator(cfg config.SimulatorConfig) (*simulator.Simulator, error) {
	mode, err := simulator.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	sim, err := simulator.New(mode,
		simulator.WithRandomSource(simulator.NewRandomSource(cfg.Seed)),
		simulator.WithRealisticParams(realisticParamsFromConfig(cfg.Realistic)),
		simulator.WithHistoricalParams(historicalParamsFromConfig(cfg.Historical)),
	)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"mode": mode,
		"seed": cfg.Seed,
	}).Info("execution simulator ready")

	return sim, nil
}

func realisticParamsFromConfig(cfg config.RealisticSimulatorConfig) simulator.RealisticParams {
	params := simulator.DefaultRealisticParams()

	override(&params.MinDelay, cfg.MinDelay)
	override(&params.MaxDelay, cfg.MaxDelay)
	override(&params.MinSpread, cfg.MinSpread)
	override(&params.MaxSpread, cfg.MaxSpread)
	override(&params.MarketImpactRate, cfg.MarketImpactRate)
	override(&params.MarketImpactCap, cfg.MarketImpactCap)
	override(&params.VolatilityRate, cfg.VolatilityRate)
	override(&params.PartialFillMinQuantity, cfg.PartialFillMinQuantity)
	override(&params.PartialFillProbability, cfg.PartialFillProbability)
	override(&params.PartialFillMinPercentage, cfg.PartialFillMinPercentage)
	override(&params.PartialFillMaxPercentage, cfg.PartialFillMaxPercentage)

	return params
}

func historicalParamsFromConfig(cfg config.HistoricalSimulatorConfig) simulator.HistoricalParams {
	params := simulator.DefaultHistoricalParams()

	override(&params.MinDelay, cfg.MinDelay)
	override(&params.MaxDelay, cfg.MaxDelay)
	override(&params.MinInterpolation, cfg.MinInterpolation)
	override(&params.MaxInterpolation, cfg.MaxInterpolation)

	return params
}

func override[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}
