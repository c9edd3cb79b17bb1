package simulator

import (
	"math"

	"github.com/krobus00/execution-simulator/internal/util"
)

const pricePlaces = 2

// minimumPrice keeps a fill strictly positive when slippage would push a
// sell to zero or below.
const minimumPrice = 1e-8

// fitPrice rounds price to cents when the rounded value stays inside
// [lower, upper]. Otherwise the exact price is kept, so sub-cent prices
// never cross the signal or leave the candle.
func fitPrice(price, lower, upper float64) float64 {
	rounded := util.Round(price, pricePlaces)
	if rounded > 0 && rounded >= lower && rounded <= upper {
		return rounded
	}

	return price
}

var noUpperBound = math.Inf(1)
