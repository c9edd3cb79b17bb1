package simulator

import "math"

// CalculateSlippage returns the absolute deviation of filledPrice from
// signalPrice in percent. A non-positive signalPrice yields 0.
func CalculateSlippage(signalPrice, filledPrice float64) float64 {
	if signalPrice <= 0 {
		return 0
	}

	return math.Abs(filledPrice-signalPrice) / signalPrice * 100
}
