package util

import "github.com/shopspring/decimal"

// Round rounds half away from zero to the given number of decimal places.
// Going through decimal keeps 100.016 from becoming 100.01.
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

func RoundFloor(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).RoundFloor(places).InexactFloat64()
}
