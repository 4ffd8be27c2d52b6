package billing

import "math"

// RateTable maps payment method to a fee rate (e.g. 0.02 for 2%).
type RateTable interface {
	FeeRate(method string) float64
}

// CalculateFee splits amount into (fee, net) using the table's rate for the
// given payment method. Both values are rounded to 2 decimals and always
// satisfy fee + net == amount.
func CalculateFee(table RateTable, amount float64, method string) (fee, net float64) {
	fee = Round2(amount * table.FeeRate(method))
	net = Round2(amount - fee)
	return fee, net
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
