package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testRates struct {
	rates       map[string]float64
	defaultRate float64
}

func (t testRates) FeeRate(method string) float64 {
	if rate, ok := t.rates[method]; ok {
		return rate
	}
	return t.defaultRate
}

var defaultTable = testRates{
	rates: map[string]float64{
		"pix":         0.0099,
		"boleto":      0.0199,
		"credit_card": 0.0399,
	},
	defaultRate: 0.02,
}

func TestCalculateFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		method  string
		wantFee float64
		wantNet float64
	}{
		{"pix", 100.00, "pix", 0.99, 99.01},
		{"boleto", 100.00, "boleto", 1.99, 98.01},
		{"credit card", 100.00, "credit_card", 3.99, 96.01},
		{"unknown method uses default", 100.00, "cash", 2.00, 98.00},
		{"rounding", 10.01, "credit_card", 0.40, 9.61},
		{"small amount", 0.50, "pix", 0.00, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := CalculateFee(defaultTable, tt.amount, tt.method)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantNet, net)
		})
	}
}

func TestCalculateFeeIsDeterministic(t *testing.T) {
	fee1, net1 := CalculateFee(defaultTable, 100.00, "pix")
	fee2, net2 := CalculateFee(defaultTable, 100.00, "pix")
	assert.Equal(t, fee1, fee2)
	assert.Equal(t, net1, net2)
}

// fee + net must reconstruct the original amount exactly at 2-decimal
// precision, for every method.
func TestFeePlusNetEqualsAmount(t *testing.T) {
	amounts := []float64{0.01, 1.00, 9.99, 100.00, 123.45, 9999.99}
	methods := []string{"pix", "boleto", "credit_card", "unknown"}

	for _, amount := range amounts {
		for _, method := range methods {
			fee, net := CalculateFee(defaultTable, amount, method)
			assert.Equal(t, amount, Round2(fee+net), "amount=%v method=%s", amount, method)
		}
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, 2.00, Round2(1.999))
	assert.Equal(t, 0.00, Round2(0.004))
}
