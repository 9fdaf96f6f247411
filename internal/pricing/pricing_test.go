package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewLinearRule(t *testing.T) {
	_, err := NewLinearRule("0.9", "-100")
	assert.NoError(t, err)

	_, err = NewLinearRule("not-a-number", "0")
	assert.Error(t, err)

	_, err = NewLinearRule("1", "not-a-number")
	assert.Error(t, err)
}

func Test_LinearRule_SellingAmount(t *testing.T) {
	testCases := []struct {
		name        string
		multiplier  string
		offset      string
		finalAmount string
		want        string
	}{
		{name: "identity", multiplier: "1", offset: "0", finalAmount: "12000", want: "12000"},
		{name: "margin and fee", multiplier: "0.9", offset: "-100", finalAmount: "12000", want: "10700"},
		{name: "rounds half up to 2 places", multiplier: "0.333", offset: "0", finalAmount: "100.55", want: "33.48"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := NewLinearRule(tc.multiplier, tc.offset)
			require.NoError(t, err)

			finalAmount, err := decimal.NewFromString(tc.finalAmount)
			require.NoError(t, err)

			assert.Equal(t, tc.want, rule.SellingAmount(finalAmount).String())
		})
	}
}
