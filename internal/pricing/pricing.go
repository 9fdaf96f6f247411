// Package pricing computes the derived selling amount included in a
// trade-in submission. The business intent behind the coefficients is owned
// by the pricing team, so the rule is a pluggable collaborator with injected
// coefficients rather than a hard-coded formula.
package pricing

import "github.com/shopspring/decimal"

// Rule derives the selling amount from the final quoted amount.
type Rule interface {
	SellingAmount(finalAmount decimal.Decimal) decimal.Decimal
}

// LinearRule is the default rule: selling = final*multiplier + offset,
// rounded half-up to 2 places.
type LinearRule struct {
	Multiplier decimal.Decimal
	Offset     decimal.Decimal
}

func NewLinearRule(multiplier, offset string) (LinearRule, error) {
	m, err := decimal.NewFromString(multiplier)
	if err != nil {
		return LinearRule{}, err
	}
	o, err := decimal.NewFromString(offset)
	if err != nil {
		return LinearRule{}, err
	}
	return LinearRule{Multiplier: m, Offset: o}, nil
}

func (r LinearRule) SellingAmount(finalAmount decimal.Decimal) decimal.Decimal {
	return finalAmount.Mul(r.Multiplier).Add(r.Offset).Round(2)
}

var _ Rule = LinearRule{}
