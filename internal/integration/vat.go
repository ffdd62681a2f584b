package integration

import (
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerpost/internal/domain"
)

// SplitVAT splits a VAT-inclusive gross amount at rate into its net and VAT
// parts. VAT is rounded half away from zero to two places and net is what
// remains, so net + vat always equals gross.
func SplitVAT(gross, rate decimal.Decimal) (net, vat decimal.Decimal) {
	if rate.IsZero() {
		return gross, decimal.Zero
	}
	vat = gross.Mul(rate).Div(decimal.NewFromInt(1).Add(rate)).Round(domain.AmountScale)
	return gross.Sub(vat), vat
}
