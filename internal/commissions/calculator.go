package commissions

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
)

// Breakdown is the arithmetic result of one commission computation.
// NetAmount = CommissionAmount - PlatformFee and is never negative: when the
// configured fee exceeds the commission the fee is capped at the commission
// amount, so the identity still holds with NetAmount = 0.
type Breakdown struct {
	GrossAmount      decimal.Decimal
	Rate             decimal.Decimal
	CommissionAmount decimal.Decimal
	PlatformFee      decimal.Decimal
	NetAmount        decimal.Decimal
}

// Calculate produces the commission breakdown for one order item.
// CommissionAmount is gross*rate rounded half-up to 2 decimal places.
func Calculate(gross decimal.Decimal, rate decimal.Decimal, platformFee decimal.Decimal) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must not be negative")
	}
	if err := validateRate(rate); err != nil {
		return Breakdown{}, err
	}
	if platformFee.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeConfiguration, "platform fee must not be negative")
	}

	amount := gross.Mul(rate).Round(2)
	fee := platformFee.Round(2)
	if fee.GreaterThan(amount) {
		fee = amount
	}

	return Breakdown{
		GrossAmount:      gross.Round(2),
		Rate:             rate,
		CommissionAmount: amount,
		PlatformFee:      fee,
		NetAmount:        amount.Sub(fee),
	}, nil
}
