package commissions

import (
	"github.com/shopspring/decimal"

	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
)

// RateSource names the level that supplied the resolved commission rate.
type RateSource string

const (
	RateSourceBrand    RateSource = "brand"
	RateSourceVendor   RateSource = "vendor"
	RateSourcePlatform RateSource = "platform"
)

var (
	rateFloor   = decimal.Zero
	rateCeiling = decimal.NewFromInt(1)
)

// ResolveRate picks the commission rate for one order item: the brand rate
// when set, else the owning vendor's rate, else the platform default. Pure
// function of its inputs.
//
// A missing brand or a brand without an owning vendor is a marketplace
// configuration problem, not a checkout bug; callers surface it to admins
// and skip commission creation rather than blocking the order.
func ResolveRate(brand *models.Brand, vendor *models.Vendor, platformDefault decimal.Decimal) (decimal.Decimal, RateSource, error) {
	if brand == nil {
		return decimal.Zero, "", pkgerrors.New(pkgerrors.CodeConfiguration, "product has no brand assigned")
	}
	if vendor == nil {
		return decimal.Zero, "", pkgerrors.New(pkgerrors.CodeConfiguration, "brand has no owning vendor")
	}

	if brand.CommissionRate != nil {
		if err := validateRate(*brand.CommissionRate); err != nil {
			return decimal.Zero, "", err
		}
		return *brand.CommissionRate, RateSourceBrand, nil
	}
	if vendor.CommissionRate != nil {
		if err := validateRate(*vendor.CommissionRate); err != nil {
			return decimal.Zero, "", err
		}
		return *vendor.CommissionRate, RateSourceVendor, nil
	}

	if err := validateRate(platformDefault); err != nil {
		return decimal.Zero, "", err
	}
	return platformDefault, RateSourcePlatform, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.LessThan(rateFloor) || rate.GreaterThan(rateCeiling) {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "commission rate outside [0,1]")
	}
	return nil
}
