package pricing

import (
	"fmt"

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceBound identifies which policy bound a price violated
type PriceBound string

const (
	// BoundMin is the minimum selling price floor
	BoundMin PriceBound = "min"
	// BoundMax is the maximum selling price ceiling
	BoundMax PriceBound = "max"
)

// PriceViolation describes one violated bound, including the numeric limit
// so the caller can explain the rejection
type PriceViolation struct {
	Bound   PriceBound      `json:"bound"`
	Limit   decimal.Decimal `json:"limit"`
	Message string          `json:"message"`
}

// PriceValidation is the structured result of validating a proposed price.
// A failed validation is a business outcome, not an exception: both bounds
// may independently report a violation, and only the below-minimum condition
// can route to the approval workflow.
type PriceValidation struct {
	Valid            bool             `json:"valid"`
	RequiresApproval bool             `json:"requires_approval"`
	MinAllowedPrice  *decimal.Decimal `json:"min_allowed_price,omitempty"`
	Violations       []PriceViolation `json:"violations,omitempty"`
}

// ValidatePrice checks a proposed selling price against the resolved control.
// A nil control means no policy exists for the product, so any price passes.
func ValidatePrice(control *PricingControl, price decimal.Decimal) PriceValidation {
	result := PriceValidation{Valid: true}
	if control == nil {
		return result
	}
	result.MinAllowedPrice = control.MinSellingPrice

	if control.MinSellingPrice != nil && price.LessThan(*control.MinSellingPrice) {
		result.Valid = false
		result.RequiresApproval = control.RequireApprovalBelowMin
		result.Violations = append(result.Violations, PriceViolation{
			Bound:   BoundMin,
			Limit:   *control.MinSellingPrice,
			Message: fmt.Sprintf("price %s is below the minimum selling price %s", price.String(), control.MinSellingPrice.String()),
		})
	}
	if control.MaxSellingPrice != nil && price.GreaterThan(*control.MaxSellingPrice) {
		result.Valid = false
		// above-max is never approvable
		result.Violations = append(result.Violations, PriceViolation{
			Bound:   BoundMax,
			Limit:   *control.MaxSellingPrice,
			Message: fmt.Sprintf("price %s is above the maximum selling price %s", price.String(), control.MaxSellingPrice.String()),
		})
	}
	return result
}

// ValidateDiscount rejects a discount magnitude above the control's caps.
// Either percentage or amount (or both) may be supplied; nil means that
// dimension is not being requested.
func ValidateDiscount(control *PricingControl, percentage, amount *decimal.Decimal) error {
	if control == nil {
		return nil
	}
	if percentage != nil && control.MaxDiscountPercent != nil &&
		percentage.GreaterThan(*control.MaxDiscountPercent) {
		return shared.NewPriceOutOfRangeError(*percentage, *control.MaxDiscountPercent, "max discount percent")
	}
	if amount != nil && control.MaxDiscountAmount != nil &&
		amount.GreaterThan(*control.MaxDiscountAmount) {
		return shared.NewPriceOutOfRangeError(*amount, *control.MaxDiscountAmount, "max discount amount")
	}
	return nil
}

// MaxAllowedDiscount returns the largest discount the control permits on the
// original price: min(price * maxPercent/100, maxAmount) when an amount cap
// exists, otherwise just the percentage figure. Returns nil when the control
// sets no caps at all.
func MaxAllowedDiscount(control *PricingControl, originalPrice decimal.Decimal) *decimal.Decimal {
	if control == nil {
		return nil
	}
	var byPercent *decimal.Decimal
	if control.MaxDiscountPercent != nil {
		v := originalPrice.Mul(*control.MaxDiscountPercent).Div(decimal.NewFromInt(100))
		byPercent = &v
	}
	switch {
	case byPercent != nil && control.MaxDiscountAmount != nil:
		v := decimal.Min(*byPercent, *control.MaxDiscountAmount)
		return &v
	case byPercent != nil:
		return byPercent
	case control.MaxDiscountAmount != nil:
		v := *control.MaxDiscountAmount
		return &v
	default:
		return nil
	}
}

// MeetsMinimumMargin checks a proposed price against the control's minimum
// margin requirement given the batch's purchase price. Margin is
// (price - cost) / cost expressed as a percentage.
func MeetsMinimumMargin(control *PricingControl, price, purchasePrice decimal.Decimal) bool {
	if control == nil || control.MinMarginPercent == nil || purchasePrice.LessThanOrEqual(decimal.Zero) {
		return true
	}
	margin := price.Sub(purchasePrice).Div(purchasePrice).Mul(decimal.NewFromInt(100))
	return margin.GreaterThanOrEqual(*control.MinMarginPercent)
}
