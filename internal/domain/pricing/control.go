package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PricingControl is the per-product price policy. A record with a nil
// BranchID is global; a branch-specific record takes priority over the
// global one for the same product.
type PricingControl struct {
	shared.BaseEntity
	ProductID               uuid.UUID        `gorm:"type:uuid;not null;index:idx_controls_product_branch"`
	BranchID                *uuid.UUID       `gorm:"type:uuid;index:idx_controls_product_branch"`
	DefaultSellingPrice     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	MinSellingPrice         *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MaxSellingPrice         *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MaxDiscountPercent      *decimal.Decimal `gorm:"type:decimal(8,4)"`
	MaxDiscountAmount       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MinMarginPercent        *decimal.Decimal `gorm:"type:decimal(8,4)"`
	AllowManualPrice        bool             `gorm:"not null;default:false"`
	RequireApprovalBelowMin bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PricingControl) TableName() string {
	return "pricing_controls"
}

// NewPricingControl creates a pricing control. branchID nil means global.
func NewPricingControl(productID uuid.UUID, branchID *uuid.UUID, defaultPrice decimal.Decimal, now time.Time) (*PricingControl, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("pricing control requires a product id")
	}
	if defaultPrice.IsNegative() {
		return nil, shared.NewValidationError("default selling price cannot be negative")
	}
	return &PricingControl{
		BaseEntity:              shared.NewBaseEntity(now),
		ProductID:               productID,
		BranchID:                branchID,
		DefaultSellingPrice:     defaultPrice,
		AllowManualPrice:        false,
		RequireApprovalBelowMin: true,
	}, nil
}

// IsGlobal returns true when the control applies to every branch
func (c *PricingControl) IsGlobal() bool {
	return c.BranchID == nil
}

// Validate checks internal consistency of the bounds
func (c *PricingControl) Validate() error {
	if c.MinSellingPrice != nil && c.MaxSellingPrice != nil &&
		c.MinSellingPrice.GreaterThan(*c.MaxSellingPrice) {
		return shared.NewValidationError("min selling price %s exceeds max selling price %s",
			c.MinSellingPrice.String(), c.MaxSellingPrice.String())
	}
	if c.MaxDiscountPercent != nil &&
		(c.MaxDiscountPercent.IsNegative() || c.MaxDiscountPercent.GreaterThan(decimal.NewFromInt(100))) {
		return shared.NewValidationError("max discount percent must be between 0 and 100")
	}
	if c.MaxDiscountAmount != nil && c.MaxDiscountAmount.IsNegative() {
		return shared.NewValidationError("max discount amount cannot be negative")
	}
	return nil
}

// ResolveControl applies the single precedence rule of the component:
// branch wins over global. Either argument may be nil.
func ResolveControl(branchControl, globalControl *PricingControl) *PricingControl {
	if branchControl != nil {
		return branchControl
	}
	return globalControl
}
