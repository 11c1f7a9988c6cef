package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Scope is the level a discount applies at
type Scope string

const (
	// ScopeItem binds the discount to a single product
	ScopeItem Scope = "item"
	// ScopeCategory binds the discount to a product category
	ScopeCategory Scope = "category"
	// ScopeBill applies the discount to the whole bill
	ScopeBill Scope = "bill"
)

// IsValid checks if the scope is a known value
func (s Scope) IsValid() bool {
	return s == ScopeItem || s == ScopeCategory || s == ScopeBill
}

// Type is how the discount value is interpreted
type Type string

const (
	// TypePercentage discounts value percent of the amount
	TypePercentage Type = "percentage"
	// TypeFixed discounts a flat value
	TypeFixed Type = "fixed"
)

// IsValid checks if the type is a known value
func (t Type) IsValid() bool {
	return t == TypePercentage || t == TypeFixed
}

// POSDiscount is a reusable discount definition. It is never applied
// directly; the engine reads it to compute a TransactionDiscount.
type POSDiscount struct {
	shared.BaseEntity
	Name              string           `gorm:"type:varchar(255);not null"`
	Scope             Scope            `gorm:"type:varchar(16);not null;index"`
	Type              Type             `gorm:"type:varchar(16);not null"`
	Value             decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ProductID         *uuid.UUID       `gorm:"type:uuid;index"`
	CategoryID        *uuid.UUID       `gorm:"type:uuid;index"`
	BranchID          *uuid.UUID       `gorm:"type:uuid;index"`
	IsGlobal          bool             `gorm:"not null;default:false"`
	StartDate         *time.Time       `gorm:"index"`
	EndDate           *time.Time       `gorm:"index"`
	MinPurchaseAmount *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MinQuantity       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Priority          int              `gorm:"not null;default:100;index"` // lower evaluates first
	CashierCanApply   bool             `gorm:"not null;default:true"`
	RequiresApproval  bool             `gorm:"not null;default:false"`
	CanStack          bool             `gorm:"not null;default:false"`
	IsActive          bool             `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (POSDiscount) TableName() string {
	return "pos_discounts"
}

// Validate enforces the scope/binding invariant: item requires a product,
// category requires a category, bill requires neither.
func (d *POSDiscount) Validate() error {
	if !d.Scope.IsValid() {
		return shared.NewValidationError("unknown discount scope %q", d.Scope)
	}
	if !d.Type.IsValid() {
		return shared.NewValidationError("unknown discount type %q", d.Type)
	}
	if d.Value.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("discount value must be positive")
	}
	if d.Type == TypePercentage && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("percentage discount cannot exceed 100")
	}
	switch d.Scope {
	case ScopeItem:
		if d.ProductID == nil {
			return shared.NewValidationError("item-scoped discount requires a product binding")
		}
	case ScopeCategory:
		if d.CategoryID == nil {
			return shared.NewValidationError("category-scoped discount requires a category binding")
		}
	case ScopeBill:
		if d.ProductID != nil || d.CategoryID != nil {
			return shared.NewValidationError("bill-scoped discount cannot bind a product or category")
		}
	}
	if !d.IsGlobal && d.BranchID == nil {
		return shared.NewValidationError("discount requires a branch binding or the global flag")
	}
	if d.StartDate != nil && d.EndDate != nil && d.StartDate.After(*d.EndDate) {
		return shared.NewValidationError("discount start date is after its end date")
	}
	return nil
}

// Deactivate retires the definition. Deactivated discounts stay on record
// for applied-discount history but never match applicability queries.
func (d *POSDiscount) Deactivate(at time.Time) {
	d.IsActive = false
	d.UpdatedAt = at
}

// IsValidAt checks the active flag and validity window
func (d *POSDiscount) IsValidAt(ref time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartDate != nil && ref.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && ref.After(*d.EndDate) {
		return false
	}
	return true
}

// AppliesAtBranch checks the branch binding (global discounts apply anywhere)
func (d *POSDiscount) AppliesAtBranch(branchID uuid.UUID) bool {
	if d.IsGlobal {
		return true
	}
	return d.BranchID != nil && *d.BranchID == branchID
}

// MeetsMinimums checks the minimum purchase amount and quantity
func (d *POSDiscount) MeetsMinimums(amount, quantity decimal.Decimal) bool {
	if d.MinPurchaseAmount != nil && amount.LessThan(*d.MinPurchaseAmount) {
		return false
	}
	if d.MinQuantity != nil && quantity.LessThan(*d.MinQuantity) {
		return false
	}
	return true
}

// CalculateDiscount computes the monetary reduction for the amount and
// quantity at the reference time. It returns zero when the validity window
// excludes the reference time or the minimums are unmet. The result is
// capped at MaxDiscountAmount when set and never exceeds the amount itself:
// a discount cannot make a line negative.
func (d *POSDiscount) CalculateDiscount(amount, quantity decimal.Decimal, ref time.Time) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	if !d.IsValidAt(ref) || !d.MeetsMinimums(amount, quantity) {
		return decimal.Zero
	}

	var value decimal.Decimal
	switch d.Type {
	case TypePercentage:
		value = amount.Mul(d.Value).Div(decimal.NewFromInt(100))
	case TypeFixed:
		value = d.Value
	default:
		return decimal.Zero
	}

	if d.MaxDiscountAmount != nil && value.GreaterThan(*d.MaxDiscountAmount) {
		value = *d.MaxDiscountAmount
	}
	if value.GreaterThan(amount) {
		value = amount
	}
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}
