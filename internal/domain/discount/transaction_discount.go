package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApprovalStatus is the finalization state of an applied discount
type ApprovalStatus string

const (
	// ApprovalStatusApproved means the discount is finalized
	ApprovalStatusApproved ApprovalStatus = "approved"
	// ApprovalStatusPending means the discount was recorded but awaits an
	// approver before it counts
	ApprovalStatusPending ApprovalStatus = "pending"
)

// TransactionDiscount is the immutable record of one discount actually
// applied to one transaction. DiscountID is nil for manual/ad-hoc discounts.
// Never mutated after creation.
type TransactionDiscount struct {
	shared.BaseEntity
	TransactionID    string           `gorm:"type:varchar(100);not null;index"`
	DiscountID       *uuid.UUID       `gorm:"type:uuid;index"`
	Scope            Scope            `gorm:"type:varchar(16);not null"`
	Type             Type             `gorm:"type:varchar(16);not null"`
	Value            decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	BranchID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	OriginalAmount   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	DiscountAmount   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	FinalAmount      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	RequiredApproval bool             `gorm:"not null;default:false"`
	ApprovalStatus   ApprovalStatus   `gorm:"type:varchar(16);not null;default:'approved'"`
	AppliedBy        uuid.UUID        `gorm:"type:uuid;not null"`
	ApprovedBy       *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (TransactionDiscount) TableName() string {
	return "transaction_discounts"
}

// NewTransactionDiscount records a discount application. All monetary fields
// are snapshots; the record stays meaningful even if the definition changes
// later.
func NewTransactionDiscount(
	transactionID string,
	discountID *uuid.UUID,
	scope Scope,
	discountType Type,
	value decimal.Decimal,
	branchID uuid.UUID,
	originalAmount, discountAmount decimal.Decimal,
	requiredApproval bool,
	appliedBy uuid.UUID,
	approvedBy *uuid.UUID,
	now time.Time,
) (*TransactionDiscount, error) {
	if transactionID == "" {
		return nil, shared.NewValidationError("transaction discount requires a transaction id")
	}
	if branchID == uuid.Nil || appliedBy == uuid.Nil {
		return nil, shared.NewValidationError("transaction discount requires branch and actor identifiers")
	}
	if discountAmount.IsNegative() || discountAmount.GreaterThan(originalAmount) {
		return nil, shared.NewValidationError("discount amount %s must be within [0, %s]",
			discountAmount.String(), originalAmount.String())
	}

	status := ApprovalStatusApproved
	if requiredApproval && approvedBy == nil {
		status = ApprovalStatusPending
	}
	return &TransactionDiscount{
		BaseEntity:       shared.NewBaseEntity(now),
		TransactionID:    transactionID,
		DiscountID:       discountID,
		Scope:            scope,
		Type:             discountType,
		Value:            value,
		BranchID:         branchID,
		OriginalAmount:   originalAmount,
		DiscountAmount:   discountAmount,
		FinalAmount:      originalAmount.Sub(discountAmount),
		RequiredApproval: requiredApproval,
		ApprovalStatus:   status,
		AppliedBy:        appliedBy,
		ApprovedBy:       approvedBy,
	}, nil
}

// IsFinalized returns true when the discount counts toward the transaction
func (td *TransactionDiscount) IsFinalized() bool {
	return td.ApprovalStatus == ApprovalStatusApproved
}
