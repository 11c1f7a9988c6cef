package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ActionKind is the typed event vocabulary of the audit ledger. Readers
// switch on kinds; free-text action strings are not accepted.
type ActionKind string

const (
	// ActionDiscountApplied records a discount applied to a transaction
	ActionDiscountApplied ActionKind = "discount_applied"
	// ActionDiscountApproved records a supervisor approving a pending discount
	ActionDiscountApproved ActionKind = "discount_approved"
	// ActionManualDiscountApplied records an ad-hoc discount with no definition
	ActionManualDiscountApplied ActionKind = "manual_discount_applied"
	// ActionDiscountCreated records a new discount definition
	ActionDiscountCreated ActionKind = "discount_created"
	// ActionDiscountModified records an edit or deactivation of a definition
	ActionDiscountModified ActionKind = "discount_modified"
	// ActionOverrideRequested records a price override request being opened
	ActionOverrideRequested ActionKind = "override_requested"
	// ActionOverrideApproved records a price override approval
	ActionOverrideApproved ActionKind = "override_approved"
	// ActionOverrideDenied records a price override denial
	ActionOverrideDenied ActionKind = "override_denied"
	// ActionOverrideExpired records the lazy expiry of an override request
	ActionOverrideExpired ActionKind = "override_expired"
	// ActionPriceRejected records a selling price blocked by pricing policy
	ActionPriceRejected ActionKind = "price_rejected"
	// ActionPricingControlChanged records an edit to a pricing control
	ActionPricingControlChanged ActionKind = "pricing_control_changed"
	// ActionBatchCreated records a new inventory batch being received
	ActionBatchCreated ActionKind = "batch_created"
	// ActionBatchDeducted records quantity leaving a batch at sale time
	ActionBatchDeducted ActionKind = "batch_deducted"
)

var knownKinds = map[ActionKind]struct{}{
	ActionDiscountApplied:       {},
	ActionDiscountApproved:      {},
	ActionManualDiscountApplied: {},
	ActionDiscountCreated:       {},
	ActionDiscountModified:      {},
	ActionOverrideRequested:     {},
	ActionOverrideApproved:      {},
	ActionOverrideDenied:        {},
	ActionOverrideExpired:       {},
	ActionPriceRejected:         {},
	ActionPricingControlChanged: {},
	ActionBatchCreated:          {},
	ActionBatchDeducted:         {},
}

// IsValid reports whether the kind belongs to the ledger vocabulary
func (k ActionKind) IsValid() bool {
	_, ok := knownKinds[k]
	return ok
}

// POSAuditLog is one append-only ledger entry. Entries are never updated
// or deleted; corrections are new entries.
type POSAuditLog struct {
	shared.BaseEntity
	Action        ActionKind       `gorm:"type:varchar(40);not null;index"`
	BranchID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	ActorID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	ActorName     string           `gorm:"type:varchar(255);not null"`
	EntityType    string           `gorm:"type:varchar(50);not null"`
	EntityID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	TransactionID string           `gorm:"type:varchar(100);index"`
	ApproverID    *uuid.UUID       `gorm:"type:uuid"`
	OldValue      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	NewValue      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Amount        decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Detail        string           `gorm:"type:varchar(500)"`
	Reason        string           `gorm:"type:varchar(500)"`
	Metadata      map[string]any   `gorm:"type:jsonb;serializer:json"`
	OccurredAt    time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (POSAuditLog) TableName() string {
	return "pos_audit_logs"
}

// Entry is the required input for one ledger append. NewEntry is the only
// way to build a POSAuditLog, so a record cannot exist without its actor,
// branch, subject and kind.
type Entry struct {
	Action        ActionKind
	EntityType    string
	EntityID      uuid.UUID
	TransactionID string
	ApproverID    *uuid.UUID
	OldValue      *decimal.Decimal
	NewValue      *decimal.Decimal
	Amount        decimal.Decimal
	Detail        string
	Reason        string
	Metadata      map[string]any
}

// NewEntry builds a ledger record from the operator context and entry.
// Every required field is validated here rather than at write time.
func NewEntry(op shared.OperatorContext, e Entry) (*POSAuditLog, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if !e.Action.IsValid() {
		return nil, shared.NewValidationError("unknown audit action %q", string(e.Action))
	}
	if e.EntityType == "" || e.EntityID == uuid.Nil {
		return nil, shared.NewValidationError("audit entry requires a subject entity")
	}

	return &POSAuditLog{
		BaseEntity:    shared.NewBaseEntity(op.Now),
		Action:        e.Action,
		BranchID:      op.BranchID,
		ActorID:       op.ActorID,
		ActorName:     op.ActorName,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		TransactionID: e.TransactionID,
		ApproverID:    e.ApproverID,
		OldValue:      e.OldValue,
		NewValue:      e.NewValue,
		Amount:        e.Amount,
		Detail:        e.Detail,
		Reason:        e.Reason,
		Metadata:      e.Metadata,
		OccurredAt:    op.Now,
	}, nil
}
