package override

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a price override request
type Status string

const (
	// StatusPending means the request awaits an approver
	StatusPending Status = "pending"
	// StatusApproved means an authorized approver accepted the price
	StatusApproved Status = "approved"
	// StatusDenied means an authorized approver rejected the price
	StatusDenied Status = "denied"
	// StatusExpired means the request aged out before resolution
	StatusExpired Status = "expired"
)

// DefaultTTL is how long a request stays resolvable when no policy value
// is configured
const DefaultTTL = 30 * time.Minute

// PriceOverrideRequest asks permission to sell at a price outside the
// allowed range. It is resolved at most once; expiry is evaluated lazily
// against the caller's reference time, never a background sweeper.
type PriceOverrideRequest struct {
	shared.BaseEntity
	ProductID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	BranchID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	BatchID         *uuid.UUID       `gorm:"type:uuid"`
	TransactionID   string           `gorm:"type:varchar(100);index"`
	OriginalPrice   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	RequestedPrice  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	MinAllowedPrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Quantity        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Reason          string           `gorm:"type:varchar(500);not null"`
	Status          Status           `gorm:"type:varchar(16);not null;default:'pending';index"`
	RequestedBy     uuid.UUID        `gorm:"type:uuid;not null"`
	RequestedByName string           `gorm:"type:varchar(255);not null"`
	ResolvedBy      *uuid.UUID       `gorm:"type:uuid"`
	ResolvedByName  string           `gorm:"type:varchar(255)"`
	ResolvedAt      *time.Time       `gorm:""`
	DenialReason    string           `gorm:"type:varchar(500)"`
	ExpiresAt       time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PriceOverrideRequest) TableName() string {
	return "price_override_requests"
}

// NewPriceOverrideRequest opens a pending request on behalf of the operator.
// The expiry deadline is fixed at creation from the operator's clock.
func NewPriceOverrideRequest(
	op shared.OperatorContext,
	productID uuid.UUID,
	batchID *uuid.UUID,
	transactionID string,
	originalPrice, requestedPrice, quantity decimal.Decimal,
	reason string,
	ttl time.Duration,
) (*PriceOverrideRequest, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("override request requires a product id")
	}
	if requestedPrice.IsNegative() {
		return nil, shared.NewValidationError("requested price cannot be negative")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("override quantity must be positive")
	}
	if reason == "" {
		return nil, shared.NewValidationError("override request requires a reason")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &PriceOverrideRequest{
		BaseEntity:      shared.NewBaseEntity(op.Now),
		ProductID:       productID,
		BranchID:        op.BranchID,
		BatchID:         batchID,
		TransactionID:   transactionID,
		OriginalPrice:   originalPrice,
		RequestedPrice:  requestedPrice,
		Quantity:        quantity,
		Reason:          reason,
		Status:          StatusPending,
		RequestedBy:     op.ActorID,
		RequestedByName: op.ActorName,
		ExpiresAt:       op.Now.Add(ttl),
	}, nil
}

// EffectiveStatusAt reports the status as observed at ref. A stored pending
// request past its deadline reads as expired even before any write happens.
func (r *PriceOverrideRequest) EffectiveStatusAt(ref time.Time) Status {
	if r.Status == StatusPending && ref.After(r.ExpiresAt) {
		return StatusExpired
	}
	return r.Status
}

// IsPendingAt reports whether the request can still be resolved at ref
func (r *PriceOverrideRequest) IsPendingAt(ref time.Time) bool {
	return r.EffectiveStatusAt(ref) == StatusPending
}

// AmountImpact is the revenue reduction the override represents:
// (original - requested) * quantity. Negative for upward overrides.
func (r *PriceOverrideRequest) AmountImpact() decimal.Decimal {
	return r.OriginalPrice.Sub(r.RequestedPrice).Mul(r.Quantity)
}

// Approve transitions the request to approved. The approver must hold the
// override capability and cannot approve their own request. Returns false
// with no error when the request was already approved, so retries stay
// idempotent.
func (r *PriceOverrideRequest) Approve(op shared.OperatorContext) (bool, error) {
	if err := op.Validate(); err != nil {
		return false, err
	}
	if !op.Can(shared.CapabilityApproveOverride) {
		return false, shared.ErrUnauthorizedApprover
	}
	if op.ActorID == r.RequestedBy {
		return false, shared.NewDomainError(shared.CodeUnauthorizedApprover,
			"Requester cannot approve their own override")
	}

	switch r.EffectiveStatusAt(op.Now) {
	case StatusApproved:
		return false, nil
	case StatusDenied:
		return false, shared.ErrConcurrencyConflict
	case StatusExpired:
		return false, shared.ErrExpiredRequest
	}

	r.Status = StatusApproved
	r.ResolvedBy = &op.ActorID
	r.ResolvedByName = op.ActorName
	resolvedAt := op.Now
	r.ResolvedAt = &resolvedAt
	r.UpdatedAt = op.Now
	return true, nil
}

// Deny transitions the request to denied with a mandatory reason.
// Same idempotency contract as Approve.
func (r *PriceOverrideRequest) Deny(op shared.OperatorContext, reason string) (bool, error) {
	if err := op.Validate(); err != nil {
		return false, err
	}
	if !op.Can(shared.CapabilityApproveOverride) {
		return false, shared.ErrUnauthorizedApprover
	}
	if reason == "" {
		return false, shared.NewValidationError("denial requires a reason")
	}

	switch r.EffectiveStatusAt(op.Now) {
	case StatusDenied:
		return false, nil
	case StatusApproved:
		return false, shared.ErrConcurrencyConflict
	case StatusExpired:
		return false, shared.ErrExpiredRequest
	}

	r.Status = StatusDenied
	r.ResolvedBy = &op.ActorID
	r.ResolvedByName = op.ActorName
	resolvedAt := op.Now
	r.ResolvedAt = &resolvedAt
	r.DenialReason = reason
	r.UpdatedAt = op.Now
	return true, nil
}

// MarkExpired persists the lazy expiry observation onto the record
func (r *PriceOverrideRequest) MarkExpired(ref time.Time) bool {
	if r.Status != StatusPending || !ref.After(r.ExpiresAt) {
		return false
	}
	r.Status = StatusExpired
	r.UpdatedAt = ref
	return true
}
