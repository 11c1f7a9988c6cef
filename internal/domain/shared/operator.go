package shared

import (
	"time"

	"github.com/google/uuid"
)

// Capability is one permission an operator may hold. Authorization checks
// test capabilities, never role names, so policy changes stay in one place.
type Capability uint8

const (
	// CapabilityApplyDiscount allows applying pre-approved discounts at the till
	CapabilityApplyDiscount Capability = 1 << iota
	// CapabilityApproveDiscount allows applying discounts flagged as
	// supervisor-only and approving pending discount applications
	CapabilityApproveDiscount
	// CapabilityApproveOverride allows resolving price override requests
	CapabilityApproveOverride
	// CapabilityManagePricing allows editing pricing controls
	CapabilityManagePricing
	// CapabilityCreateGlobalDiscount allows defining discounts that apply
	// across all branches
	CapabilityCreateGlobalDiscount
)

// Authority is the capability set held by an operator
type Authority uint8

// NewAuthority builds an authority from individual capabilities
func NewAuthority(caps ...Capability) Authority {
	var a Authority
	for _, c := range caps {
		a |= Authority(c)
	}
	return a
}

// Can reports whether the authority includes the capability
func (a Authority) Can(c Capability) bool {
	return a&Authority(c) != 0
}

// With returns a copy of the authority extended with the capability
func (a Authority) With(c Capability) Authority {
	return a | Authority(c)
}

// CashierAuthority is the baseline till authority
var CashierAuthority = NewAuthority(CapabilityApplyDiscount)

// SupervisorAuthority can resolve approvals on the floor
var SupervisorAuthority = NewAuthority(
	CapabilityApplyDiscount,
	CapabilityApproveDiscount,
	CapabilityApproveOverride,
)

// ManagerAuthority additionally manages pricing policy and global discounts
var ManagerAuthority = SupervisorAuthority.
	With(CapabilityManagePricing).
	With(CapabilityCreateGlobalDiscount)

// OperatorContext identifies who performs an operation, where, with what
// authority, and at what time. Every mutating operation takes one; nothing
// in the domain reads the wall clock or an ambient session.
type OperatorContext struct {
	ActorID   uuid.UUID
	ActorName string
	BranchID  uuid.UUID
	Authority Authority
	Now       time.Time
}

// Can reports whether the operator holds the capability
func (op OperatorContext) Can(c Capability) bool {
	return op.Authority.Can(c)
}

// IsCashier reports whether the operator lacks approval authority and is
// therefore subject to cashier-side restrictions
func (op OperatorContext) IsCashier() bool {
	return !op.Authority.Can(CapabilityApproveDiscount)
}

// Validate checks the context carries enough identity to be audited
func (op OperatorContext) Validate() error {
	if op.ActorID == uuid.Nil {
		return NewValidationError("operator context requires an actor id")
	}
	if op.BranchID == uuid.Nil {
		return NewValidationError("operator context requires a branch id")
	}
	if op.Now.IsZero() {
		return NewValidationError("operator context requires a timestamp")
	}
	return nil
}
