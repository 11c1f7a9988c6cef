package pos

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/discount"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/pricing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DiscountService evaluates, arbitrates and applies POS discounts
type DiscountService struct {
	scope          TransactionScope
	discountRepo   discount.Repository
	pricingRepo    pricing.Repository
	credentialRepo override.CredentialRepository
}

// NewDiscountService creates a new DiscountService
func NewDiscountService(
	scope TransactionScope,
	discountRepo discount.Repository,
	pricingRepo pricing.Repository,
	credentialRepo override.CredentialRepository,
) *DiscountService {
	return &DiscountService{
		scope:          scope,
		discountRepo:   discountRepo,
		pricingRepo:    pricingRepo,
		credentialRepo: credentialRepo,
	}
}

// ApplicableForProduct lists the discounts the operator could apply to a
// product line right now. Cashiers only see cashier-applicable discounts.
func (s *DiscountService) ApplicableForProduct(ctx context.Context, op shared.OperatorContext, productID uuid.UUID, categoryID *uuid.UUID) ([]DiscountResponse, error) {
	discounts, err := s.discountRepo.FindApplicableForProduct(ctx, op.BranchID, productID, categoryID, op.Now, op.IsCashier())
	if err != nil {
		return nil, err
	}
	return toDiscountResponses(discounts), nil
}

// ApplicableForBill lists the bill-level discounts applicable to a bill amount
func (s *DiscountService) ApplicableForBill(ctx context.Context, op shared.OperatorContext, billAmount decimal.Decimal) ([]DiscountResponse, error) {
	discounts, err := s.discountRepo.FindApplicableForBill(ctx, op.BranchID, billAmount, op.Now, op.IsCashier())
	if err != nil {
		return nil, err
	}
	return toDiscountResponses(discounts), nil
}

// BestDiscount evaluates every applicable discount for a line and returns
// the arbitration outcome: either the single largest reduction or the sum
// of stackable ones, whichever is larger
func (s *DiscountService) BestDiscount(ctx context.Context, op shared.OperatorContext, req BestDiscountRequest) (*BestDiscountResponse, error) {
	discounts, err := s.discountRepo.FindApplicableForProduct(ctx, op.BranchID, req.ProductID, req.CategoryID, op.Now, op.IsCashier())
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	candidates := make([]discount.Candidate, 0, len(discounts))
	for _, d := range discounts {
		candidates = append(candidates, discount.Candidate{
			Discount: d,
			Amount:   d.CalculateDiscount(req.Amount, quantity, op.Now),
		})
	}

	sel := discount.BestDiscount(candidates)
	resp := &BestDiscountResponse{
		Total:   sel.Total,
		Stacked: sel.Stacked,
		Applied: make([]DiscountResponse, 0, len(sel.Applied)),
	}
	for i := range sel.Applied {
		resp.Applied = append(resp.Applied, ToDiscountResponse(&sel.Applied[i].Discount))
	}
	return resp, nil
}

// ApplyDiscount applies a defined discount to a transaction and records it
// with its audit entry atomically. A discount the cashier may not apply
// needs a verified approver; without one the call fails approval-required.
func (s *DiscountService) ApplyDiscount(ctx context.Context, op shared.OperatorContext, req ApplyDiscountRequest) (*AppliedDiscountResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if !op.Can(shared.CapabilityApplyDiscount) {
		return nil, shared.ErrUnauthorizedApprover
	}

	d, err := s.discountRepo.FindByID(ctx, req.DiscountID)
	if err != nil {
		return nil, err
	}
	if !d.AppliesAtBranch(op.BranchID) {
		return nil, shared.NewDiscountNotApplicableError("discount is not available at this branch")
	}
	if !d.IsValidAt(op.Now) {
		return nil, shared.NewDiscountNotApplicableError("discount is inactive or outside its validity window")
	}

	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	amount := d.CalculateDiscount(req.Amount, quantity, op.Now)
	if amount.IsZero() {
		return nil, shared.NewDiscountNotApplicableError("discount yields no reduction for this line")
	}

	// pricing control caps bind over the discount's own figures
	if d.Scope == discount.ScopeItem && d.ProductID != nil {
		control, err := s.pricingRepo.Resolve(ctx, *d.ProductID, op.BranchID)
		if err != nil {
			return nil, err
		}
		if limit := pricing.MaxAllowedDiscount(control, req.Amount); limit != nil && amount.GreaterThan(*limit) {
			amount = *limit
		}
	}

	needsApproval := d.RequiresApproval || (op.IsCashier() && !d.CashierCanApply)
	approvedBy, err := s.resolveApprover(ctx, op, needsApproval, req.ApproverID, req.ApproverPIN)
	if err != nil {
		return nil, err
	}

	td, err := discount.NewTransactionDiscount(
		req.TransactionID, &d.ID, d.Scope, d.Type, d.Value,
		op.BranchID, req.Amount, amount,
		needsApproval, op.ActorID, approvedBy, op.Now,
	)
	if err != nil {
		return nil, err
	}

	if err := s.recordApplied(ctx, op, td, audit.ActionDiscountApplied, d.Name); err != nil {
		return nil, err
	}
	resp := ToAppliedDiscountResponse(td)
	return &resp, nil
}

// ApplyManualDiscount applies an ad-hoc discount with no stored definition.
// Manual discounts always need approval authority: either the operator's
// own or a verified approver's.
func (s *DiscountService) ApplyManualDiscount(ctx context.Context, op shared.OperatorContext, req ApplyManualDiscountRequest) (*AppliedDiscountResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	dtype := discount.Type(req.Type)
	if !dtype.IsValid() {
		return nil, shared.NewValidationError("unknown discount type %q", req.Type)
	}
	if req.Value.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("discount value must be positive")
	}

	var amount decimal.Decimal
	switch dtype {
	case discount.TypePercentage:
		if req.Value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, shared.NewValidationError("percentage discount cannot exceed 100")
		}
		amount = req.Amount.Mul(req.Value).Div(decimal.NewFromInt(100))
	default:
		amount = req.Value
	}
	if amount.GreaterThan(req.Amount) {
		amount = req.Amount
	}

	// caps from the product's pricing control still bind
	if req.ProductID != nil {
		control, err := s.pricingRepo.Resolve(ctx, *req.ProductID, op.BranchID)
		if err != nil {
			return nil, err
		}
		var pct *decimal.Decimal
		if dtype == discount.TypePercentage {
			pct = &req.Value
		}
		if err := pricing.ValidateDiscount(control, pct, &amount); err != nil {
			return nil, err
		}
	}

	approvedBy, err := s.resolveApprover(ctx, op, true, req.ApproverID, req.ApproverPIN)
	if err != nil {
		return nil, err
	}

	td, err := discount.NewTransactionDiscount(
		req.TransactionID, nil, discount.ScopeBill, dtype, req.Value,
		op.BranchID, req.Amount, amount,
		true, op.ActorID, approvedBy, op.Now,
	)
	if err != nil {
		return nil, err
	}

	if err := s.recordApplied(ctx, op, td, audit.ActionManualDiscountApplied, req.Reason); err != nil {
		return nil, err
	}
	resp := ToAppliedDiscountResponse(td)
	return &resp, nil
}

// CreateDiscount defines a new discount. Global definitions need the
// dedicated capability; branch definitions bind to the operator's branch.
func (s *DiscountService) CreateDiscount(ctx context.Context, op shared.OperatorContext, req CreateDiscountRequest) (*DiscountResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if !op.Can(shared.CapabilityManagePricing) {
		return nil, shared.ErrUnauthorizedApprover
	}
	if req.Global && !op.Can(shared.CapabilityCreateGlobalDiscount) {
		return nil, shared.ErrUnauthorizedApprover
	}

	d := &discount.POSDiscount{
		BaseEntity:        shared.NewBaseEntity(op.Now),
		Name:              req.Name,
		Scope:             discount.Scope(req.Scope),
		Type:              discount.Type(req.Type),
		Value:             req.Value,
		ProductID:         req.ProductID,
		CategoryID:        req.CategoryID,
		IsGlobal:          req.Global,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MinQuantity:       req.MinQuantity,
		MaxDiscountAmount: req.MaxDiscountAmount,
		Priority:          req.Priority,
		CashierCanApply:   req.CashierCanApply,
		RequiresApproval:  req.RequiresApproval,
		CanStack:          req.CanStack,
		IsActive:          true,
	}
	if !req.Global {
		b := op.BranchID
		d.BranchID = &b
	}
	if d.Priority == 0 {
		d.Priority = 100
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.DiscountRepo().Save(ctx, d); err != nil {
			return err
		}
		entry, err := audit.NewEntry(op, audit.Entry{
			Action:     audit.ActionDiscountCreated,
			EntityType: "pos_discount",
			EntityID:   d.ID,
			Detail:     "created discount " + d.Name,
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	resp := ToDiscountResponse(d)
	return &resp, nil
}

// DeactivateDiscount retires a discount definition. Global definitions need
// the same dedicated capability their creation does. Deactivating an already
// inactive definition is a no-op and leaves no second ledger entry.
func (s *DiscountService) DeactivateDiscount(ctx context.Context, op shared.OperatorContext, discountID uuid.UUID) (*DiscountResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if !op.Can(shared.CapabilityManagePricing) {
		return nil, shared.ErrUnauthorizedApprover
	}

	d, err := s.discountRepo.FindByID(ctx, discountID)
	if err != nil {
		return nil, err
	}
	if d.IsGlobal && !op.Can(shared.CapabilityCreateGlobalDiscount) {
		return nil, shared.ErrUnauthorizedApprover
	}
	if !d.AppliesAtBranch(op.BranchID) {
		return nil, shared.ErrNotFound
	}

	if d.IsActive {
		d.Deactivate(op.Now)
		err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.DiscountRepo().Save(ctx, d); err != nil {
				return err
			}
			entry, err := audit.NewEntry(op, audit.Entry{
				Action:     audit.ActionDiscountModified,
				EntityType: "pos_discount",
				EntityID:   d.ID,
				Detail:     "deactivated discount " + d.Name,
			})
			if err != nil {
				return err
			}
			return repos.AuditRepo().Append(ctx, entry)
		})
		if err != nil {
			return nil, err
		}
	}

	resp := ToDiscountResponse(d)
	return &resp, nil
}

// resolveApprover decides who vouches for a restricted discount. An operator
// with approval authority vouches for themselves. Otherwise a second actor
// must be named and verified by PIN; with neither, the application proceeds
// only as a pending record, signalled by a nil approver.
func (s *DiscountService) resolveApprover(ctx context.Context, op shared.OperatorContext, needed bool, approverID *uuid.UUID, pin string) (*uuid.UUID, error) {
	if !needed {
		return &op.ActorID, nil
	}
	if op.Can(shared.CapabilityApproveDiscount) {
		return &op.ActorID, nil
	}
	if approverID == nil || pin == "" {
		return nil, nil // recorded pending, finalized later
	}
	cred, err := s.credentialRepo.FindByUser(ctx, *approverID)
	if err != nil {
		return nil, err
	}
	if !cred.VerifyPIN(pin) {
		return nil, shared.ErrUnauthorizedApprover
	}
	return approverID, nil
}

// recordApplied persists the applied discount and its ledger entry atomically
func (s *DiscountService) recordApplied(ctx context.Context, op shared.OperatorContext, td *discount.TransactionDiscount, action audit.ActionKind, detail string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.TransactionDiscountRepo().Create(ctx, td); err != nil {
			return err
		}
		entry, err := audit.NewEntry(op, audit.Entry{
			Action:        action,
			EntityType:    "transaction_discount",
			EntityID:      td.ID,
			TransactionID: td.TransactionID,
			ApproverID:    td.ApprovedBy,
			OldValue:      &td.OriginalAmount,
			NewValue:      &td.FinalAmount,
			Amount:        td.DiscountAmount,
			Detail:        detail,
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
}

func toDiscountResponses(discounts []discount.POSDiscount) []DiscountResponse {
	out := make([]DiscountResponse, 0, len(discounts))
	for i := range discounts {
		out = append(out, ToDiscountResponse(&discounts[i]))
	}
	return out
}
