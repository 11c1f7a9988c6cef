package pos

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/pricing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ControlCache caches resolved pricing controls. Resolution happens on every
// till keystroke, so the hot path reads through the cache; writes invalidate.
type ControlCache interface {
	// Get returns the cached resolution. found distinguishes a cache miss
	// from a cached "no control exists" answer, which comes back (nil, true).
	Get(ctx context.Context, productID, branchID uuid.UUID) (control *pricing.PricingControl, found bool)
	// Set caches the resolved control (nil means no control exists)
	Set(ctx context.Context, productID, branchID uuid.UUID, control *pricing.PricingControl)
	// Invalidate drops the cached resolution for a product
	Invalidate(ctx context.Context, productID uuid.UUID)
}

// PricingService validates prices and discounts against pricing controls
type PricingService struct {
	scope       TransactionScope
	pricingRepo pricing.Repository
	cache       ControlCache
}

// NewPricingService creates a new PricingService. cache may be nil.
func NewPricingService(scope TransactionScope, pricingRepo pricing.Repository, cache ControlCache) *PricingService {
	return &PricingService{
		scope:       scope,
		pricingRepo: pricingRepo,
		cache:       cache,
	}
}

// resolveControl returns the effective control for a product at a branch,
// reading through the cache when one is configured
func (s *PricingService) resolveControl(ctx context.Context, productID, branchID uuid.UUID) (*pricing.PricingControl, error) {
	if s.cache != nil {
		if control, found := s.cache.Get(ctx, productID, branchID); found {
			return control, nil
		}
	}
	control, err := s.pricingRepo.Resolve(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, productID, branchID, control)
	}
	return control, nil
}

// ValidatePrice checks a proposed selling price against the effective
// control. A violation is a structured outcome, not an error; only
// infrastructure failures return a non-nil error.
func (s *PricingService) ValidatePrice(ctx context.Context, op shared.OperatorContext, req ValidatePriceRequest) (*pricing.PriceValidation, error) {
	control, err := s.resolveControl(ctx, req.ProductID, op.BranchID)
	if err != nil {
		return nil, err
	}
	result := pricing.ValidatePrice(control, req.Price)
	return &result, nil
}

// ValidateDiscount rejects a discount magnitude above the effective
// control's caps
func (s *PricingService) ValidateDiscount(ctx context.Context, op shared.OperatorContext, productID uuid.UUID, percentage, amount *decimal.Decimal) error {
	control, err := s.resolveControl(ctx, productID, op.BranchID)
	if err != nil {
		return err
	}
	return pricing.ValidateDiscount(control, percentage, amount)
}

// MaxAllowedDiscount returns the largest discount the effective control
// permits on the price, nil when no cap applies
func (s *PricingService) MaxAllowedDiscount(ctx context.Context, op shared.OperatorContext, productID uuid.UUID, originalPrice decimal.Decimal) (*decimal.Decimal, error) {
	control, err := s.resolveControl(ctx, productID, op.BranchID)
	if err != nil {
		return nil, err
	}
	return pricing.MaxAllowedDiscount(control, originalPrice), nil
}

// SetPricingControl creates or replaces a control for the operator's branch
// (or globally), writing the audit entry in the same transaction
func (s *PricingService) SetPricingControl(ctx context.Context, op shared.OperatorContext, req SetPricingControlRequest) (*pricing.PricingControl, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if !op.Can(shared.CapabilityManagePricing) {
		return nil, shared.ErrUnauthorizedApprover
	}

	var branchID *uuid.UUID
	if !req.Global {
		b := op.BranchID
		branchID = &b
	}
	control, err := pricing.NewPricingControl(req.ProductID, branchID, req.DefaultSellingPrice, op.Now)
	if err != nil {
		return nil, err
	}
	control.MinSellingPrice = req.MinSellingPrice
	control.MaxSellingPrice = req.MaxSellingPrice
	control.MaxDiscountPercent = req.MaxDiscountPercent
	control.MaxDiscountAmount = req.MaxDiscountAmount
	control.MinMarginPercent = req.MinMarginPercent
	control.AllowManualPrice = req.AllowManualPrice
	control.RequireApprovalBelowMin = req.RequireApprovalBelowMin
	if err := control.Validate(); err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		previous, err := repos.PricingRepo().Resolve(ctx, req.ProductID, op.BranchID)
		if err != nil {
			return err
		}
		if err := repos.PricingRepo().Save(ctx, control); err != nil {
			return err
		}
		var oldValue *decimal.Decimal
		if previous != nil {
			oldValue = &previous.DefaultSellingPrice
		}
		entry, err := audit.NewEntry(op, audit.Entry{
			Action:     audit.ActionPricingControlChanged,
			EntityType: "pricing_control",
			EntityID:   control.ID,
			OldValue:   oldValue,
			NewValue:   &control.DefaultSellingPrice,
			Detail:     "pricing control set for product " + req.ProductID.String(),
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, req.ProductID)
	}
	return control, nil
}
