package pos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/batch"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/pricing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OverrideService runs the price override authorization workflow
type OverrideService struct {
	scope          TransactionScope
	overrideRepo   override.Repository
	credentialRepo override.CredentialRepository
	pricingRepo    pricing.Repository
	batchRepo      batch.Repository
	ttl            time.Duration
}

// NewOverrideService creates a new OverrideService. ttl bounds how long a
// request stays resolvable; zero falls back to the domain default.
func NewOverrideService(
	scope TransactionScope,
	overrideRepo override.Repository,
	credentialRepo override.CredentialRepository,
	pricingRepo pricing.Repository,
	batchRepo batch.Repository,
	ttl time.Duration,
) *OverrideService {
	return &OverrideService{
		scope:          scope,
		overrideRepo:   overrideRepo,
		credentialRepo: credentialRepo,
		pricingRepo:    pricingRepo,
		batchRepo:      batchRepo,
		ttl:            ttl,
	}
}

// CreateRequest opens a pending override for a price the pricing control
// rejected. A price the control already allows needs no override, a control
// that forbids manual prices leaves nothing to request, and a price above
// the ceiling can never be authorized, so all three are rejected. The
// control's price floor is snapshotted onto the request at creation.
func (s *OverrideService) CreateRequest(ctx context.Context, op shared.OperatorContext, req CreateOverrideRequest) (*OverrideResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	control, err := s.pricingRepo.Resolve(ctx, req.ProductID, op.BranchID)
	if err != nil {
		return nil, err
	}
	if control != nil && !control.AllowManualPrice {
		return nil, shared.NewValidationError("pricing policy does not allow manual prices for this product")
	}

	validation := pricing.ValidatePrice(control, req.RequestedPrice)
	meetsMargin, err := s.meetsMargin(ctx, control, req.RequestedPrice, req.BatchID)
	if err != nil {
		return nil, err
	}
	if validation.Valid && meetsMargin {
		return nil, shared.NewValidationError("price %s is within policy and needs no override", req.RequestedPrice.String())
	}
	if !validation.Valid && !validation.RequiresApproval {
		for _, v := range validation.Violations {
			if v.Bound == pricing.BoundMax {
				return nil, shared.NewPriceOutOfRangeError(req.RequestedPrice, v.Limit, "max")
			}
		}
		return nil, shared.ErrApprovalRequired
	}

	request, err := override.NewPriceOverrideRequest(
		op, req.ProductID, req.BatchID, req.TransactionID,
		req.OriginalPrice, req.RequestedPrice, req.Quantity,
		req.Reason, s.ttl,
	)
	if err != nil {
		return nil, err
	}
	request.MinAllowedPrice = validation.MinAllowedPrice

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OverrideRepo().Create(ctx, request); err != nil {
			return err
		}
		entry, err := audit.NewEntry(op, audit.Entry{
			Action:        audit.ActionOverrideRequested,
			EntityType:    "price_override_request",
			EntityID:      request.ID,
			TransactionID: request.TransactionID,
			OldValue:      &request.OriginalPrice,
			NewValue:      &request.RequestedPrice,
			Amount:        request.AmountImpact(),
			Reason:        request.Reason,
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	resp := ToOverrideResponse(request, op.Now)
	return &resp, nil
}

// meetsMargin checks the requested price against the control's minimum
// margin using the batch's purchase price. Without a batch reference there
// is no cost to measure against, so the check passes.
func (s *OverrideService) meetsMargin(ctx context.Context, control *pricing.PricingControl, price decimal.Decimal, batchID *uuid.UUID) (bool, error) {
	if control == nil || control.MinMarginPercent == nil || batchID == nil {
		return true, nil
	}
	b, err := s.batchRepo.FindByID(ctx, *batchID)
	if err != nil {
		return false, err
	}
	return pricing.MeetsMinimumMargin(control, price, b.PurchasePrice), nil
}

// PendingRequests lists the requests still resolvable at the operator's
// branch, oldest first
func (s *OverrideService) PendingRequests(ctx context.Context, op shared.OperatorContext) ([]OverrideResponse, error) {
	requests, err := s.overrideRepo.FindPending(ctx, op.BranchID, op.Now)
	if err != nil {
		return nil, err
	}
	out := make([]OverrideResponse, 0, len(requests))
	for i := range requests {
		out = append(out, ToOverrideResponse(&requests[i], op.Now))
	}
	return out, nil
}

// ApproveRequest approves a pending request after verifying the approver's
// PIN and re-checking the requested price against the current ceiling. The
// state transition is a compare-and-swap on the pending status, so two
// simultaneous resolutions cannot both win.
func (s *OverrideService) ApproveRequest(ctx context.Context, op shared.OperatorContext, requestID uuid.UUID, pin string) (*OverrideResponse, error) {
	if err := s.verifyApprover(ctx, op, pin); err != nil {
		return nil, err
	}

	var resolved *override.PriceOverrideRequest
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.OverrideRepo().ResolveIfPending(ctx, requestID, func(r *override.PriceOverrideRequest) error {
			// the ceiling may have moved since the request was created
			control, err := repos.PricingRepo().Resolve(ctx, r.ProductID, r.BranchID)
			if err != nil {
				return err
			}
			if control != nil && control.MaxSellingPrice != nil &&
				r.RequestedPrice.GreaterThan(*control.MaxSellingPrice) {
				return shared.NewPriceOutOfRangeError(r.RequestedPrice, *control.MaxSellingPrice, "max")
			}
			_, err = r.Approve(op)
			return err
		})
		if err != nil {
			return err
		}
		resolved = r

		entry, err := audit.NewEntry(op, audit.Entry{
			Action:        audit.ActionOverrideApproved,
			EntityType:    "price_override_request",
			EntityID:      r.ID,
			TransactionID: r.TransactionID,
			ApproverID:    &op.ActorID,
			OldValue:      &r.OriginalPrice,
			NewValue:      &r.RequestedPrice,
			Amount:        r.AmountImpact(),
			Detail:        "approved price " + r.RequestedPrice.String(),
			Reason:        r.Reason,
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, shared.ErrExpiredRequest) {
			s.persistExpiry(ctx, op, requestID)
		}
		return nil, err
	}

	resp := ToOverrideResponse(resolved, op.Now)
	return &resp, nil
}

// DenyRequest denies a pending request with a reason
func (s *OverrideService) DenyRequest(ctx context.Context, op shared.OperatorContext, requestID uuid.UUID, pin, reason string) (*OverrideResponse, error) {
	if err := s.verifyApprover(ctx, op, pin); err != nil {
		return nil, err
	}

	var resolved *override.PriceOverrideRequest
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.OverrideRepo().ResolveIfPending(ctx, requestID, func(r *override.PriceOverrideRequest) error {
			_, err := r.Deny(op, reason)
			return err
		})
		if err != nil {
			return err
		}
		resolved = r

		// a denial carries no amount impact
		entry, err := audit.NewEntry(op, audit.Entry{
			Action:        audit.ActionOverrideDenied,
			EntityType:    "price_override_request",
			EntityID:      r.ID,
			TransactionID: r.TransactionID,
			ApproverID:    &op.ActorID,
			OldValue:      &r.OriginalPrice,
			NewValue:      &r.RequestedPrice,
			Reason:        reason,
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, shared.ErrExpiredRequest) {
			s.persistExpiry(ctx, op, requestID)
		}
		return nil, err
	}

	resp := ToOverrideResponse(resolved, op.Now)
	return &resp, nil
}

// VerifyPIN checks a user's approval PIN. A missing credential verifies
// negative rather than erroring, so the till gets a uniform yes/no.
func (s *OverrideService) VerifyPIN(ctx context.Context, userID uuid.UUID, pin string) (bool, error) {
	cred, err := s.credentialRepo.FindByUser(ctx, userID)
	if err != nil {
		var derr *shared.DomainError
		if errors.As(err, &derr) && derr.Code == shared.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return cred.VerifyPIN(pin), nil
}

// SetPIN creates or replaces the operator's own approval PIN
func (s *OverrideService) SetPIN(ctx context.Context, op shared.OperatorContext, pin string) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if !op.Can(shared.CapabilityApproveOverride) {
		return shared.ErrUnauthorizedApprover
	}

	cred, err := s.credentialRepo.FindByUser(ctx, op.ActorID)
	if err != nil {
		var derr *shared.DomainError
		if errors.As(err, &derr) && derr.Code == shared.CodeNotFound {
			cred, err = override.NewApproverCredential(op.ActorID, pin, op.Now)
			if err != nil {
				return err
			}
			return s.credentialRepo.Save(ctx, cred)
		}
		return err
	}
	if err := cred.SetPIN(pin, op.Now); err != nil {
		return err
	}
	return s.credentialRepo.Save(ctx, cred)
}

// verifyApprover checks capability and PIN before any resolution attempt
func (s *OverrideService) verifyApprover(ctx context.Context, op shared.OperatorContext, pin string) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if !op.Can(shared.CapabilityApproveOverride) {
		return shared.ErrUnauthorizedApprover
	}
	ok, err := s.VerifyPIN(ctx, op.ActorID, pin)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrUnauthorizedApprover
	}
	return nil
}

// persistExpiry writes the lazily observed expiry back to storage together
// with its ledger entry. Losing the write to a concurrent resolver is fine.
func (s *OverrideService) persistExpiry(ctx context.Context, op shared.OperatorContext, requestID uuid.UUID) {
	_ = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.OverrideRepo().ResolveIfPending(ctx, requestID, func(r *override.PriceOverrideRequest) error {
			r.MarkExpired(op.Now)
			return nil
		})
		if err != nil {
			return err
		}
		entry, err := audit.NewEntry(op, audit.Entry{
			Action:        audit.ActionOverrideExpired,
			EntityType:    "price_override_request",
			EntityID:      r.ID,
			TransactionID: r.TransactionID,
			Detail:        "request expired before resolution",
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
}
