package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOverrideRepository implements override.Repository using GORM
type GormOverrideRepository struct {
	db *gorm.DB
}

// NewGormOverrideRepository creates a new GormOverrideRepository
func NewGormOverrideRepository(db *gorm.DB) *GormOverrideRepository {
	return &GormOverrideRepository{db: db}
}

var _ override.Repository = (*GormOverrideRepository)(nil)

// FindByID finds a request by its ID
func (r *GormOverrideRepository) FindByID(ctx context.Context, id uuid.UUID) (*override.PriceOverrideRequest, error) {
	var req override.PriceOverrideRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindPending lists requests still resolvable at ref for a branch, oldest
// first. Stored-pending rows past their deadline read as expired, so they
// are excluded here without writing anything.
func (r *GormOverrideRepository) FindPending(ctx context.Context, branchID uuid.UUID, ref time.Time) ([]override.PriceOverrideRequest, error) {
	var requests []override.PriceOverrideRequest
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ? AND expires_at >= ?", branchID, override.StatusPending, ref).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindByBranch lists requests for a branch regardless of status
func (r *GormOverrideRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]override.PriceOverrideRequest, error) {
	var requests []override.PriceOverrideRequest
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&override.PriceOverrideRequest{}).
			Where("branch_id = ?", branchID),
		filter,
	)

	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Create persists a new request
func (r *GormOverrideRepository) Create(ctx context.Context, req *override.PriceOverrideRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// Save persists changes to an existing request
func (r *GormOverrideRepository) Save(ctx context.Context, req *override.PriceOverrideRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// ResolveIfPending applies resolve to the stored request and writes the
// result back guarded on status = pending. The guard makes the resolution a
// compare-and-swap: of two racing approvers, exactly one write lands and the
// other observes shared.ErrConcurrencyConflict.
func (r *GormOverrideRepository) ResolveIfPending(ctx context.Context, id uuid.UUID, resolve func(*override.PriceOverrideRequest) error) (*override.PriceOverrideRequest, error) {
	req, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != override.StatusPending {
		return nil, shared.ErrConcurrencyConflict
	}

	if err := resolve(req); err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Model(&override.PriceOverrideRequest{}).
		Where("id = ? AND status = ?", id, override.StatusPending).
		Updates(map[string]interface{}{
			"status":           req.Status,
			"resolved_by":      req.ResolvedBy,
			"resolved_by_name": req.ResolvedByName,
			"resolved_at":      req.ResolvedAt,
			"denial_reason":    req.DenialReason,
			"updated_at":       req.UpdatedAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrConcurrencyConflict
	}

	return req, nil
}

// applyFilter applies filter options to the query
func (r *GormOverrideRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		case "transaction_id":
			query = query.Where("transaction_id = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// GormApproverCredentialRepository implements override.CredentialRepository
// using GORM
type GormApproverCredentialRepository struct {
	db *gorm.DB
}

// NewGormApproverCredentialRepository creates a new GormApproverCredentialRepository
func NewGormApproverCredentialRepository(db *gorm.DB) *GormApproverCredentialRepository {
	return &GormApproverCredentialRepository{db: db}
}

var _ override.CredentialRepository = (*GormApproverCredentialRepository)(nil)

// FindByUser finds the credential bound to a user
func (r *GormApproverCredentialRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*override.ApproverCredential, error) {
	var cred override.ApproverCredential
	if err := r.db.WithContext(ctx).First(&cred, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// Save creates or updates a credential
func (r *GormApproverCredentialRepository) Save(ctx context.Context, cred *override.ApproverCredential) error {
	return r.db.WithContext(ctx).Save(cred).Error
}
