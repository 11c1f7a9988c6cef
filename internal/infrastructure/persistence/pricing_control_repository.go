package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pricing"
	"github.com/retailpos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPricingControlRepository implements pricing.Repository using GORM
type GormPricingControlRepository struct {
	db *gorm.DB
}

// NewGormPricingControlRepository creates a new GormPricingControlRepository
func NewGormPricingControlRepository(db *gorm.DB) *GormPricingControlRepository {
	return &GormPricingControlRepository{db: db}
}

var _ pricing.Repository = (*GormPricingControlRepository)(nil)

// FindByID finds a control by its ID
func (r *GormPricingControlRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PricingControl, error) {
	var control pricing.PricingControl
	if err := r.db.WithContext(ctx).First(&control, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &control, nil
}

// FindForProduct returns the branch-specific and global controls for a product
func (r *GormPricingControlRepository) FindForProduct(ctx context.Context, productID, branchID uuid.UUID) (*pricing.PricingControl, *pricing.PricingControl, error) {
	var controls []pricing.PricingControl
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND (branch_id = ? OR branch_id IS NULL)", productID, branchID).
		Find(&controls).Error; err != nil {
		return nil, nil, err
	}

	var branchControl, globalControl *pricing.PricingControl
	for i := range controls {
		if controls[i].BranchID == nil {
			globalControl = &controls[i]
		} else {
			branchControl = &controls[i]
		}
	}
	return branchControl, globalControl, nil
}

// Resolve returns the effective control for a product at a branch
func (r *GormPricingControlRepository) Resolve(ctx context.Context, productID, branchID uuid.UUID) (*pricing.PricingControl, error) {
	branchControl, globalControl, err := r.FindForProduct(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	return pricing.ResolveControl(branchControl, globalControl), nil
}

// Save creates or updates a control. The (product, branch) pair is the
// logical key, so an existing row for the pair is replaced in place.
func (r *GormPricingControlRepository) Save(ctx context.Context, control *pricing.PricingControl) error {
	var existing pricing.PricingControl
	query := r.db.WithContext(ctx).Where("product_id = ?", control.ProductID)
	if control.BranchID == nil {
		query = query.Where("branch_id IS NULL")
	} else {
		query = query.Where("branch_id = ?", *control.BranchID)
	}

	err := query.First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(control).Error
	case err != nil:
		return err
	}

	// Keep the stored identity so history stays attached to one row
	control.ID = existing.ID
	control.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(control).Error
}
