package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/batch"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBatchRepository implements batch.Repository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

var _ batch.Repository = (*GormBatchRepository)(nil)

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*batch.InventoryBatch, error) {
	var b batch.InventoryBatch
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// FindActive finds the active batches with remaining stock for a product at a
// branch, in receipt order
func (r *GormBatchRepository) FindActive(ctx context.Context, productID, branchID uuid.UUID) ([]batch.InventoryBatch, error) {
	var batches []batch.InventoryBatch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ? AND status = ? AND current_quantity > 0",
			productID, branchID, batch.BatchStatusActive).
		Order("received_date ASC, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByBranch finds all batches at a branch matching the filter
func (r *GormBatchRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]batch.InventoryBatch, error) {
	var batches []batch.InventoryBatch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&batch.InventoryBatch{}).
			Where("branch_id = ?", branchID),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiringSoon finds in-stock batches whose expiry date falls within the
// window (asOf, asOf+withinDays]
func (r *GormBatchRepository) FindExpiringSoon(ctx context.Context, branchID uuid.UUID, asOf time.Time, withinDays int) ([]batch.InventoryBatch, error) {
	deadline := asOf.AddDate(0, 0, withinDays)

	var batches []batch.InventoryBatch
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ? AND current_quantity > 0", branchID, batch.BatchStatusActive).
		Where("expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?", asOf, deadline).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// SumCurrentQuantity sums current quantity over active batches of a product
func (r *GormBatchRepository) SumCurrentQuantity(ctx context.Context, productID, branchID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&batch.InventoryBatch{}).
		Select("COALESCE(SUM(current_quantity), 0) as total").
		Where("product_id = ? AND branch_id = ? AND status = ?", productID, branchID, batch.BatchStatusActive).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Create persists a new batch
func (r *GormBatchRepository) Create(ctx context.Context, b *batch.InventoryBatch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// Save updates an existing batch
func (r *GormBatchRepository) Save(ctx context.Context, b *batch.InventoryBatch) error {
	return r.db.WithContext(ctx).Save(b).Error
}

// DeductQuantity atomically subtracts quantity from a batch. The guard on
// current_quantity makes the decrement a single compare-and-decrement: two
// concurrent sales can never drive a batch negative, the slower one fails
// with insufficient stock instead.
func (r *GormBatchRepository) DeductQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, now time.Time) (*batch.InventoryBatch, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("deduction quantity must be positive, got %s", quantity.String())
	}

	result := r.db.WithContext(ctx).
		Model(&batch.InventoryBatch{}).
		Where("id = ? AND status = ? AND current_quantity >= ?", id, batch.BatchStatusActive, quantity).
		Updates(map[string]interface{}{
			"current_quantity": gorm.Expr("current_quantity - ?", quantity),
			"status": gorm.Expr("CASE WHEN current_quantity - ? <= 0 THEN ? ELSE status END",
				quantity, string(batch.BatchStatusDepleted)),
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish a missing batch from a lost stock race
		b, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, shared.NewInsufficientStockError(quantity, b.CurrentQuantity)
	}

	return r.FindByID(ctx, id)
}

// applyFilter applies filter options to the query
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "batch_number":
			query = query.Where("batch_number = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("current_quantity > 0")
			}
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
		query = query.Order("received_date ASC, created_at ASC")
	}

	return query
}
