package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/discount"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDiscountRepository implements discount.Repository using GORM
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewGormDiscountRepository creates a new GormDiscountRepository
func NewGormDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

var _ discount.Repository = (*GormDiscountRepository)(nil)

// FindByID finds a discount by its ID
func (r *GormDiscountRepository) FindByID(ctx context.Context, id uuid.UUID) (*discount.POSDiscount, error) {
	var d discount.POSDiscount
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindApplicableForProduct returns active, currently valid, branch-or-global
// discounts matching item scope on the product or category scope on the
// category, ordered by ascending priority
func (r *GormDiscountRepository) FindApplicableForProduct(ctx context.Context, branchID, productID uuid.UUID, categoryID *uuid.UUID, at time.Time, cashierOnly bool) ([]discount.POSDiscount, error) {
	query := r.applicableAt(ctx, branchID, at, cashierOnly)

	if categoryID != nil {
		query = query.Where(
			"(scope = ? AND product_id = ?) OR (scope = ? AND category_id = ?)",
			discount.ScopeItem, productID, discount.ScopeCategory, *categoryID,
		)
	} else {
		query = query.Where("scope = ? AND product_id = ?", discount.ScopeItem, productID)
	}

	var discounts []discount.POSDiscount
	if err := query.Order("priority ASC, created_at ASC").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// FindApplicableForBill returns the bill-scoped discounts whose minimum
// purchase amount (if set) does not exceed billAmount
func (r *GormDiscountRepository) FindApplicableForBill(ctx context.Context, branchID uuid.UUID, billAmount decimal.Decimal, at time.Time, cashierOnly bool) ([]discount.POSDiscount, error) {
	query := r.applicableAt(ctx, branchID, at, cashierOnly).
		Where("scope = ?", discount.ScopeBill).
		Where("min_purchase_amount IS NULL OR min_purchase_amount <= ?", billAmount)

	var discounts []discount.POSDiscount
	if err := query.Order("priority ASC, created_at ASC").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// FindByBranch lists discounts visible at a branch (including global)
func (r *GormDiscountRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]discount.POSDiscount, error) {
	var discounts []discount.POSDiscount
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&discount.POSDiscount{}).
			Where("branch_id = ? OR is_global = ?", branchID, true),
		filter,
	)

	if err := query.Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// Save creates or updates a discount definition
func (r *GormDiscountRepository) Save(ctx context.Context, d *discount.POSDiscount) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// applicableAt builds the common applicability predicate: active flag,
// validity window around at, branch binding or global, cashier restriction
func (r *GormDiscountRepository) applicableAt(ctx context.Context, branchID uuid.UUID, at time.Time, cashierOnly bool) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&discount.POSDiscount{}).
		Where("is_active = ?", true).
		Where("branch_id = ? OR is_global = ?", branchID, true).
		Where("start_date IS NULL OR start_date <= ?", at).
		Where("end_date IS NULL OR end_date >= ?", at)

	if cashierOnly {
		query = query.Where("cashier_can_apply = ?", true)
	}
	return query
}

// applyFilter applies filter options to the query
func (r *GormDiscountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "scope":
			query = query.Where("scope = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "category_id":
			query = query.Where("category_id = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
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
		query = query.Order("priority ASC, created_at ASC")
	}

	return query
}

// GormTransactionDiscountRepository implements discount.TransactionRepository
// using GORM. Applied-discount rows are append-only.
type GormTransactionDiscountRepository struct {
	db *gorm.DB
}

// NewGormTransactionDiscountRepository creates a new GormTransactionDiscountRepository
func NewGormTransactionDiscountRepository(db *gorm.DB) *GormTransactionDiscountRepository {
	return &GormTransactionDiscountRepository{db: db}
}

var _ discount.TransactionRepository = (*GormTransactionDiscountRepository)(nil)

// Create persists one applied-discount record
func (r *GormTransactionDiscountRepository) Create(ctx context.Context, td *discount.TransactionDiscount) error {
	return r.db.WithContext(ctx).Create(td).Error
}

// FindByTransaction lists the discounts applied to a transaction
func (r *GormTransactionDiscountRepository) FindByTransaction(ctx context.Context, transactionID string) ([]discount.TransactionDiscount, error) {
	var applied []discount.TransactionDiscount
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&applied).Error; err != nil {
		return nil, err
	}
	return applied, nil
}
