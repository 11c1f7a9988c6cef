package discount

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository defines the persistence port for discount definitions.
// Applicability filtering (active flag, validity window, branch-or-global,
// scope bindings) happens in storage; arbitration happens in the domain.
type Repository interface {
	// FindByID finds a discount by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*POSDiscount, error)

	// FindApplicableForProduct returns the active, currently valid,
	// branch-or-global discounts matching item scope on the product or
	// category scope on the category, ordered by ascending priority.
	// cashierOnly restricts the result to cashier-applicable discounts.
	FindApplicableForProduct(ctx context.Context, branchID, productID uuid.UUID, categoryID *uuid.UUID, at time.Time, cashierOnly bool) ([]POSDiscount, error)

	// FindApplicableForBill returns the bill-scoped discounts whose
	// minimum purchase amount (if set) does not exceed billAmount
	FindApplicableForBill(ctx context.Context, branchID uuid.UUID, billAmount decimal.Decimal, at time.Time, cashierOnly bool) ([]POSDiscount, error)

	// FindByBranch lists discounts visible at a branch (including global)
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]POSDiscount, error)

	// Save creates or updates a discount definition
	Save(ctx context.Context, d *POSDiscount) error
}

// TransactionRepository is the append-oriented port for applied discounts
type TransactionRepository interface {
	// Create persists one applied-discount record (never updated after)
	Create(ctx context.Context, td *TransactionDiscount) error

	// FindByTransaction lists the discounts applied to a transaction
	FindByTransaction(ctx context.Context, transactionID string) ([]TransactionDiscount, error)
}
