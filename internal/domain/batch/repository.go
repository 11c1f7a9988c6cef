package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository defines the persistence port for inventory batches. All reads
// are branch-scoped; there is no single-tenant global namespace.
type Repository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryBatch, error)

	// FindActive finds the active batches with remaining stock for a
	// product at a branch, in storage order (callers apply the selection
	// strategy)
	FindActive(ctx context.Context, productID, branchID uuid.UUID) ([]InventoryBatch, error)

	// FindByBranch finds all batches at a branch matching the filter
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]InventoryBatch, error)

	// FindExpiringSoon finds in-stock batches at a branch whose expiry date
	// falls within the window (asOf, asOf+days]
	FindExpiringSoon(ctx context.Context, branchID uuid.UUID, asOf time.Time, withinDays int) ([]InventoryBatch, error)

	// SumCurrentQuantity sums current quantity over active batches of a
	// product at a branch
	SumCurrentQuantity(ctx context.Context, productID, branchID uuid.UUID) (decimal.Decimal, error)

	// Create persists a new batch (goods receipt)
	Create(ctx context.Context, b *InventoryBatch) error

	// Save updates an existing batch
	Save(ctx context.Context, b *InventoryBatch) error

	// DeductQuantity atomically subtracts quantity from a batch, flipping
	// its status to depleted when it reaches zero. The decrement is a
	// compare-and-decrement keyed on the batch id: a concurrent deduction
	// that would drive the quantity negative fails with
	// shared.CodeInsufficientStock and applies nothing.
	// Returns the batch state after the deduction.
	DeductQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal, now time.Time) (*InventoryBatch, error)
}
