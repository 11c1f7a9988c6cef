package pricing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence port for pricing controls
type Repository interface {
	// FindByID finds a control by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PricingControl, error)

	// FindForProduct returns the branch-specific and global controls for a
	// product. Either may be nil; callers apply ResolveControl.
	FindForProduct(ctx context.Context, productID, branchID uuid.UUID) (branch *PricingControl, global *PricingControl, err error)

	// Resolve returns the effective control for a product at a branch
	// (branch-specific wins over global), or nil when neither exists.
	Resolve(ctx context.Context, productID, branchID uuid.UUID) (*PricingControl, error)

	// Save creates or updates a control. The (product, branch) pair is the
	// logical key: saving a control for an existing pair replaces it.
	Save(ctx context.Context, control *PricingControl) error
}
