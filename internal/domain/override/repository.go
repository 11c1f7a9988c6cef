package override

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// Repository defines the persistence port for override requests
type Repository interface {
	// FindByID finds a request by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PriceOverrideRequest, error)

	// FindPending lists requests still resolvable at ref for a branch,
	// oldest first. Stored-pending rows past their deadline are excluded.
	FindPending(ctx context.Context, branchID uuid.UUID, ref time.Time) ([]PriceOverrideRequest, error)

	// FindByBranch lists requests for a branch regardless of status
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]PriceOverrideRequest, error)

	// Create persists a new request
	Create(ctx context.Context, r *PriceOverrideRequest) error

	// Save persists changes to an existing request
	Save(ctx context.Context, r *PriceOverrideRequest) error

	// ResolveIfPending applies resolve to the stored request and writes the
	// result back only if the row is still in the pending state, in one
	// compare-and-swap. A lost race returns shared.ErrConcurrencyConflict;
	// the resolve callback decides expiry and authorization outcomes.
	ResolveIfPending(ctx context.Context, id uuid.UUID, resolve func(*PriceOverrideRequest) error) (*PriceOverrideRequest, error)
}

// CredentialRepository stores approver PIN credentials
type CredentialRepository interface {
	// FindByUser finds the credential bound to a user
	FindByUser(ctx context.Context, userID uuid.UUID) (*ApproverCredential, error)

	// Save creates or updates a credential
	Save(ctx context.Context, c *ApproverCredential) error
}
