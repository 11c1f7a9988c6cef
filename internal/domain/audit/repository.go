package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// Repository is the append-only port for the audit ledger. There is no
// update or delete; the only write is Append.
type Repository interface {
	// Append persists one ledger entry
	Append(ctx context.Context, log *POSAuditLog) error

	// FindByEntity lists entries for one subject entity, oldest first
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]POSAuditLog, error)

	// FindByBranch lists entries for a branch within a period
	FindByBranch(ctx context.Context, branchID uuid.UUID, from, to time.Time, filter shared.Filter) ([]POSAuditLog, error)

	// FindByAction lists a branch's entries of one kind within [from, to)
	FindByAction(ctx context.Context, branchID uuid.UUID, action ActionKind, from, to time.Time) ([]POSAuditLog, error)

	// DiscountImpactRows aggregates discount entry amounts per day
	DiscountImpactRows(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]DiscountImpactRow, error)

	// CountByAction counts entries per action kind within a period
	CountByAction(ctx context.Context, branchID uuid.UUID, from, to time.Time) (map[ActionKind]int64, error)

	// OverrideActorImpacts aggregates approved override amounts per approver
	OverrideActorImpacts(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]ActorImpact, error)
}
