package persistence

import (
	"context"

	"github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/batch"
	"github.com/retailpos/backend/internal/domain/discount"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/pricing"
	"gorm.io/gorm"
)

// GormTransactionScope implements pos.TransactionScope using GORM
// transactions. All repositories handed to the callback share one
// transaction, so a business mutation and its audit entry commit or roll
// back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

var _ pos.TransactionScope = (*GormTransactionScope)(nil)

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos pos.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

var _ pos.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

func (r *gormTransactionalRepositories) BatchRepo() batch.Repository {
	return NewGormBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) PricingRepo() pricing.Repository {
	return NewGormPricingControlRepository(r.tx)
}

func (r *gormTransactionalRepositories) DiscountRepo() discount.Repository {
	return NewGormDiscountRepository(r.tx)
}

func (r *gormTransactionalRepositories) TransactionDiscountRepo() discount.TransactionRepository {
	return NewGormTransactionDiscountRepository(r.tx)
}

func (r *gormTransactionalRepositories) OverrideRepo() override.Repository {
	return NewGormOverrideRepository(r.tx)
}

func (r *gormTransactionalRepositories) AuditRepo() audit.Repository {
	return NewGormAuditLogRepository(r.tx)
}
