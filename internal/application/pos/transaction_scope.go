package pos

import (
	"context"

	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/batch"
	"github.com/retailpos/backend/internal/domain/discount"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/pricing"
)

// TransactionScope provides transactional access to the POS repositories.
// A function executed within a scope sees all repository operations as one
// database transaction: the business mutation and its audit entry commit or
// roll back together, so an audited action cannot exist without its record.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the POS repositories within
// a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// BatchRepo returns the inventory batch repository scoped to the transaction
	BatchRepo() batch.Repository
	// PricingRepo returns the pricing control repository scoped to the transaction
	PricingRepo() pricing.Repository
	// DiscountRepo returns the discount definition repository scoped to the transaction
	DiscountRepo() discount.Repository
	// TransactionDiscountRepo returns the applied-discount repository scoped to the transaction
	TransactionDiscountRepo() discount.TransactionRepository
	// OverrideRepo returns the override request repository scoped to the transaction
	OverrideRepo() override.Repository
	// AuditRepo returns the audit ledger repository scoped to the transaction
	AuditRepo() audit.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing with in-memory repositories.
type NoOpTransactionScope struct {
	batchRepo               batch.Repository
	pricingRepo             pricing.Repository
	discountRepo            discount.Repository
	transactionDiscountRepo discount.TransactionRepository
	overrideRepo            override.Repository
	auditRepo               audit.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	batchRepo batch.Repository,
	pricingRepo pricing.Repository,
	discountRepo discount.Repository,
	transactionDiscountRepo discount.TransactionRepository,
	overrideRepo override.Repository,
	auditRepo audit.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		batchRepo:               batchRepo,
		pricingRepo:             pricingRepo,
		discountRepo:            discountRepo,
		transactionDiscountRepo: transactionDiscountRepo,
		overrideRepo:            overrideRepo,
		auditRepo:               auditRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BatchRepo returns the inventory batch repository.
func (s *NoOpTransactionScope) BatchRepo() batch.Repository { return s.batchRepo }

// PricingRepo returns the pricing control repository.
func (s *NoOpTransactionScope) PricingRepo() pricing.Repository { return s.pricingRepo }

// DiscountRepo returns the discount definition repository.
func (s *NoOpTransactionScope) DiscountRepo() discount.Repository { return s.discountRepo }

// TransactionDiscountRepo returns the applied-discount repository.
func (s *NoOpTransactionScope) TransactionDiscountRepo() discount.TransactionRepository {
	return s.transactionDiscountRepo
}

// OverrideRepo returns the override request repository.
func (s *NoOpTransactionScope) OverrideRepo() override.Repository { return s.overrideRepo }

// AuditRepo returns the audit ledger repository.
func (s *NoOpTransactionScope) AuditRepo() audit.Repository { return s.auditRepo }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
