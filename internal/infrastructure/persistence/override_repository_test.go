package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func overrideRows(id, requestedBy uuid.UUID, status override.Status, expiresAt time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "product_id", "branch_id", "transaction_id",
		"original_price", "requested_price", "quantity", "reason", "status",
		"requested_by", "requested_by_name", "expires_at",
	}).AddRow(
		id, now, now, uuid.New(), uuid.New(), "TX-1",
		decimal.NewFromInt(120), decimal.NewFromInt(80), decimal.NewFromInt(1), "near expiry", string(status),
		requestedBy, "cashier", expiresAt,
	)
}

func approverContext() shared.OperatorContext {
	return shared.OperatorContext{
		ActorID:   uuid.New(),
		ActorName: "supervisor",
		BranchID:  uuid.New(),
		Authority: shared.SupervisorAuthority,
		Now:       time.Now(),
	}
}

func TestGormOverrideRepository_ResolveIfPending(t *testing.T) {
	t.Run("resolution lands on a pending row", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormOverrideRepository(gormDB)

		id := uuid.New()
		op := approverContext()
		mock.ExpectQuery(`SELECT \* FROM "price_override_requests" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(overrideRows(id, uuid.New(), override.StatusPending, op.Now.Add(10*time.Minute)))
		mock.ExpectExec(`UPDATE "price_override_requests" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		resolved, err := repo.ResolveIfPending(context.Background(), id, func(r *override.PriceOverrideRequest) error {
			_, err := r.Approve(op)
			return err
		})

		require.NoError(t, err)
		assert.Equal(t, override.StatusApproved, resolved.Status)
		require.NotNil(t, resolved.ResolvedBy)
		assert.Equal(t, op.ActorID, *resolved.ResolvedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already resolved row conflicts before the callback runs", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormOverrideRepository(gormDB)

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "price_override_requests" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(overrideRows(id, uuid.New(), override.StatusApproved, time.Now().Add(10*time.Minute)))

		called := false
		_, err := repo.ResolveIfPending(context.Background(), id, func(r *override.PriceOverrideRequest) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("write guarded on pending loses a concurrent race", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormOverrideRepository(gormDB)

		id := uuid.New()
		op := approverContext()
		mock.ExpectQuery(`SELECT \* FROM "price_override_requests" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(overrideRows(id, uuid.New(), override.StatusPending, op.Now.Add(10*time.Minute)))
		mock.ExpectExec(`UPDATE "price_override_requests" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.ResolveIfPending(context.Background(), id, func(r *override.PriceOverrideRequest) error {
			_, err := r.Approve(op)
			return err
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("callback error rolls back without a write", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormOverrideRepository(gormDB)

		id := uuid.New()
		op := approverContext()
		// deadline already passed, Approve observes expiry
		mock.ExpectQuery(`SELECT \* FROM "price_override_requests" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(overrideRows(id, uuid.New(), override.StatusPending, op.Now.Add(-time.Minute)))

		_, err := repo.ResolveIfPending(context.Background(), id, func(r *override.PriceOverrideRequest) error {
			_, err := r.Approve(op)
			return err
		})

		assert.ErrorIs(t, err, shared.ErrExpiredRequest)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOverrideRepository_FindPending(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormOverrideRepository(gormDB)

	branchID := uuid.New()
	ref := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "price_override_requests" WHERE branch_id = \$1 AND status = \$2 AND expires_at >= \$3 ORDER BY created_at ASC`).
		WithArgs(branchID, string(override.StatusPending), ref).
		WillReturnRows(overrideRows(uuid.New(), uuid.New(), override.StatusPending, ref.Add(5*time.Minute)))

	pending, err := repo.FindPending(context.Background(), branchID, ref)

	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormApproverCredentialRepository_FindByUser(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormApproverCredentialRepository(gormDB)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "approver_credentials" WHERE user_id = \$1`).
		WithArgs(userID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.FindByUser(context.Background(), userID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
