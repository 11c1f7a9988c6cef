package override

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func cashierCtx(at time.Time) shared.OperatorContext {
	return shared.OperatorContext{
		ActorID:   uuid.New(),
		ActorName: "cashier",
		BranchID:  uuid.New(),
		Authority: shared.CashierAuthority,
		Now:       at,
	}
}

func supervisorCtx(at time.Time) shared.OperatorContext {
	return shared.OperatorContext{
		ActorID:   uuid.New(),
		ActorName: "supervisor",
		BranchID:  uuid.New(),
		Authority: shared.SupervisorAuthority,
		Now:       at,
	}
}

func newPendingRequest(t *testing.T, ttl time.Duration) *PriceOverrideRequest {
	t.Helper()
	r, err := NewPriceOverrideRequest(
		cashierCtx(baseTime), uuid.New(), nil, "TX-9",
		dec(100), dec(80), dec(1), "damaged packaging", ttl,
	)
	require.NoError(t, err)
	return r
}

func TestNewPriceOverrideRequest(t *testing.T) {
	t.Run("opens pending with deadline from ttl", func(t *testing.T) {
		r := newPendingRequest(t, 30*time.Minute)

		assert.Equal(t, StatusPending, r.Status)
		assert.Equal(t, baseTime.Add(30*time.Minute), r.ExpiresAt)
	})

	t.Run("zero ttl falls back to the default", func(t *testing.T) {
		r := newPendingRequest(t, 0)
		assert.Equal(t, baseTime.Add(DefaultTTL), r.ExpiresAt)
	})

	t.Run("requires a reason", func(t *testing.T) {
		_, err := NewPriceOverrideRequest(
			cashierCtx(baseTime), uuid.New(), nil, "",
			dec(100), dec(80), dec(1), "", time.Minute,
		)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewPriceOverrideRequest(
			cashierCtx(baseTime), uuid.New(), nil, "",
			dec(100), dec(80), decimal.Zero, "reason", time.Minute,
		)
		assert.Error(t, err)
	})
}

func TestPriceOverrideRequest_EffectiveStatusAt(t *testing.T) {
	r := newPendingRequest(t, 30*time.Minute)

	assert.Equal(t, StatusPending, r.EffectiveStatusAt(baseTime.Add(29*time.Minute)))
	assert.Equal(t, StatusPending, r.EffectiveStatusAt(baseTime.Add(30*time.Minute)))
	assert.Equal(t, StatusExpired, r.EffectiveStatusAt(baseTime.Add(31*time.Minute)))

	// a resolved request never reads as expired
	approver := supervisorCtx(baseTime.Add(5 * time.Minute))
	_, err := r.Approve(approver)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, r.EffectiveStatusAt(baseTime.Add(2*time.Hour)))
}

func TestPriceOverrideRequest_Approve(t *testing.T) {
	t.Run("supervisor approves a pending request", func(t *testing.T) {
		r := newPendingRequest(t, 30*time.Minute)
		op := supervisorCtx(baseTime.Add(10 * time.Minute))

		changed, err := r.Approve(op)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusApproved, r.Status)
		assert.Equal(t, &op.ActorID, r.ResolvedBy)
		require.NotNil(t, r.ResolvedAt)
		assert.Equal(t, op.Now, *r.ResolvedAt)
	})

	t.Run("cashier authority is rejected", func(t *testing.T) {
		r := newPendingRequest(t, 30*time.Minute)

		_, err := r.Approve(cashierCtx(baseTime.Add(time.Minute)))

		assert.ErrorIs(t, err, shared.ErrUnauthorizedApprover)
		assert.Equal(t, StatusPending, r.Status)
	})

	t.Run("requester cannot self-approve", func(t *testing.T) {
		requester := cashierCtx(baseTime)
		requester.Authority = shared.SupervisorAuthority
		r, err := NewPriceOverrideRequest(
			requester, uuid.New(), nil, "",
			dec(100), dec(80), dec(1), "reason", 30*time.Minute,
		)
		require.NoError(t, err)

		requester.Now = baseTime.Add(time.Minute)
		_, err = r.Approve(requester)

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodeUnauthorizedApprover, derr.Code)
	})

	t.Run("approval past the deadline fails expired", func(t *testing.T) {
		// created at minute 0 with a 30 minute window, resolved at minute 31
		r := newPendingRequest(t, 30*time.Minute)

		_, err := r.Approve(supervisorCtx(baseTime.Add(31 * time.Minute)))

		assert.ErrorIs(t, err, shared.ErrExpiredRequest)
		assert.Equal(t, StatusPending, r.Status)
	})

	t.Run("repeat approval is a no-op", func(t *testing.T) {
		r := newPendingRequest(t, 30*time.Minute)
		op := supervisorCtx(baseTime.Add(time.Minute))

		changed, err := r.Approve(op)
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = r.Approve(supervisorCtx(baseTime.Add(2 * time.Minute)))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("approving a denied request conflicts", func(t *testing.T) {
		r := newPendingRequest(t, 30*time.Minute)
		_, err := r.Deny(supervisorCtx(baseTime.Add(time.Minute)), "no")
		require.NoError(t, err)

		_, err = r.Approve(supervisorCtx(baseTime.Add(2 * time.Minute)))
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestPriceOverrideRequest_Deny(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		r := newPendingRequest(t, 30*time.Minute)
		_, err := r.Deny(supervisorCtx(baseTime.Add(time.Minute)), "")
		assert.Error(t, err)
	})

	t.Run("records resolver and reason", func(t *testing.T) {
		r := newPendingRequest(t, 30*time.Minute)
		op := supervisorCtx(baseTime.Add(time.Minute))

		changed, err := r.Deny(op, "price too low for this SKU")

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusDenied, r.Status)
		assert.Equal(t, "price too low for this SKU", r.DenialReason)
	})
}

func TestPriceOverrideRequest_AmountImpact(t *testing.T) {
	r := newPendingRequest(t, time.Minute)
	r.OriginalPrice = dec(100)
	r.RequestedPrice = dec(80)
	r.Quantity = dec(3)

	assert.True(t, r.AmountImpact().Equal(dec(60)))

	// upward override reads negative
	r.RequestedPrice = dec(110)
	assert.True(t, r.AmountImpact().Equal(dec(-30)))
}

func TestPriceOverrideRequest_MarkExpired(t *testing.T) {
	r := newPendingRequest(t, 30*time.Minute)

	assert.False(t, r.MarkExpired(baseTime.Add(10*time.Minute)))
	assert.True(t, r.MarkExpired(baseTime.Add(31*time.Minute)))
	assert.Equal(t, StatusExpired, r.Status)
	assert.False(t, r.MarkExpired(baseTime.Add(32*time.Minute)))
}

func TestApproverCredential(t *testing.T) {
	t.Run("verifies the set PIN", func(t *testing.T) {
		c, err := NewApproverCredential(uuid.New(), "4921", baseTime)
		require.NoError(t, err)

		assert.True(t, c.VerifyPIN("4921"))
		assert.False(t, c.VerifyPIN("0000"))
	})

	t.Run("rejects malformed PINs", func(t *testing.T) {
		_, err := NewApproverCredential(uuid.New(), "12", baseTime)
		assert.Error(t, err)

		_, err = NewApproverCredential(uuid.New(), "12ab", baseTime)
		assert.Error(t, err)
	})

	t.Run("inactive credential never verifies", func(t *testing.T) {
		c, err := NewApproverCredential(uuid.New(), "4921", baseTime)
		require.NoError(t, err)

		c.Active = false
		assert.False(t, c.VerifyPIN("4921"))
	})
}
