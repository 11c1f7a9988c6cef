package pos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverrideService(f *fixture) *OverrideService {
	return NewOverrideService(f.scope, f.overrides, f.creds, f.pricing, f.batches, 30*time.Minute)
}

func supervisorWithPIN(t *testing.T, f *fixture, pin string) shared.OperatorContext {
	t.Helper()
	op := shared.OperatorContext{
		ActorID:   uuid.New(),
		ActorName: "supervisor",
		BranchID:  svcBranch,
		Authority: shared.SupervisorAuthority,
		Now:       svcNow,
	}
	cred, err := override.NewApproverCredential(op.ActorID, pin, svcNow)
	require.NoError(t, err)
	require.NoError(t, f.creds.Save(context.Background(), cred))
	return op
}

func openRequest(t *testing.T, f *fixture, svc *OverrideService, productID uuid.UUID) OverrideResponse {
	t.Helper()
	resp, err := svc.CreateRequest(context.Background(), cashierOp(), CreateOverrideRequest{
		ProductID:      productID,
		TransactionID:  "TX-9",
		OriginalPrice:  svcDec(120),
		RequestedPrice: svcDec(80),
		Quantity:       svcDec(2),
		Reason:         "near expiry",
	})
	require.NoError(t, err)
	return *resp
}

func TestOverrideService_CreateRequest(t *testing.T) {
	t.Run("below-floor price opens a pending request", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)

		resp := openRequest(t, f, svc, productID)

		assert.Equal(t, string(override.StatusPending), resp.Status)
		assert.True(t, resp.AmountImpact.Equal(svcDec(80))) // (120-80)*2
		assert.Equal(t, svcNow.Add(30*time.Minute), resp.ExpiresAt)
		require.Len(t, f.auditLog.entries, 1)
		assert.Equal(t, audit.ActionOverrideRequested, f.auditLog.entries[0].Action)
	})

	t.Run("snapshots the control's floor onto the request", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)

		resp := openRequest(t, f, svc, productID)

		require.NotNil(t, resp.MinAllowedPrice)
		assert.True(t, resp.MinAllowedPrice.Equal(svcDec(100)))

		stored, err := f.overrides.FindByID(context.Background(), resp.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.MinAllowedPrice)
		assert.True(t, stored.MinAllowedPrice.Equal(svcDec(100)))
	})

	t.Run("control forbidding manual prices leaves nothing to request", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		c := seedControl(f, productID, nil, 100, 500)
		c.AllowManualPrice = false
		f.pricing.put(c)
		svc := newOverrideService(f)

		_, err := svc.CreateRequest(context.Background(), cashierOp(), CreateOverrideRequest{
			ProductID:      productID,
			OriginalPrice:  svcDec(120),
			RequestedPrice: svcDec(80),
			Quantity:       svcDec(1),
			Reason:         "near expiry",
		})

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodeValidation, derr.Code)
	})

	t.Run("in-range price below the margin floor still opens a request", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		c := seedControl(f, productID, nil, 100, 500)
		minMargin := svcDec(100)
		c.MinMarginPercent = &minMargin
		f.pricing.put(c)
		b := seedBatch(f, productID, 10, 5) // purchased at 60, margin floor 120
		svc := newOverrideService(f)

		resp, err := svc.CreateRequest(context.Background(), cashierOp(), CreateOverrideRequest{
			ProductID:      productID,
			BatchID:        &b.ID,
			OriginalPrice:  svcDec(120),
			RequestedPrice: svcDec(110),
			Quantity:       svcDec(1),
			Reason:         "price match",
		})

		require.NoError(t, err)
		assert.Equal(t, string(override.StatusPending), resp.Status)
	})

	t.Run("margin floor has no bite without a batch reference", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		c := seedControl(f, productID, nil, 100, 500)
		minMargin := svcDec(100)
		c.MinMarginPercent = &minMargin
		f.pricing.put(c)
		svc := newOverrideService(f)

		_, err := svc.CreateRequest(context.Background(), cashierOp(), CreateOverrideRequest{
			ProductID:      productID,
			OriginalPrice:  svcDec(120),
			RequestedPrice: svcDec(110),
			Quantity:       svcDec(1),
			Reason:         "price match",
		})

		assert.Error(t, err)
	})

	t.Run("in-policy price needs no override", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)

		_, err := svc.CreateRequest(context.Background(), cashierOp(), CreateOverrideRequest{
			ProductID:      productID,
			OriginalPrice:  svcDec(120),
			RequestedPrice: svcDec(110),
			Quantity:       svcDec(1),
			Reason:         "none",
		})

		assert.Error(t, err)
	})

	t.Run("above-ceiling price is rejected outright", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)

		_, err := svc.CreateRequest(context.Background(), cashierOp(), CreateOverrideRequest{
			ProductID:      productID,
			OriginalPrice:  svcDec(120),
			RequestedPrice: svcDec(600),
			Quantity:       svcDec(1),
			Reason:         "typo",
		})

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodePriceOutOfRange, derr.Code)
	})
}

func TestOverrideService_ApproveRequest(t *testing.T) {
	t.Run("supervisor with PIN approves", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)
		req := openRequest(t, f, svc, productID)
		approver := supervisorWithPIN(t, f, "7410")

		resp, err := svc.ApproveRequest(context.Background(), approver, req.ID, "7410")

		require.NoError(t, err)
		assert.Equal(t, string(override.StatusApproved), resp.Status)
		assert.Equal(t, "supervisor", resp.ResolvedByName)

		var approved *audit.POSAuditLog
		for i := range f.auditLog.entries {
			if f.auditLog.entries[i].Action == audit.ActionOverrideApproved {
				approved = &f.auditLog.entries[i]
			}
		}
		require.NotNil(t, approved)
		require.NotNil(t, approved.ApproverID)
		assert.Equal(t, approver.ActorID, *approved.ApproverID)
		require.NotNil(t, approved.OldValue)
		require.NotNil(t, approved.NewValue)
		assert.True(t, approved.Amount.Equal(svcDec(80)))
	})

	t.Run("wrong PIN never reaches the request", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)
		req := openRequest(t, f, svc, productID)
		approver := supervisorWithPIN(t, f, "7410")

		_, err := svc.ApproveRequest(context.Background(), approver, req.ID, "9999")

		assert.ErrorIs(t, err, shared.ErrUnauthorizedApprover)
		stored, ferr := f.overrides.FindByID(context.Background(), req.ID)
		require.NoError(t, ferr)
		assert.Equal(t, override.StatusPending, stored.Status)
	})

	t.Run("cashier authority cannot approve", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)
		req := openRequest(t, f, svc, productID)

		_, err := svc.ApproveRequest(context.Background(), cashierOp(), req.ID, "7410")

		assert.ErrorIs(t, err, shared.ErrUnauthorizedApprover)
	})

	t.Run("approval past the deadline fails and persists expiry", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)
		req := openRequest(t, f, svc, productID)

		approver := supervisorWithPIN(t, f, "7410")
		approver.Now = svcNow.Add(31 * time.Minute)

		_, err := svc.ApproveRequest(context.Background(), approver, req.ID, "7410")

		assert.ErrorIs(t, err, shared.ErrExpiredRequest)

		stored, ferr := f.overrides.FindByID(context.Background(), req.ID)
		require.NoError(t, ferr)
		assert.Equal(t, override.StatusExpired, stored.Status)

		kinds := make([]audit.ActionKind, 0, len(f.auditLog.entries))
		for _, e := range f.auditLog.entries {
			kinds = append(kinds, e.Action)
		}
		assert.Contains(t, kinds, audit.ActionOverrideExpired)
	})

	t.Run("second resolution loses the race", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)
		req := openRequest(t, f, svc, productID)
		first := supervisorWithPIN(t, f, "7410")
		second := supervisorWithPIN(t, f, "8520")

		_, err := svc.ApproveRequest(context.Background(), first, req.ID, "7410")
		require.NoError(t, err)

		_, err = svc.DenyRequest(context.Background(), second, req.ID, "8520", "too low")
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("raised ceiling check still binds at approval time", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		c := seedControl(f, productID, nil, 100, 500)
		svc := newOverrideService(f)
		req := openRequest(t, f, svc, productID)

		// policy tightened after the request was created
		lower := svcDec(70)
		c.MaxSellingPrice = &lower
		f.pricing.put(c)

		approver := supervisorWithPIN(t, f, "7410")
		_, err := svc.ApproveRequest(context.Background(), approver, req.ID, "7410")

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodePriceOutOfRange, derr.Code)
	})
}

func TestOverrideService_DenyRequest(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	seedControl(f, productID, nil, 100, 500)
	svc := newOverrideService(f)
	req := openRequest(t, f, svc, productID)
	approver := supervisorWithPIN(t, f, "7410")

	resp, err := svc.DenyRequest(context.Background(), approver, req.ID, "7410", "margin too thin")

	require.NoError(t, err)
	assert.Equal(t, string(override.StatusDenied), resp.Status)
	assert.Equal(t, "margin too thin", resp.DenialReason)

	var denied *audit.POSAuditLog
	for i := range f.auditLog.entries {
		if f.auditLog.entries[i].Action == audit.ActionOverrideDenied {
			denied = &f.auditLog.entries[i]
		}
	}
	require.NotNil(t, denied)
	assert.True(t, denied.Amount.IsZero(), "a denial authorizes nothing")
	require.NotNil(t, denied.ApproverID)
	assert.Equal(t, approver.ActorID, *denied.ApproverID)
	assert.Equal(t, "margin too thin", denied.Reason)
}

func TestOverrideService_PendingRequests(t *testing.T) {
	f := newFixture()
	productID := uuid.New()
	seedControl(f, productID, nil, 100, 500)
	svc := newOverrideService(f)
	openRequest(t, f, svc, productID)

	t.Run("lists resolvable requests", func(t *testing.T) {
		op := cashierOp()
		pending, err := svc.PendingRequests(context.Background(), op)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("aged-out requests drop off the list", func(t *testing.T) {
		op := cashierOp()
		op.Now = svcNow.Add(time.Hour)
		pending, err := svc.PendingRequests(context.Background(), op)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestOverrideService_VerifyPIN(t *testing.T) {
	f := newFixture()
	svc := newOverrideService(f)
	userID := uuid.New()
	cred, err := override.NewApproverCredential(userID, "1234", svcNow)
	require.NoError(t, err)
	require.NoError(t, f.creds.Save(context.Background(), cred))

	ok, err := svc.VerifyPIN(context.Background(), userID, "1234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPIN(context.Background(), userID, "4321")
	require.NoError(t, err)
	assert.False(t, ok)

	// unknown user verifies negative, not an error
	ok, err = svc.VerifyPIN(context.Background(), uuid.New(), "1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOverrideService_SetPIN(t *testing.T) {
	f := newFixture()
	svc := newOverrideService(f)

	op := shared.OperatorContext{
		ActorID:   uuid.New(),
		ActorName: "supervisor",
		BranchID:  svcBranch,
		Authority: shared.SupervisorAuthority,
		Now:       svcNow,
	}

	require.NoError(t, svc.SetPIN(context.Background(), op, "2468"))
	ok, err := svc.VerifyPIN(context.Background(), op.ActorID, "2468")
	require.NoError(t, err)
	assert.True(t, ok)

	// replacing the PIN invalidates the old one
	require.NoError(t, svc.SetPIN(context.Background(), op, "1357"))
	ok, err = svc.VerifyPIN(context.Background(), op.ActorID, "2468")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.SetPIN(context.Background(), cashierOp(), "1111"), shared.ErrUnauthorizedApprover)
}
