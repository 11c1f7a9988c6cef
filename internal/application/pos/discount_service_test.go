package pos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/discount"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDiscount(f *fixture, mutate func(*discount.POSDiscount)) *discount.POSDiscount {
	d := &discount.POSDiscount{
		BaseEntity:      shared.NewBaseEntity(svcNow),
		Name:            "test discount",
		Scope:           discount.ScopeBill,
		Type:            discount.TypePercentage,
		Value:           svcDec(10),
		IsGlobal:        true,
		Priority:        100,
		CashierCanApply: true,
		IsActive:        true,
	}
	if mutate != nil {
		mutate(d)
	}
	f.discounts.put(d)
	return d
}

func newDiscountService(f *fixture) *DiscountService {
	return NewDiscountService(f.scope, f.discounts, f.pricing, f.creds)
}

func TestDiscountService_ApplyDiscount(t *testing.T) {
	t.Run("caps the reduction at the discount's own limit", func(t *testing.T) {
		f := newFixture()
		limit := svcDec(200)
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			d.MaxDiscountAmount = &limit
		})
		svc := newDiscountService(f)

		// 10% of 3000 is 300, capped to 200
		resp, err := svc.ApplyDiscount(context.Background(), cashierOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(3000),
		})

		require.NoError(t, err)
		assert.True(t, resp.DiscountAmount.Equal(svcDec(200)))
		assert.True(t, resp.FinalAmount.Equal(svcDec(2800)))
		assert.Equal(t, string(discount.ApprovalStatusApproved), resp.ApprovalStatus)

		require.Len(t, f.auditLog.entries, 1)
		assert.Equal(t, audit.ActionDiscountApplied, f.auditLog.entries[0].Action)
	})

	t.Run("expired discount is not applicable", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			end := svcNow.AddDate(0, 0, -1)
			d.EndDate = &end
		})
		svc := newDiscountService(f)

		_, err := svc.ApplyDiscount(context.Background(), cashierOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(500),
		})

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodeDiscountNotApplicable, derr.Code)
		assert.Empty(t, f.applied.applied)
	})

	t.Run("other-branch discount is not applicable", func(t *testing.T) {
		f := newFixture()
		other := uuid.New()
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			d.IsGlobal = false
			d.BranchID = &other
		})
		svc := newDiscountService(f)

		_, err := svc.ApplyDiscount(context.Background(), cashierOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(500),
		})

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodeDiscountNotApplicable, derr.Code)
	})

	t.Run("restricted discount applied by a cashier stays pending", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			d.RequiresApproval = true
		})
		svc := newDiscountService(f)

		resp, err := svc.ApplyDiscount(context.Background(), cashierOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(500),
		})

		require.NoError(t, err)
		assert.Equal(t, string(discount.ApprovalStatusPending), resp.ApprovalStatus)
	})

	t.Run("restricted discount applied by a supervisor self-approves", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			d.RequiresApproval = true
		})
		svc := newDiscountService(f)

		resp, err := svc.ApplyDiscount(context.Background(), managerOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(500),
		})

		require.NoError(t, err)
		assert.Equal(t, string(discount.ApprovalStatusApproved), resp.ApprovalStatus)
	})

	t.Run("verified approver PIN finalizes a cashier application", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			d.RequiresApproval = true
		})
		approverID := uuid.New()
		cred, err := newCredential(approverID, "5566")
		require.NoError(t, err)
		require.NoError(t, f.creds.Save(context.Background(), cred))
		svc := newDiscountService(f)

		resp, err := svc.ApplyDiscount(context.Background(), cashierOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(500),
			ApproverID:    &approverID,
			ApproverPIN:   "5566",
		})

		require.NoError(t, err)
		assert.Equal(t, string(discount.ApprovalStatusApproved), resp.ApprovalStatus)
	})

	t.Run("wrong approver PIN is rejected", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			d.RequiresApproval = true
		})
		approverID := uuid.New()
		cred, err := newCredential(approverID, "5566")
		require.NoError(t, err)
		require.NoError(t, f.creds.Save(context.Background(), cred))
		svc := newDiscountService(f)

		_, err = svc.ApplyDiscount(context.Background(), cashierOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(500),
			ApproverID:    &approverID,
			ApproverPIN:   "0000",
		})

		assert.ErrorIs(t, err, shared.ErrUnauthorizedApprover)
	})

	t.Run("pricing control cap binds over the discount figures", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		c := seedControl(f, productID, nil, 0, 0)
		amt := svcDec(50)
		c.MaxDiscountAmount = &amt
		f.pricing.put(c)
		d := seedDiscount(f, func(d *discount.POSDiscount) {
			d.Scope = discount.ScopeItem
			d.ProductID = &productID
			d.Value = svcDec(20)
		})
		svc := newDiscountService(f)

		// 20% of 1000 is 200, the control caps it at 50
		resp, err := svc.ApplyDiscount(context.Background(), cashierOp(), ApplyDiscountRequest{
			TransactionID: "TX-1",
			DiscountID:    d.ID,
			Amount:        svcDec(1000),
		})

		require.NoError(t, err)
		assert.True(t, resp.DiscountAmount.Equal(svcDec(50)))
	})
}

func TestDiscountService_ApplyManualDiscount(t *testing.T) {
	t.Run("cashier application without approver stays pending", func(t *testing.T) {
		f := newFixture()
		svc := newDiscountService(f)

		resp, err := svc.ApplyManualDiscount(context.Background(), cashierOp(), ApplyManualDiscountRequest{
			TransactionID: "TX-2",
			Type:          "fixed",
			Value:         svcDec(30),
			Amount:        svcDec(400),
			Reason:        "loyal customer",
		})

		require.NoError(t, err)
		assert.Equal(t, string(discount.ApprovalStatusPending), resp.ApprovalStatus)
		require.Len(t, f.auditLog.entries, 1)
		assert.Equal(t, audit.ActionManualDiscountApplied, f.auditLog.entries[0].Action)
	})

	t.Run("control cap rejects an oversized manual discount", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		c := seedControl(f, productID, nil, 0, 0)
		pct := svcDec(5)
		c.MaxDiscountPercent = &pct
		f.pricing.put(c)
		svc := newDiscountService(f)

		_, err := svc.ApplyManualDiscount(context.Background(), managerOp(), ApplyManualDiscountRequest{
			TransactionID: "TX-2",
			ProductID:     &productID,
			Type:          "percentage",
			Value:         svcDec(15),
			Amount:        svcDec(400),
			Reason:        "damaged",
		})

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.CodePriceOutOfRange, derr.Code)
	})
}

func TestDiscountService_BestDiscount(t *testing.T) {
	t.Run("two equal non-stackables resolve by priority", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedDiscount(f, func(d *discount.POSDiscount) {
			d.Name = "later"
			d.Scope = discount.ScopeItem
			d.ProductID = &productID
			d.Type = discount.TypeFixed
			d.Value = svcDec(150)
			d.Priority = 5
		})
		seedDiscount(f, func(d *discount.POSDiscount) {
			d.Name = "earlier"
			d.Scope = discount.ScopeItem
			d.ProductID = &productID
			d.Type = discount.TypeFixed
			d.Value = svcDec(150)
			d.Priority = 2
		})
		svc := newDiscountService(f)

		resp, err := svc.BestDiscount(context.Background(), cashierOp(), BestDiscountRequest{
			ProductID: productID,
			Amount:    svcDec(1000),
		})

		require.NoError(t, err)
		require.Len(t, resp.Applied, 1)
		assert.Equal(t, "earlier", resp.Applied[0].Name)
		assert.True(t, resp.Total.Equal(svcDec(150)))
	})

	t.Run("stackable pair beats a smaller single", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedDiscount(f, func(d *discount.POSDiscount) {
			d.Scope = discount.ScopeItem
			d.ProductID = &productID
			d.Type = discount.TypeFixed
			d.Value = svcDec(120)
		})
		for i := 0; i < 2; i++ {
			seedDiscount(f, func(d *discount.POSDiscount) {
				d.Scope = discount.ScopeItem
				d.ProductID = &productID
				d.Type = discount.TypeFixed
				d.Value = svcDec(80)
				d.CanStack = true
			})
		}
		svc := newDiscountService(f)

		resp, err := svc.BestDiscount(context.Background(), cashierOp(), BestDiscountRequest{
			ProductID: productID,
			Amount:    svcDec(1000),
		})

		require.NoError(t, err)
		assert.True(t, resp.Stacked)
		assert.True(t, resp.Total.Equal(svcDec(160)))
	})

	t.Run("cashier does not see supervisor-only discounts", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		seedDiscount(f, func(d *discount.POSDiscount) {
			d.Scope = discount.ScopeItem
			d.ProductID = &productID
			d.Type = discount.TypeFixed
			d.Value = svcDec(500)
			d.CashierCanApply = false
		})
		svc := newDiscountService(f)

		resp, err := svc.BestDiscount(context.Background(), cashierOp(), BestDiscountRequest{
			ProductID: productID,
			Amount:    svcDec(1000),
		})

		require.NoError(t, err)
		assert.Empty(t, resp.Applied)
	})
}

func TestDiscountService_CreateDiscount(t *testing.T) {
	t.Run("cashier cannot define discounts", func(t *testing.T) {
		f := newFixture()
		svc := newDiscountService(f)

		_, err := svc.CreateDiscount(context.Background(), cashierOp(), CreateDiscountRequest{
			Name:  "summer",
			Scope: "bill",
			Type:  "percentage",
			Value: svcDec(5),
		})

		assert.ErrorIs(t, err, shared.ErrUnauthorizedApprover)
	})

	t.Run("manager defines a branch discount", func(t *testing.T) {
		f := newFixture()
		svc := newDiscountService(f)

		resp, err := svc.CreateDiscount(context.Background(), managerOp(), CreateDiscountRequest{
			Name:            "summer",
			Scope:           "bill",
			Type:            "percentage",
			Value:           svcDec(5),
			CashierCanApply: true,
		})

		require.NoError(t, err)
		assert.False(t, resp.IsGlobal)
		require.Len(t, f.auditLog.entries, 1)
		assert.Equal(t, audit.ActionDiscountCreated, f.auditLog.entries[0].Action)
	})

	t.Run("invalid scope binding is rejected", func(t *testing.T) {
		f := newFixture()
		svc := newDiscountService(f)

		_, err := svc.CreateDiscount(context.Background(), managerOp(), CreateDiscountRequest{
			Name:  "broken",
			Scope: "item",
			Type:  "fixed",
			Value: svcDec(10),
		})

		assert.Error(t, err)
	})
}

func TestDiscountService_DeactivateDiscount(t *testing.T) {
	t.Run("manager deactivates and ledger records it", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, nil)
		svc := newDiscountService(f)

		resp, err := svc.DeactivateDiscount(context.Background(), managerOp(), d.ID)

		require.NoError(t, err)
		assert.False(t, resp.IsActive)
		require.Len(t, f.auditLog.entries, 1)
		assert.Equal(t, audit.ActionDiscountModified, f.auditLog.entries[0].Action)
	})

	t.Run("repeated deactivation leaves one ledger entry", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, nil)
		svc := newDiscountService(f)

		_, err := svc.DeactivateDiscount(context.Background(), managerOp(), d.ID)
		require.NoError(t, err)
		resp, err := svc.DeactivateDiscount(context.Background(), managerOp(), d.ID)

		require.NoError(t, err)
		assert.False(t, resp.IsActive)
		assert.Len(t, f.auditLog.entries, 1)
	})

	t.Run("cashier cannot deactivate", func(t *testing.T) {
		f := newFixture()
		d := seedDiscount(f, nil)
		svc := newDiscountService(f)

		_, err := svc.DeactivateDiscount(context.Background(), cashierOp(), d.ID)

		assert.ErrorIs(t, err, shared.ErrUnauthorizedApprover)
	})

	t.Run("unknown discount is not found", func(t *testing.T) {
		f := newFixture()
		svc := newDiscountService(f)

		_, err := svc.DeactivateDiscount(context.Background(), managerOp(), uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDiscountService_ApplicableForBill(t *testing.T) {
	f := newFixture()
	minPurchase := svcDec(1000)
	seedDiscount(f, func(d *discount.POSDiscount) {
		d.Name = "big-bill"
		d.MinPurchaseAmount = &minPurchase
	})
	seedDiscount(f, func(d *discount.POSDiscount) {
		d.Name = "any-bill"
	})
	svc := newDiscountService(f)

	below, err := svc.ApplicableForBill(context.Background(), cashierOp(), svcDec(500))
	require.NoError(t, err)
	require.Len(t, below, 1)
	assert.Equal(t, "any-bill", below[0].Name)

	above, err := svc.ApplicableForBill(context.Background(), cashierOp(), svcDec(1500))
	require.NoError(t, err)
	assert.Len(t, above, 2)
}

// newCredential builds an approver credential fixture
func newCredential(userID uuid.UUID, pin string) (*override.ApproverCredential, error) {
	return override.NewApproverCredential(userID, pin, svcNow)
}
