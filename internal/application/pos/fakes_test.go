package pos

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/batch"
	"github.com/retailpos/backend/internal/domain/discount"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/retailpos/backend/internal/domain/pricing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// In-memory repository fakes shared by the service tests. Each fake holds
// the invariants its real counterpart enforces in SQL, so service tests
// exercise the same outcomes without a database.

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*batch.InventoryBatch
	failAll error
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]*batch.InventoryBatch)}
}

func (f *fakeBatchRepo) put(b *batch.InventoryBatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.batches[b.ID] = &cp
}

func (f *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*batch.InventoryBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	b, ok := f.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBatchRepo) FindActive(_ context.Context, productID, branchID uuid.UUID) ([]batch.InventoryBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make([]batch.InventoryBatch, 0)
	for _, b := range f.batches {
		if b.ProductID == productID && b.BranchID == branchID && b.HasStock() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBatchRepo) FindByBranch(_ context.Context, branchID uuid.UUID, filter shared.Filter) ([]batch.InventoryBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	productFilter, hasProduct := filter.Filters["product_id"]
	out := make([]batch.InventoryBatch, 0)
	for _, b := range f.batches {
		if b.BranchID != branchID {
			continue
		}
		if hasProduct && b.ProductID != productFilter.(uuid.UUID) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBatchRepo) FindExpiringSoon(_ context.Context, branchID uuid.UUID, asOf time.Time, withinDays int) ([]batch.InventoryBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make([]batch.InventoryBatch, 0)
	for _, b := range f.batches {
		if b.BranchID == branchID && b.HasStock() && b.WillExpireWithin(asOf, withinDays) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBatchRepo) SumCurrentQuantity(_ context.Context, productID, branchID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return decimal.Zero, f.failAll
	}
	total := decimal.Zero
	for _, b := range f.batches {
		if b.ProductID == productID && b.BranchID == branchID && b.IsActive() {
			total = total.Add(b.CurrentQuantity)
		}
	}
	return total, nil
}

func (f *fakeBatchRepo) Create(_ context.Context, b *batch.InventoryBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	cp := *b
	f.batches[b.ID] = &cp
	return nil
}

func (f *fakeBatchRepo) Save(_ context.Context, b *batch.InventoryBatch) error {
	return f.Create(context.Background(), b)
}

func (f *fakeBatchRepo) DeductQuantity(_ context.Context, id uuid.UUID, quantity decimal.Decimal, now time.Time) (*batch.InventoryBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	b, ok := f.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if err := b.Deduct(quantity, now); err != nil {
		return nil, err
	}
	cp := *b
	return &cp, nil
}

type fakePricingRepo struct {
	mu       sync.Mutex
	controls map[uuid.UUID]*pricing.PricingControl
}

func newFakePricingRepo() *fakePricingRepo {
	return &fakePricingRepo{controls: make(map[uuid.UUID]*pricing.PricingControl)}
}

func (f *fakePricingRepo) put(c *pricing.PricingControl) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.controls[c.ID] = &cp
}

func (f *fakePricingRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.PricingControl, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.controls[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakePricingRepo) FindForProduct(_ context.Context, productID, branchID uuid.UUID) (*pricing.PricingControl, *pricing.PricingControl, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var branchControl, globalControl *pricing.PricingControl
	for _, c := range f.controls {
		if c.ProductID != productID {
			continue
		}
		cp := *c
		if c.BranchID == nil {
			globalControl = &cp
		} else if *c.BranchID == branchID {
			branchControl = &cp
		}
	}
	return branchControl, globalControl, nil
}

func (f *fakePricingRepo) Resolve(ctx context.Context, productID, branchID uuid.UUID) (*pricing.PricingControl, error) {
	branchControl, globalControl, err := f.FindForProduct(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	return pricing.ResolveControl(branchControl, globalControl), nil
}

func (f *fakePricingRepo) Save(_ context.Context, c *pricing.PricingControl) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.controls[c.ID] = &cp
	return nil
}

type fakeDiscountRepo struct {
	mu        sync.Mutex
	discounts map[uuid.UUID]*discount.POSDiscount
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{discounts: make(map[uuid.UUID]*discount.POSDiscount)}
}

func (f *fakeDiscountRepo) put(d *discount.POSDiscount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.discounts[d.ID] = &cp
}

func (f *fakeDiscountRepo) FindByID(_ context.Context, id uuid.UUID) (*discount.POSDiscount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDiscountRepo) visible(d *discount.POSDiscount, branchID uuid.UUID, at time.Time, cashierOnly bool) bool {
	if !d.IsValidAt(at) || !d.AppliesAtBranch(branchID) {
		return false
	}
	if cashierOnly && !d.CashierCanApply {
		return false
	}
	return true
}

func (f *fakeDiscountRepo) FindApplicableForProduct(_ context.Context, branchID, productID uuid.UUID, categoryID *uuid.UUID, at time.Time, cashierOnly bool) ([]discount.POSDiscount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]discount.POSDiscount, 0)
	for _, d := range f.discounts {
		if !f.visible(d, branchID, at, cashierOnly) {
			continue
		}
		switch d.Scope {
		case discount.ScopeItem:
			if d.ProductID != nil && *d.ProductID == productID {
				out = append(out, *d)
			}
		case discount.ScopeCategory:
			if categoryID != nil && d.CategoryID != nil && *d.CategoryID == *categoryID {
				out = append(out, *d)
			}
		}
	}
	return discount.SortByPriority(out), nil
}

func (f *fakeDiscountRepo) FindApplicableForBill(_ context.Context, branchID uuid.UUID, billAmount decimal.Decimal, at time.Time, cashierOnly bool) ([]discount.POSDiscount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]discount.POSDiscount, 0)
	for _, d := range f.discounts {
		if d.Scope != discount.ScopeBill || !f.visible(d, branchID, at, cashierOnly) {
			continue
		}
		if d.MinPurchaseAmount != nil && billAmount.LessThan(*d.MinPurchaseAmount) {
			continue
		}
		out = append(out, *d)
	}
	return discount.SortByPriority(out), nil
}

func (f *fakeDiscountRepo) FindByBranch(_ context.Context, branchID uuid.UUID, _ shared.Filter) ([]discount.POSDiscount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]discount.POSDiscount, 0)
	for _, d := range f.discounts {
		if d.AppliesAtBranch(branchID) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDiscountRepo) Save(_ context.Context, d *discount.POSDiscount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.discounts[d.ID] = &cp
	return nil
}

type fakeTransactionDiscountRepo struct {
	mu      sync.Mutex
	applied []discount.TransactionDiscount
}

func (f *fakeTransactionDiscountRepo) Create(_ context.Context, td *discount.TransactionDiscount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, *td)
	return nil
}

func (f *fakeTransactionDiscountRepo) FindByTransaction(_ context.Context, transactionID string) ([]discount.TransactionDiscount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]discount.TransactionDiscount, 0)
	for _, td := range f.applied {
		if td.TransactionID == transactionID {
			out = append(out, td)
		}
	}
	return out, nil
}

type fakeOverrideRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*override.PriceOverrideRequest
}

func newFakeOverrideRepo() *fakeOverrideRepo {
	return &fakeOverrideRepo{requests: make(map[uuid.UUID]*override.PriceOverrideRequest)}
}

func (f *fakeOverrideRepo) FindByID(_ context.Context, id uuid.UUID) (*override.PriceOverrideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeOverrideRepo) FindPending(_ context.Context, branchID uuid.UUID, ref time.Time) ([]override.PriceOverrideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]override.PriceOverrideRequest, 0)
	for _, r := range f.requests {
		if r.BranchID == branchID && r.IsPendingAt(ref) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeOverrideRepo) FindByBranch(_ context.Context, branchID uuid.UUID, _ shared.Filter) ([]override.PriceOverrideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]override.PriceOverrideRequest, 0)
	for _, r := range f.requests {
		if r.BranchID == branchID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeOverrideRepo) Create(_ context.Context, r *override.PriceOverrideRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.requests[r.ID] = &cp
	return nil
}

func (f *fakeOverrideRepo) Save(_ context.Context, r *override.PriceOverrideRequest) error {
	return f.Create(context.Background(), r)
}

func (f *fakeOverrideRepo) ResolveIfPending(_ context.Context, id uuid.UUID, resolve func(*override.PriceOverrideRequest) error) (*override.PriceOverrideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.requests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if stored.Status != override.StatusPending {
		return nil, shared.ErrConcurrencyConflict
	}
	cp := *stored
	if err := resolve(&cp); err != nil {
		return nil, err
	}
	f.requests[id] = &cp
	out := cp
	return &out, nil
}

type fakeCredentialRepo struct {
	mu    sync.Mutex
	creds map[uuid.UUID]*override.ApproverCredential
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{creds: make(map[uuid.UUID]*override.ApproverCredential)}
}

func (f *fakeCredentialRepo) FindByUser(_ context.Context, userID uuid.UUID) (*override.ApproverCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creds[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCredentialRepo) Save(_ context.Context, c *override.ApproverCredential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.creds[c.UserID] = &cp
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []audit.POSAuditLog
	failAll error
}

func (f *fakeAuditRepo) Append(_ context.Context, log *audit.POSAuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	f.entries = append(f.entries, *log)
	return nil
}

func (f *fakeAuditRepo) FindByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]audit.POSAuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audit.POSAuditLog, 0)
	for _, e := range f.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) FindByBranch(_ context.Context, branchID uuid.UUID, from, to time.Time, _ shared.Filter) ([]audit.POSAuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audit.POSAuditLog, 0)
	for _, e := range f.entries {
		if e.BranchID == branchID && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) FindByAction(_ context.Context, branchID uuid.UUID, action audit.ActionKind, from, to time.Time) ([]audit.POSAuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make([]audit.POSAuditLog, 0)
	for _, e := range f.entries {
		if e.Action == action && f.inPeriod(e, branchID, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) inPeriod(e audit.POSAuditLog, branchID uuid.UUID, from, to time.Time) bool {
	return e.BranchID == branchID && !e.OccurredAt.Before(from) && e.OccurredAt.Before(to)
}

func (f *fakeAuditRepo) DiscountImpactRows(_ context.Context, branchID uuid.UUID, from, to time.Time) ([]audit.DiscountImpactRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	byDay := make(map[time.Time]*audit.DiscountImpactRow)
	for _, e := range f.entries {
		if !f.inPeriod(e, branchID, from, to) {
			continue
		}
		if e.Action != audit.ActionDiscountApplied && e.Action != audit.ActionManualDiscountApplied {
			continue
		}
		day := e.OccurredAt.Truncate(24 * time.Hour)
		row, ok := byDay[day]
		if !ok {
			row = &audit.DiscountImpactRow{Date: day, TotalAmount: decimal.Zero}
			byDay[day] = row
		}
		row.Count++
		row.TotalAmount = row.TotalAmount.Add(e.Amount)
	}
	out := make([]audit.DiscountImpactRow, 0, len(byDay))
	for _, row := range byDay {
		if row.Count > 0 {
			row.AverageAmount = row.TotalAmount.Div(decimal.NewFromInt(row.Count))
		}
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeAuditRepo) CountByAction(_ context.Context, branchID uuid.UUID, from, to time.Time) (map[audit.ActionKind]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := make(map[audit.ActionKind]int64)
	for _, e := range f.entries {
		if f.inPeriod(e, branchID, from, to) {
			out[e.Action]++
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) OverrideActorImpacts(_ context.Context, branchID uuid.UUID, from, to time.Time) ([]audit.ActorImpact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	byActor := make(map[uuid.UUID]*audit.ActorImpact)
	for _, e := range f.entries {
		if !f.inPeriod(e, branchID, from, to) || e.Action != audit.ActionOverrideApproved {
			continue
		}
		impact, ok := byActor[e.ActorID]
		if !ok {
			impact = &audit.ActorImpact{ActorID: e.ActorID, ActorName: e.ActorName, TotalAmount: decimal.Zero}
			byActor[e.ActorID] = impact
		}
		impact.Count++
		impact.TotalAmount = impact.TotalAmount.Add(e.Amount)
	}
	out := make([]audit.ActorImpact, 0, len(byActor))
	for _, impact := range byActor {
		out = append(out, *impact)
	}
	return out, nil
}

// fixture bundles the fakes behind a NoOpTransactionScope
type fixture struct {
	batches   *fakeBatchRepo
	pricing   *fakePricingRepo
	discounts *fakeDiscountRepo
	applied   *fakeTransactionDiscountRepo
	overrides *fakeOverrideRepo
	creds     *fakeCredentialRepo
	auditLog  *fakeAuditRepo
	scope     *NoOpTransactionScope
}

func newFixture() *fixture {
	f := &fixture{
		batches:   newFakeBatchRepo(),
		pricing:   newFakePricingRepo(),
		discounts: newFakeDiscountRepo(),
		applied:   &fakeTransactionDiscountRepo{},
		overrides: newFakeOverrideRepo(),
		creds:     newFakeCredentialRepo(),
		auditLog:  &fakeAuditRepo{},
	}
	f.scope = NewNoOpTransactionScope(f.batches, f.pricing, f.discounts, f.applied, f.overrides, f.auditLog)
	return f
}

var _ batch.Repository = (*fakeBatchRepo)(nil)
var _ pricing.Repository = (*fakePricingRepo)(nil)
var _ discount.Repository = (*fakeDiscountRepo)(nil)
var _ discount.TransactionRepository = (*fakeTransactionDiscountRepo)(nil)
var _ override.Repository = (*fakeOverrideRepo)(nil)
var _ override.CredentialRepository = (*fakeCredentialRepo)(nil)
var _ audit.Repository = (*fakeAuditRepo)(nil)
