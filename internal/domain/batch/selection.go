package batch

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SelectionStrategy determines the order in which batches supply a
// withdrawal. It is a configuration value, not a hard-coded policy.
type SelectionStrategy string

const (
	// SelectionFIFO consumes the oldest received stock first
	SelectionFIFO SelectionStrategy = "FIFO"
	// SelectionFEFO consumes the stock closest to expiry first, ahead of
	// received-date ordering
	SelectionFEFO SelectionStrategy = "FEFO"
)

// IsValid checks if the strategy is a known value
func (s SelectionStrategy) IsValid() bool {
	return s == SelectionFIFO || s == SelectionFEFO
}

// String returns the string representation
func (s SelectionStrategy) String() string {
	return string(s)
}

// ParseSelectionStrategy parses a configuration value into a strategy
func ParseSelectionStrategy(v string) (SelectionStrategy, error) {
	s := SelectionStrategy(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", shared.NewValidationError("unknown batch selection strategy %q", v)
	}
	return s, nil
}

// SortForSelection returns the active, in-stock batches ordered the way the
// strategy would consume them. The input slice is not modified.
//
// FIFO is a total order by (received_date, created_at). FEFO places any batch
// with an expiry date before any batch without one, orders expiring batches
// by expiry ascending, and breaks ties by received date.
func SortForSelection(batches []InventoryBatch, strategy SelectionStrategy) []InventoryBatch {
	available := make([]InventoryBatch, 0, len(batches))
	for _, b := range batches {
		if b.HasStock() {
			available = append(available, b)
		}
	}

	switch strategy {
	case SelectionFEFO:
		sort.SliceStable(available, func(i, j int) bool {
			bi, bj := available[i], available[j]
			switch {
			case bi.ExpiryDate != nil && bj.ExpiryDate != nil:
				if !bi.ExpiryDate.Equal(*bj.ExpiryDate) {
					return bi.ExpiryDate.Before(*bj.ExpiryDate)
				}
			case bi.ExpiryDate != nil:
				return true
			case bj.ExpiryDate != nil:
				return false
			}
			if !bi.ReceivedDate.Equal(bj.ReceivedDate) {
				return bi.ReceivedDate.Before(bj.ReceivedDate)
			}
			return bi.CreatedAt.Before(bj.CreatedAt)
		})
	default: // FIFO
		sort.SliceStable(available, func(i, j int) bool {
			bi, bj := available[i], available[j]
			if !bi.ReceivedDate.Equal(bj.ReceivedDate) {
				return bi.ReceivedDate.Before(bj.ReceivedDate)
			}
			return bi.CreatedAt.Before(bj.CreatedAt)
		})
	}
	return available
}

// PlannedDeduction is one batch's share of a withdrawal plan
type PlannedDeduction struct {
	BatchID       uuid.UUID
	BatchNumber   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal // selling price of the batch
	UnitCost      decimal.Decimal // purchase price of the batch
	WillDeplete   bool
	RemainingAfter decimal.Decimal
}

// WithdrawalPlan describes which batches supply a withdrawal and at what
// cost, computed before any mutation takes place
type WithdrawalPlan struct {
	Deductions          []PlannedDeduction
	TotalQuantity       decimal.Decimal
	TotalCost           decimal.Decimal
	WeightedAverageCost decimal.Decimal
	Shortfall           decimal.Decimal
	FullyFulfilled      bool
}

// PlanWithdrawal orders the batches by the strategy and allocates the
// requested quantity across them. It never mutates the batches.
func PlanWithdrawal(requested decimal.Decimal, batches []InventoryBatch, strategy SelectionStrategy) (*WithdrawalPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("withdrawal quantity must be positive, got %s", requested.String())
	}

	ordered := SortForSelection(batches, strategy)
	plan := &WithdrawalPlan{
		Deductions:    make([]PlannedDeduction, 0, len(ordered)),
		TotalQuantity: decimal.Zero,
		TotalCost:     decimal.Zero,
	}

	remaining := requested
	for _, b := range ordered {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, b.CurrentQuantity)
		after := b.CurrentQuantity.Sub(take)
		plan.Deductions = append(plan.Deductions, PlannedDeduction{
			BatchID:        b.ID,
			BatchNumber:    b.BatchNumber,
			Quantity:       take,
			UnitPrice:      b.SellingPrice,
			UnitCost:       b.PurchasePrice,
			WillDeplete:    after.IsZero(),
			RemainingAfter: after,
		})
		plan.TotalQuantity = plan.TotalQuantity.Add(take)
		plan.TotalCost = plan.TotalCost.Add(take.Mul(b.PurchasePrice))
		remaining = remaining.Sub(take)
	}

	plan.Shortfall = remaining
	plan.FullyFulfilled = remaining.IsZero()
	if plan.TotalQuantity.GreaterThan(decimal.Zero) {
		plan.WeightedAverageCost = plan.TotalCost.Div(plan.TotalQuantity).Round(4)
	}
	return plan, nil
}

// NextBatch returns the batch the strategy would consume first, or nil when
// no batch has stock. Used to answer "what is the current selling price".
func NextBatch(batches []InventoryBatch, strategy SelectionStrategy) *InventoryBatch {
	ordered := SortForSelection(batches, strategy)
	if len(ordered) == 0 {
		return nil
	}
	return &ordered[0]
}

// TotalStock sums current quantity over active batches
func TotalStock(batches []InventoryBatch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if b.IsActive() {
			total = total.Add(b.CurrentQuantity)
		}
	}
	return total
}
