package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountImpactRow is one day of discount activity at a branch
type DiscountImpactRow struct {
	Date          time.Time
	Count         int64
	TotalAmount   decimal.Decimal
	AverageAmount decimal.Decimal
}

// DiscountImpactReport aggregates discount activity over a period
type DiscountImpactReport struct {
	BranchID    uuid.UUID
	From        time.Time
	To          time.Time
	Rows        []DiscountImpactRow
	TotalCount  int64
	TotalAmount decimal.Decimal
}

// ActorImpact totals the override activity attributable to one actor
type ActorImpact struct {
	ActorID     uuid.UUID
	ActorName   string
	Count       int64
	TotalAmount decimal.Decimal
}

// OverrideReport summarizes override resolutions over a period. Approval
// rate is out of resolved requests; still-pending requests are excluded.
type OverrideReport struct {
	BranchID      uuid.UUID
	From          time.Time
	To            time.Time
	Requested     int64
	Approved      int64
	Denied        int64
	Expired       int64
	ApprovedValue decimal.Decimal
	ByApprover    []ActorImpact
}

// ApprovalRate returns approved / (approved + denied) as a percentage,
// zero when nothing was resolved
func (r *OverrideReport) ApprovalRate() decimal.Decimal {
	resolved := r.Approved + r.Denied
	if resolved == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(r.Approved).
		Div(decimal.NewFromInt(resolved)).
		Mul(decimal.NewFromInt(100))
}
