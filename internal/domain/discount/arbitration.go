package discount

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Candidate pairs a discount definition with the monetary reduction it would
// produce for a concrete amount/quantity, so arbitration compares money, not
// definitions.
type Candidate struct {
	Discount POSDiscount
	Amount   decimal.Decimal
}

// Selection is the outcome of arbitrating a candidate set
type Selection struct {
	Applied []Candidate
	Total   decimal.Decimal
	Stacked bool
}

// BestDiscount arbitrates the candidates. Only discounts explicitly marked
// stackable may be summed; non-stackable candidates compete on resulting
// amount, highest wins, ties broken by the lowest priority value (the
// earlier-defined discount). The stacked sum competes against the best
// single candidate and the larger total is selected.
func BestDiscount(candidates []Candidate) Selection {
	live := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Amount.GreaterThan(decimal.Zero) {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		return Selection{Applied: nil, Total: decimal.Zero}
	}

	stack := make([]Candidate, 0, len(live))
	stackTotal := decimal.Zero
	var best *Candidate
	for i := range live {
		c := live[i]
		if c.Discount.CanStack {
			stack = append(stack, c)
			stackTotal = stackTotal.Add(c.Amount)
			continue
		}
		if best == nil {
			best = &live[i]
			continue
		}
		switch c.Amount.Cmp(best.Amount) {
		case 1:
			best = &live[i]
		case 0:
			if c.Discount.Priority < best.Discount.Priority {
				best = &live[i]
			}
		}
	}

	if best != nil && best.Amount.GreaterThanOrEqual(stackTotal) {
		return Selection{Applied: []Candidate{*best}, Total: best.Amount}
	}
	if len(stack) > 0 {
		sort.SliceStable(stack, func(i, j int) bool {
			return stack[i].Discount.Priority < stack[j].Discount.Priority
		})
		return Selection{Applied: stack, Total: stackTotal, Stacked: len(stack) > 1}
	}
	return Selection{Applied: []Candidate{*best}, Total: best.Amount}
}

// SortByPriority orders discounts by ascending priority value, the
// evaluation order the engine presents candidates in
func SortByPriority(discounts []POSDiscount) []POSDiscount {
	out := make([]POSDiscount, len(discounts))
	copy(out, discounts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
