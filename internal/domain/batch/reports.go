package batch

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgingBucket groups active batches by age-since-received
type AgingBucket struct {
	Label      string          `json:"label"`
	MinDays    int             `json:"min_days"`
	MaxDays    int             `json:"max_days"` // -1 means unbounded
	BatchCount int             `json:"batch_count"`
	Quantity   decimal.Decimal `json:"quantity"`
	StockValue decimal.Decimal `json:"stock_value"` // at purchase price
}

// defaultAgingBuckets are the standard 30-day aging brackets
func defaultAgingBuckets() []AgingBucket {
	return []AgingBucket{
		{Label: "0-30 days", MinDays: 0, MaxDays: 30, Quantity: decimal.Zero, StockValue: decimal.Zero},
		{Label: "31-60 days", MinDays: 31, MaxDays: 60, Quantity: decimal.Zero, StockValue: decimal.Zero},
		{Label: "61-90 days", MinDays: 61, MaxDays: 90, Quantity: decimal.Zero, StockValue: decimal.Zero},
		{Label: "over 90 days", MinDays: 91, MaxDays: -1, Quantity: decimal.Zero, StockValue: decimal.Zero},
	}
}

// StockAgingReport groups the active batches into age buckets as of the
// reference time
func StockAgingReport(batches []InventoryBatch, asOf time.Time) []AgingBucket {
	buckets := defaultAgingBuckets()
	for _, b := range batches {
		if !b.HasStock() {
			continue
		}
		age := b.AgeDaysAt(asOf)
		for i := range buckets {
			if age < buckets[i].MinDays {
				continue
			}
			if buckets[i].MaxDays >= 0 && age > buckets[i].MaxDays {
				continue
			}
			buckets[i].BatchCount++
			buckets[i].Quantity = buckets[i].Quantity.Add(b.CurrentQuantity)
			buckets[i].StockValue = buckets[i].StockValue.Add(b.CurrentQuantity.Mul(b.PurchasePrice))
			break
		}
	}
	return buckets
}

// ExpiringBatch is one row of the expiring-soon report
type ExpiringBatch struct {
	Batch    InventoryBatch `json:"batch"`
	DaysLeft int            `json:"days_left"`
}

// ExpiringSoon returns the in-stock batches whose expiry date falls within
// the window (asOf, asOf+days], ordered soonest first. Already expired
// batches are excluded; they belong on a wastage report, not this one.
func ExpiringSoon(batches []InventoryBatch, asOf time.Time, withinDays int) []ExpiringBatch {
	rows := make([]ExpiringBatch, 0)
	for _, b := range batches {
		if !b.HasStock() || !b.WillExpireWithin(asOf, withinDays) {
			continue
		}
		rows = append(rows, ExpiringBatch{
			Batch:    b,
			DaysLeft: int(b.ExpiryDate.Sub(asOf).Hours() / 24),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Batch.ExpiryDate.Before(*rows[j].Batch.ExpiryDate)
	})
	return rows
}

// SoldQuantity pairs a batch with the quantity sold from it over a period
type SoldQuantity struct {
	Batch        InventoryBatch
	QuantitySold decimal.Decimal
}

// ProfitLine is the per-batch contribution to the profit analysis
type ProfitLine struct {
	BatchID      uuid.UUID       `json:"batch_id"`
	BatchNumber  string          `json:"batch_number"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	UnitMargin   decimal.Decimal `json:"unit_margin"`
	Profit       decimal.Decimal `json:"profit"`
}

// ProfitAnalysis aggregates (selling price - purchase price) weighted by
// quantity sold
type ProfitAnalysis struct {
	Lines            []ProfitLine    `json:"lines"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
	AverageMarginPct decimal.Decimal `json:"average_margin_pct"`
}

// BatchProfitAnalysis computes the profit contribution of each batch from
// sold quantities. Margin percent is profit over cost of goods sold.
func BatchProfitAnalysis(sold []SoldQuantity) ProfitAnalysis {
	analysis := ProfitAnalysis{
		Lines:            make([]ProfitLine, 0, len(sold)),
		TotalQuantity:    decimal.Zero,
		TotalProfit:      decimal.Zero,
		AverageMarginPct: decimal.Zero,
	}
	totalCost := decimal.Zero
	for _, s := range sold {
		if s.QuantitySold.LessThanOrEqual(decimal.Zero) {
			continue
		}
		margin := s.Batch.UnitMargin()
		profit := margin.Mul(s.QuantitySold)
		analysis.Lines = append(analysis.Lines, ProfitLine{
			BatchID:      s.Batch.ID,
			BatchNumber:  s.Batch.BatchNumber,
			QuantitySold: s.QuantitySold,
			UnitMargin:   margin,
			Profit:       profit,
		})
		analysis.TotalQuantity = analysis.TotalQuantity.Add(s.QuantitySold)
		analysis.TotalProfit = analysis.TotalProfit.Add(profit)
		totalCost = totalCost.Add(s.Batch.PurchasePrice.Mul(s.QuantitySold))
	}
	if totalCost.GreaterThan(decimal.Zero) {
		analysis.AverageMarginPct = analysis.TotalProfit.Div(totalCost).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return analysis
}
