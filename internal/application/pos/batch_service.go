package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/batch"
	"github.com/retailpos/backend/internal/domain/pricing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchService handles batch-level stock operations for the POS
type BatchService struct {
	scope       TransactionScope
	batchRepo   batch.Repository
	pricingRepo pricing.Repository
	auditRepo   audit.Repository
	strategy    batch.SelectionStrategy
}

// NewBatchService creates a new BatchService. The strategy decides the order
// batches supply withdrawals (FIFO or FEFO) and comes from configuration.
func NewBatchService(
	scope TransactionScope,
	batchRepo batch.Repository,
	pricingRepo pricing.Repository,
	auditRepo audit.Repository,
	strategy batch.SelectionStrategy,
) *BatchService {
	return &BatchService{
		scope:       scope,
		batchRepo:   batchRepo,
		pricingRepo: pricingRepo,
		auditRepo:   auditRepo,
		strategy:    strategy,
	}
}

// GetAvailableBatches lists the in-stock batches for a product at the
// operator's branch, ordered the way the strategy would consume them
func (s *BatchService) GetAvailableBatches(ctx context.Context, op shared.OperatorContext, productID uuid.UUID) ([]BatchResponse, error) {
	batches, err := s.batchRepo.FindActive(ctx, productID, op.BranchID)
	if err != nil {
		return nil, err
	}
	ordered := batch.SortForSelection(batches, s.strategy)
	out := make([]BatchResponse, 0, len(ordered))
	for i := range ordered {
		out = append(out, ToBatchResponse(&ordered[i]))
	}
	return out, nil
}

// TotalStock sums the remaining quantity across active batches of a product
func (s *BatchService) TotalStock(ctx context.Context, op shared.OperatorContext, productID uuid.UUID) (decimal.Decimal, error) {
	return s.batchRepo.SumCurrentQuantity(ctx, productID, op.BranchID)
}

// SellingPrice returns the price of the batch the strategy would sell next.
// With no stock at all, the answer falls back to the pricing control's
// default selling price; with no control either, it is a not-found outcome.
func (s *BatchService) SellingPrice(ctx context.Context, op shared.OperatorContext, productID uuid.UUID) (*SellingPriceResponse, error) {
	batches, err := s.batchRepo.FindActive(ctx, productID, op.BranchID)
	if err != nil {
		return nil, err
	}
	next := batch.NextBatch(batches, s.strategy)
	if next == nil {
		control, err := s.pricingRepo.Resolve(ctx, productID, op.BranchID)
		if err != nil {
			return nil, err
		}
		if control == nil {
			return nil, shared.ErrNotFound
		}
		return &SellingPriceResponse{
			ProductID: productID,
			Price:     control.DefaultSellingPrice,
		}, nil
	}
	return &SellingPriceResponse{
		ProductID:   productID,
		BatchID:     &next.ID,
		BatchNumber: next.BatchNumber,
		Price:       next.SellingPrice,
	}, nil
}

// CreateBatch records a goods receipt and its audit entry atomically
func (s *BatchService) CreateBatch(ctx context.Context, op shared.OperatorContext, req CreateBatchRequest) (*BatchResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	batchNumber := req.BatchNumber
	if batchNumber == "" {
		batchNumber = batch.GenerateBatchNumber(req.ProductCode, req.BranchCode, req.ReceivedDate)
	}

	b, err := batch.NewInventoryBatch(
		req.ProductID, op.BranchID, batchNumber,
		req.PurchasePrice, req.SellingPrice, req.Quantity,
		req.Supplier, req.ReceivedDate, req.ExpiryDate, req.ManufacturingDate,
		req.LowStockThreshold, op.Now,
	)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.BatchRepo().Create(ctx, b); err != nil {
			return err
		}
		entry, err := audit.NewEntry(op, audit.Entry{
			Action:     audit.ActionBatchCreated,
			EntityType: "inventory_batch",
			EntityID:   b.ID,
			Amount:     b.OriginalQuantity.Mul(b.PurchasePrice),
			Detail:     "received batch " + b.BatchNumber,
		})
		if err != nil {
			return err
		}
		return repos.AuditRepo().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	resp := ToBatchResponse(b)
	return &resp, nil
}

// DeductQuantity withdraws quantity from a product's batches in strategy
// order. The plan is computed first; a shortfall rejects the whole request
// before anything is written. Each per-batch decrement goes through the
// repository's atomic compare-and-decrement, and all decrements plus their
// audit entries commit as one transaction.
func (s *BatchService) DeductQuantity(ctx context.Context, op shared.OperatorContext, req DeductQuantityRequest) (*DeductQuantityResponse, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	var resp *DeductQuantityResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batches, err := repos.BatchRepo().FindActive(ctx, req.ProductID, op.BranchID)
		if err != nil {
			return err
		}

		plan, err := batch.PlanWithdrawal(req.Quantity, batches, s.strategy)
		if err != nil {
			return err
		}
		if !plan.FullyFulfilled {
			return shared.NewInsufficientStockError(req.Quantity, plan.TotalQuantity)
		}

		lines := make([]DeductionLineResponse, 0, len(plan.Deductions))
		for _, d := range plan.Deductions {
			updated, err := repos.BatchRepo().DeductQuantity(ctx, d.BatchID, d.Quantity, op.Now)
			if err != nil {
				return err
			}
			lines = append(lines, DeductionLineResponse{
				BatchID:     updated.ID,
				BatchNumber: updated.BatchNumber,
				Quantity:    d.Quantity,
				UnitCost:    d.UnitCost,
				Depleted:    !updated.IsActive(),
			})

			qtyBefore := updated.CurrentQuantity.Add(d.Quantity)
			entry, err := audit.NewEntry(op, audit.Entry{
				Action:        audit.ActionBatchDeducted,
				EntityType:    "inventory_batch",
				EntityID:      d.BatchID,
				TransactionID: req.TransactionID,
				OldValue:      &qtyBefore,
				NewValue:      &updated.CurrentQuantity,
				Amount:        d.Quantity.Mul(d.UnitCost),
				Detail:        "deducted " + d.Quantity.String() + " from batch " + d.BatchNumber,
				Metadata: map[string]any{
					"quantity": d.Quantity.String(),
					"depleted": !updated.IsActive(),
				},
			})
			if err != nil {
				return err
			}
			if err := repos.AuditRepo().Append(ctx, entry); err != nil {
				return err
			}
		}

		resp = &DeductQuantityResponse{
			ProductID:           req.ProductID,
			TotalQuantity:       plan.TotalQuantity,
			WeightedAverageCost: plan.WeightedAverageCost,
			Deductions:          lines,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// StockAgingReport groups the branch's in-stock batches into age buckets.
// A storage failure surfaces as a ReportUnavailableError, never as an
// empty report.
func (s *BatchService) StockAgingReport(ctx context.Context, op shared.OperatorContext) ([]batch.AgingBucket, error) {
	batches, err := s.batchRepo.FindByBranch(ctx, op.BranchID, shared.DefaultFilter())
	if err != nil {
		return nil, shared.NewReportUnavailableError("stock_aging", err)
	}
	return batch.StockAgingReport(batches, op.Now), nil
}

// ExpiringSoonReport lists the in-stock batches expiring within the window
func (s *BatchService) ExpiringSoonReport(ctx context.Context, op shared.OperatorContext, withinDays int) ([]batch.ExpiringBatch, error) {
	batches, err := s.batchRepo.FindExpiringSoon(ctx, op.BranchID, op.Now, withinDays)
	if err != nil {
		return nil, shared.NewReportUnavailableError("expiring_soon", err)
	}
	return batch.ExpiringSoon(batches, op.Now, withinDays), nil
}

// BatchProfitAnalysis computes per-batch profit for a product over a period.
// Quantities sold come from the deduction ledger entries in [from, to), not
// from lifetime batch counters, so two periods never double-count a sale.
func (s *BatchService) BatchProfitAnalysis(ctx context.Context, op shared.OperatorContext, productID uuid.UUID, from, to time.Time) (*batch.ProfitAnalysis, error) {
	if !from.Before(to) {
		return nil, shared.NewValidationError("report period start must precede its end")
	}

	batches, err := s.batchRepo.FindByBranch(ctx, op.BranchID, shared.Filter{
		Filters: map[string]any{"product_id": productID},
	})
	if err != nil {
		return nil, shared.NewReportUnavailableError("batch_profit", err)
	}
	deductions, err := s.auditRepo.FindByAction(ctx, op.BranchID, audit.ActionBatchDeducted, from, to)
	if err != nil {
		return nil, shared.NewReportUnavailableError("batch_profit", err)
	}

	soldByBatch := make(map[uuid.UUID]decimal.Decimal, len(deductions))
	for _, e := range deductions {
		if e.OldValue == nil || e.NewValue == nil {
			continue
		}
		soldByBatch[e.EntityID] = soldByBatch[e.EntityID].Add(e.OldValue.Sub(*e.NewValue))
	}

	sold := make([]batch.SoldQuantity, 0, len(batches))
	for _, b := range batches {
		sold = append(sold, batch.SoldQuantity{
			Batch:        b,
			QuantitySold: soldByBatch[b.ID],
		})
	}
	analysis := batch.BatchProfitAnalysis(sold)
	return &analysis, nil
}
