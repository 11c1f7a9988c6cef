package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AuditService appends to and reports from the POS audit ledger
type AuditService struct {
	scope     TransactionScope
	auditRepo audit.Repository
}

// NewAuditService creates a new AuditService
func NewAuditService(scope TransactionScope, auditRepo audit.Repository) *AuditService {
	return &AuditService{
		scope:     scope,
		auditRepo: auditRepo,
	}
}

// LogAction appends one standalone ledger entry. Mutating services write
// their entries inside their own transactions; this is for events with no
// accompanying mutation, such as a rejected price attempt.
func (s *AuditService) LogAction(ctx context.Context, op shared.OperatorContext, e audit.Entry) (*audit.POSAuditLog, error) {
	entry, err := audit.NewEntry(op, e)
	if err != nil {
		return nil, err
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// EntityHistory lists the ledger entries for one subject, oldest first
func (s *AuditService) EntityHistory(ctx context.Context, entityType string, entityID uuid.UUID) ([]audit.POSAuditLog, error) {
	return s.auditRepo.FindByEntity(ctx, entityType, entityID)
}

// DiscountImpactReport aggregates discount activity per day over a period.
// A storage failure surfaces as a ReportUnavailableError, never as an
// empty report.
func (s *AuditService) DiscountImpactReport(ctx context.Context, op shared.OperatorContext, from, to time.Time) (*audit.DiscountImpactReport, error) {
	if !from.Before(to) {
		return nil, shared.NewValidationError("report period start must precede its end")
	}

	rows, err := s.auditRepo.DiscountImpactRows(ctx, op.BranchID, from, to)
	if err != nil {
		return nil, shared.NewReportUnavailableError("discount_impact", err)
	}

	report := &audit.DiscountImpactReport{
		BranchID:    op.BranchID,
		From:        from,
		To:          to,
		Rows:        rows,
		TotalAmount: decimal.Zero,
	}
	for _, r := range rows {
		report.TotalCount += r.Count
		report.TotalAmount = report.TotalAmount.Add(r.TotalAmount)
	}
	return report, nil
}

// PriceOverrideReport summarizes override activity over a period: volumes
// per outcome, approved value, and per-approver impact
func (s *AuditService) PriceOverrideReport(ctx context.Context, op shared.OperatorContext, from, to time.Time) (*audit.OverrideReport, error) {
	if !from.Before(to) {
		return nil, shared.NewValidationError("report period start must precede its end")
	}

	counts, err := s.auditRepo.CountByAction(ctx, op.BranchID, from, to)
	if err != nil {
		return nil, shared.NewReportUnavailableError("price_override", err)
	}
	impacts, err := s.auditRepo.OverrideActorImpacts(ctx, op.BranchID, from, to)
	if err != nil {
		return nil, shared.NewReportUnavailableError("price_override", err)
	}

	report := &audit.OverrideReport{
		BranchID:      op.BranchID,
		From:          from,
		To:            to,
		Requested:     counts[audit.ActionOverrideRequested],
		Approved:      counts[audit.ActionOverrideApproved],
		Denied:        counts[audit.ActionOverrideDenied],
		Expired:       counts[audit.ActionOverrideExpired],
		ApprovedValue: decimal.Zero,
		ByApprover:    impacts,
	}
	for _, i := range impacts {
		report.ApprovedValue = report.ApprovedValue.Add(i.TotalAmount)
	}
	return report, nil
}
