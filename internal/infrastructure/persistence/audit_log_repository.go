package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements audit.Repository using GORM. The ledger
// is append-only: the repository exposes no update or delete.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)

// Append persists one ledger entry
func (r *GormAuditLogRepository) Append(ctx context.Context, log *audit.POSAuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity lists entries for one subject entity, oldest first
func (r *GormAuditLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]audit.POSAuditLog, error) {
	var logs []audit.POSAuditLog
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("occurred_at ASC, created_at ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// FindByBranch lists entries for a branch within a period
func (r *GormAuditLogRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, from, to time.Time, filter shared.Filter) ([]audit.POSAuditLog, error) {
	var logs []audit.POSAuditLog
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&audit.POSAuditLog{}).
			Where("branch_id = ? AND occurred_at >= ? AND occurred_at <= ?", branchID, from, to),
		filter,
	)

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// FindByAction lists a branch's entries of one kind within [from, to)
func (r *GormAuditLogRepository) FindByAction(ctx context.Context, branchID uuid.UUID, action audit.ActionKind, from, to time.Time) ([]audit.POSAuditLog, error) {
	var logs []audit.POSAuditLog
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND action = ? AND occurred_at >= ? AND occurred_at < ?", branchID, action, from, to).
		Order("occurred_at ASC, created_at ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// DiscountImpactRows aggregates discount entry amounts per calendar day.
// DATE() truncation is understood by both PostgreSQL and SQLite.
func (r *GormAuditLogRepository) DiscountImpactRows(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]audit.DiscountImpactRow, error) {
	var rows []struct {
		Day         string
		Count       int64
		TotalAmount decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&audit.POSAuditLog{}).
		Select("DATE(occurred_at) as day, COUNT(*) as count, COALESCE(SUM(amount), 0) as total_amount").
		Where("branch_id = ? AND occurred_at >= ? AND occurred_at <= ?", branchID, from, to).
		Where("action IN ?", []audit.ActionKind{audit.ActionDiscountApplied, audit.ActionManualDiscountApplied}).
		Group("DATE(occurred_at)").
		Order("day ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]audit.DiscountImpactRow, 0, len(rows))
	for _, row := range rows {
		day, err := parseDay(row.Day)
		if err != nil {
			return nil, err
		}
		average := decimal.Zero
		if row.Count > 0 {
			average = row.TotalAmount.Div(decimal.NewFromInt(row.Count))
		}
		result = append(result, audit.DiscountImpactRow{
			Date:          day,
			Count:         row.Count,
			TotalAmount:   row.TotalAmount,
			AverageAmount: average,
		})
	}
	return result, nil
}

// parseDay reads the DATE() column, which PostgreSQL hands back as a
// timestamp and SQLite as plain YYYY-MM-DD text
func parseDay(s string) (time.Time, error) {
	if day, err := time.Parse("2006-01-02", s); err == nil {
		return day, nil
	}
	return time.Parse(time.RFC3339, s)
}

// CountByAction counts entries per action kind within a period
func (r *GormAuditLogRepository) CountByAction(ctx context.Context, branchID uuid.UUID, from, to time.Time) (map[audit.ActionKind]int64, error) {
	var rows []struct {
		Action audit.ActionKind
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&audit.POSAuditLog{}).
		Select("action, COUNT(*) as count").
		Where("branch_id = ? AND occurred_at >= ? AND occurred_at <= ?", branchID, from, to).
		Group("action").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[audit.ActionKind]int64, len(rows))
	for _, row := range rows {
		counts[row.Action] = row.Count
	}
	return counts, nil
}

// OverrideActorImpacts aggregates approved override amounts per approver
func (r *GormAuditLogRepository) OverrideActorImpacts(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]audit.ActorImpact, error) {
	var rows []struct {
		ActorID     uuid.UUID
		ActorName   string
		Count       int64
		TotalAmount decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&audit.POSAuditLog{}).
		Select("actor_id, actor_name, COUNT(*) as count, COALESCE(SUM(amount), 0) as total_amount").
		Where("branch_id = ? AND occurred_at >= ? AND occurred_at <= ?", branchID, from, to).
		Where("action = ?", audit.ActionOverrideApproved).
		Group("actor_id, actor_name").
		Order("total_amount DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	impacts := make([]audit.ActorImpact, 0, len(rows))
	for _, row := range rows {
		impacts = append(impacts, audit.ActorImpact{
			ActorID:     row.ActorID,
			ActorName:   row.ActorName,
			Count:       row.Count,
			TotalAmount: row.TotalAmount,
		})
	}
	return impacts, nil
}

// applyFilter applies filter options to the query
func (r *GormAuditLogRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "action":
			query = query.Where("action = ?", value)
		case "actor_id":
			query = query.Where("actor_id = ?", value)
		case "entity_type":
			query = query.Where("entity_type = ?", value)
		case "transaction_id":
			query = query.Where("transaction_id = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("occurred_at DESC")
	}

	return query
}
