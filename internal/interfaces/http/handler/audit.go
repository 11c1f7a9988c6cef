package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/application/pos"
)

// AuditHandler handles audit trail and reporting API endpoints
type AuditHandler struct {
	BaseHandler
	auditService *pos.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *pos.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// LogAction appends one standalone ledger entry
func (h *AuditHandler) LogAction(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.LogActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entry, err := h.auditService.LogAction(c.Request.Context(), op, req.ToEntry())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// EntityHistory returns the ordered audit trail of one entity
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	if _, ok := h.operator(c); !ok {
		return
	}
	entityType := c.Param("type")
	entityID, err := parseUUID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entity ID format")
		return
	}

	history, err := h.auditService.EntityHistory(c.Request.Context(), entityType, entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// DiscountImpact returns the per-day discount impact report for a period
func (h *AuditHandler) DiscountImpact(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var period pos.ReportPeriodRequest
	if err := c.ShouldBindQuery(&period); err != nil {
		h.BadRequest(c, "from and to are required RFC3339 timestamps")
		return
	}

	report, err := h.auditService.DiscountImpactReport(c.Request.Context(), op, period.From, period.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// OverrideReport returns the price override report for a period
func (h *AuditHandler) OverrideReport(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var period pos.ReportPeriodRequest
	if err := c.ShouldBindQuery(&period); err != nil {
		h.BadRequest(c, "from and to are required RFC3339 timestamps")
		return
	}

	report, err := h.auditService.PriceOverrideReport(c.Request.Context(), op, period.From, period.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
