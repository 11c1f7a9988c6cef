package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/application/pos"
)

// OverrideHandler handles price override API endpoints
type OverrideHandler struct {
	BaseHandler
	overrideService *pos.OverrideService
}

// NewOverrideHandler creates a new OverrideHandler
func NewOverrideHandler(overrideService *pos.OverrideService) *OverrideHandler {
	return &OverrideHandler{overrideService: overrideService}
}

// Create opens a price override request for a below-limit price
func (h *OverrideHandler) Create(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.overrideService.CreateRequest(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, created)
}

// Pending lists unexpired pending requests for the operator's branch
func (h *OverrideHandler) Pending(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	pending, err := h.overrideService.PendingRequests(c.Request.Context(), op)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pending)
}

// Approve resolves a pending request as approved
func (h *OverrideHandler) Approve(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	requestID, err := parseUUID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid request ID format")
		return
	}

	var req pos.ResolveOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resolved, err := h.overrideService.ApproveRequest(c.Request.Context(), op, requestID, req.PIN)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resolved)
}

// Deny resolves a pending request as denied with a reason
func (h *OverrideHandler) Deny(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	requestID, err := parseUUID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid request ID format")
		return
	}

	var req pos.ResolveOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resolved, err := h.overrideService.DenyRequest(c.Request.Context(), op, requestID, req.PIN, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resolved)
}

// setPINRequest carries a new approval PIN
type setPINRequest struct {
	PIN string `json:"pin" binding:"required,min=4,max=12"`
}

// SetPIN stores the operator's approval PIN
func (h *OverrideHandler) SetPIN(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req setPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.overrideService.SetPIN(c.Request.Context(), op, req.PIN); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
