package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/application/pos"
)

// DiscountHandler handles discount API endpoints
type DiscountHandler struct {
	BaseHandler
	discountService *pos.DiscountService
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(discountService *pos.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

// ApplicableForProduct returns discounts a cashier could apply to a line
func (h *DiscountHandler) ApplicableForProduct(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	productID, ok := queryProductID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	categoryID, err := parseOptionalUUID(c.Query("category_id"))
	if err != nil {
		h.BadRequest(c, "Invalid category ID format")
		return
	}

	discounts, err := h.discountService.ApplicableForProduct(c.Request.Context(), op, productID, categoryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, discounts)
}

// ApplicableForBill returns bill-scope discounts the amount qualifies for
func (h *DiscountHandler) ApplicableForBill(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	amount, ok := parseDecimalQuery(c, "amount")
	if !ok {
		h.BadRequest(c, "amount must be a decimal number")
		return
	}

	discounts, err := h.discountService.ApplicableForBill(c.Request.Context(), op, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, discounts)
}

// Best arbitrates the applicable discounts and returns the winning reduction
func (h *DiscountHandler) Best(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.BestDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	best, err := h.discountService.BestDiscount(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, best)
}

// Apply applies a defined discount to a transaction
func (h *DiscountHandler) Apply(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	applied, err := h.discountService.ApplyDiscount(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, applied)
}

// ApplyManual applies an ad-hoc discount that has no stored definition
func (h *DiscountHandler) ApplyManual(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.ApplyManualDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	applied, err := h.discountService.ApplyManualDiscount(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, applied)
}

// Create defines a new discount
func (h *DiscountHandler) Create(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.discountService.CreateDiscount(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, created)
}

// Deactivate retires a discount definition
func (h *DiscountHandler) Deactivate(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	id, err := parseUUID(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid discount ID")
		return
	}

	resp, err := h.discountService.DeactivateDiscount(c.Request.Context(), op, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
