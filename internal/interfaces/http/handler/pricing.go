package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/application/pos"
	"github.com/shopspring/decimal"
)

// PricingHandler handles pricing control API endpoints
type PricingHandler struct {
	BaseHandler
	pricingService *pos.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricingService *pos.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// SetControl creates or replaces a pricing control for a product
func (h *PricingHandler) SetControl(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.SetPricingControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	control, err := h.pricingService.SetPricingControl(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, control)
}

// ValidatePrice checks a proposed selling price against the resolved control
func (h *PricingHandler) ValidatePrice(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.ValidatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	validation, err := h.pricingService.ValidatePrice(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, validation)
}

// validateDiscountRequest checks a proposed discount against control caps
type validateDiscountRequest struct {
	ProductID  string           `json:"product_id" binding:"required,uuid"`
	Percentage *decimal.Decimal `json:"percentage"`
	Amount     *decimal.Decimal `json:"amount"`
}

// ValidateDiscount checks a proposed discount against the resolved control
func (h *PricingHandler) ValidateDiscount(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req validateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	productID, err := parseUUID(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	if err := h.pricingService.ValidateDiscount(c.Request.Context(), op, productID, req.Percentage, req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"valid": true})
}

// MaxDiscount returns the largest reduction the control allows on a price
func (h *PricingHandler) MaxDiscount(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	productID, ok := queryProductID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	originalPrice, ok := parseDecimalQuery(c, "original_price")
	if !ok {
		h.BadRequest(c, "original_price must be a decimal number")
		return
	}

	max, err := h.pricingService.MaxAllowedDiscount(c.Request.Context(), op, productID, originalPrice)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"product_id": productID, "max_discount": max})
}
