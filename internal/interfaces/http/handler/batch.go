package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/application/pos"
	"github.com/shopspring/decimal"
)

// BatchHandler handles inventory batch API endpoints
type BatchHandler struct {
	BaseHandler
	batchService *pos.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *pos.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// queryProductID parses the product_id query parameter
func queryProductID(c *gin.Context) (uuid.UUID, bool) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		return uuid.Nil, false
	}
	return productID, true
}

// GetAvailable returns the sellable batches for a product in selection order
func (h *BatchHandler) GetAvailable(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	productID, ok := queryProductID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	batches, err := h.batchService.GetAvailableBatches(c.Request.Context(), op, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// GetTotalStock returns the summed stock across active batches
func (h *BatchHandler) GetTotalStock(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	productID, ok := queryProductID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	total, err := h.batchService.TotalStock(c.Request.Context(), op, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"product_id": productID, "total_stock": total})
}

// GetSellingPrice returns the price of the batch the strategy would sell next
func (h *BatchHandler) GetSellingPrice(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	productID, ok := queryProductID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	price, err := h.batchService.SellingPrice(c.Request.Context(), op, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, price)
}

// Create records a goods receipt as a new inventory batch
func (h *BatchHandler) Create(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.batchService.CreateBatch(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, created)
}

// Deduct withdraws stock for a sale across batches in selection order
func (h *BatchHandler) Deduct(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	var req pos.DeductQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.batchService.DeductQuantity(c.Request.Context(), op, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// StockAging returns the stock aging report for the operator's branch
func (h *BatchHandler) StockAging(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	buckets, err := h.batchService.StockAgingReport(c.Request.Context(), op)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, buckets)
}

// ExpiringSoon returns batches expiring within the requested window
func (h *BatchHandler) ExpiringSoon(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}

	withinDays := 0
	if raw := c.Query("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.BadRequest(c, "within_days must be a non-negative integer")
			return
		}
		withinDays = parsed
	}

	expiring, err := h.batchService.ExpiringSoonReport(c.Request.Context(), op, withinDays)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expiring)
}

// ProfitAnalysis returns per-batch profit figures for a product over a period
func (h *BatchHandler) ProfitAnalysis(c *gin.Context) {
	op, ok := h.operator(c)
	if !ok {
		return
	}
	productID, ok := queryProductID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	var period pos.ReportPeriodRequest
	if err := c.ShouldBindQuery(&period); err != nil {
		h.BadRequest(c, "from and to are required RFC3339 timestamps")
		return
	}

	analysis, err := h.batchService.BatchProfitAnalysis(c.Request.Context(), op, productID, period.From, period.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, analysis)
}

// parseDecimalQuery parses a decimal query parameter
func parseDecimalQuery(c *gin.Context, name string) (decimal.Decimal, bool) {
	value, err := decimal.NewFromString(c.Query(name))
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
