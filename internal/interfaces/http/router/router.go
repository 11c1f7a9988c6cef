package router

import (
	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the API handlers the router wires up
type Handlers struct {
	Batch    *handler.BatchHandler
	Pricing  *handler.PricingHandler
	Discount *handler.DiscountHandler
	Override *handler.OverrideHandler
	Audit    *handler.AuditHandler
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	handlers   Handlers
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, handlers Handlers, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		handlers:   handlers,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Setup registers all POS routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	// Inventory batches
	batches := api.Group("/batches")
	batches.POST("", r.handlers.Batch.Create)
	batches.POST("/deduct", r.handlers.Batch.Deduct)
	batches.GET("/available", r.handlers.Batch.GetAvailable)
	batches.GET("/stock", r.handlers.Batch.GetTotalStock)
	batches.GET("/selling-price", r.handlers.Batch.GetSellingPrice)
	batches.GET("/reports/aging", r.handlers.Batch.StockAging)
	batches.GET("/reports/expiring", r.handlers.Batch.ExpiringSoon)
	batches.GET("/reports/profit", r.handlers.Batch.ProfitAnalysis)

	// Pricing controls and validation
	pricing := api.Group("/pricing")
	pricing.PUT("/controls",
		middleware.RequireCapability(shared.CapabilityManagePricing),
		r.handlers.Pricing.SetControl)
	pricing.POST("/validate-price", r.handlers.Pricing.ValidatePrice)
	pricing.POST("/validate-discount", r.handlers.Pricing.ValidateDiscount)
	pricing.GET("/max-discount", r.handlers.Pricing.MaxDiscount)

	// Discounts
	discounts := api.Group("/discounts")
	discounts.POST("", r.handlers.Discount.Create)
	discounts.DELETE("/:id", r.handlers.Discount.Deactivate)
	discounts.GET("/applicable", r.handlers.Discount.ApplicableForProduct)
	discounts.GET("/applicable-bill", r.handlers.Discount.ApplicableForBill)
	discounts.POST("/best", r.handlers.Discount.Best)
	discounts.POST("/apply", r.handlers.Discount.Apply)
	discounts.POST("/apply-manual", r.handlers.Discount.ApplyManual)

	// Price overrides
	overrides := api.Group("/overrides")
	overrides.POST("", r.handlers.Override.Create)
	overrides.PUT("/pin", r.handlers.Override.SetPIN)
	overrides.GET("/pending",
		middleware.RequireCapability(shared.CapabilityApproveOverride),
		r.handlers.Override.Pending)
	overrides.POST("/:id/approve",
		middleware.RequireCapability(shared.CapabilityApproveOverride),
		r.handlers.Override.Approve)
	overrides.POST("/:id/deny",
		middleware.RequireCapability(shared.CapabilityApproveOverride),
		r.handlers.Override.Deny)

	// Audit trail and reports
	audit := api.Group("/audit")
	audit.POST("/log", r.handlers.Audit.LogAction)
	audit.GET("/entities/:type/:id", r.handlers.Audit.EntityHistory)
	audit.GET("/reports/discount-impact", r.handlers.Audit.DiscountImpact)
	audit.GET("/reports/overrides", r.handlers.Audit.OverrideReport)
}
