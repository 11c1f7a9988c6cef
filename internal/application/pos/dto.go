package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/audit"
	"github.com/retailpos/backend/internal/domain/batch"
	"github.com/retailpos/backend/internal/domain/discount"
	"github.com/retailpos/backend/internal/domain/override"
	"github.com/shopspring/decimal"
)

// CreateBatchRequest represents a goods receipt
type CreateBatchRequest struct {
	ProductID         uuid.UUID       `json:"product_id" binding:"required"`
	ProductCode       string          `json:"product_code" binding:"required"`
	BranchCode        string          `json:"branch_code" binding:"required"`
	BatchNumber       string          `json:"batch_number"` // auto-generated if empty
	PurchasePrice     decimal.Decimal `json:"purchase_price" binding:"required"`
	SellingPrice      decimal.Decimal `json:"selling_price" binding:"required"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	Supplier          string          `json:"supplier"`
	ReceivedDate      time.Time       `json:"received_date" binding:"required"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	ManufacturingDate *time.Time      `json:"manufacturing_date"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
}

// BatchResponse represents an inventory batch in API responses
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	BranchID          uuid.UUID       `json:"branch_id"`
	BatchNumber       string          `json:"batch_number"`
	PurchasePrice     decimal.Decimal `json:"purchase_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	Supplier          string          `json:"supplier,omitempty"`
	ReceivedDate      time.Time       `json:"received_date"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	Status            string          `json:"status"`
	IsBelowThreshold  bool            `json:"is_below_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToBatchResponse converts a domain batch to its response form
func ToBatchResponse(b *batch.InventoryBatch) BatchResponse {
	return BatchResponse{
		ID:               b.ID,
		ProductID:        b.ProductID,
		BranchID:         b.BranchID,
		BatchNumber:      b.BatchNumber,
		PurchasePrice:    b.PurchasePrice,
		SellingPrice:     b.SellingPrice,
		OriginalQuantity: b.OriginalQuantity,
		CurrentQuantity:  b.CurrentQuantity,
		Supplier:         b.Supplier,
		ReceivedDate:     b.ReceivedDate,
		ExpiryDate:       b.ExpiryDate,
		Status:           string(b.Status),
		IsBelowThreshold: b.IsBelowThreshold(),
		CreatedAt:        b.CreatedAt,
	}
}

// DeductQuantityRequest represents a sale-time stock withdrawal
type DeductQuantityRequest struct {
	ProductID     uuid.UUID       `json:"product_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	TransactionID string          `json:"transaction_id" binding:"required"`
}

// DeductionLineResponse is one batch's share of a withdrawal
type DeductionLineResponse struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Depleted    bool            `json:"depleted"`
}

// DeductQuantityResponse summarizes an executed withdrawal
type DeductQuantityResponse struct {
	ProductID           uuid.UUID               `json:"product_id"`
	TotalQuantity       decimal.Decimal         `json:"total_quantity"`
	WeightedAverageCost decimal.Decimal         `json:"weighted_average_cost"`
	Deductions          []DeductionLineResponse `json:"deductions"`
}

// SellingPriceResponse is the price of the batch the strategy would sell
// next. BatchID is nil when the price fell back to the control's default.
type SellingPriceResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	BatchID     *uuid.UUID      `json:"batch_id,omitempty"`
	BatchNumber string          `json:"batch_number,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// SetPricingControlRequest creates or replaces a pricing control
type SetPricingControlRequest struct {
	ProductID               uuid.UUID        `json:"product_id" binding:"required"`
	Global                  bool             `json:"global"`
	DefaultSellingPrice     decimal.Decimal  `json:"default_selling_price" binding:"required"`
	MinSellingPrice         *decimal.Decimal `json:"min_selling_price"`
	MaxSellingPrice         *decimal.Decimal `json:"max_selling_price"`
	MaxDiscountPercent      *decimal.Decimal `json:"max_discount_percent"`
	MaxDiscountAmount       *decimal.Decimal `json:"max_discount_amount"`
	MinMarginPercent        *decimal.Decimal `json:"min_margin_percent"`
	AllowManualPrice        bool             `json:"allow_manual_price"`
	RequireApprovalBelowMin bool             `json:"require_approval_below_min"`
}

// ValidatePriceRequest checks a proposed selling price
type ValidatePriceRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
}

// CreateDiscountRequest defines a new discount
type CreateDiscountRequest struct {
	Name              string           `json:"name" binding:"required,min=1,max=255"`
	Scope             string           `json:"scope" binding:"required,oneof=item category bill"`
	Type              string           `json:"type" binding:"required,oneof=percentage fixed"`
	Value             decimal.Decimal  `json:"value" binding:"required"`
	ProductID         *uuid.UUID       `json:"product_id"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	Global            bool             `json:"global"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount"`
	MinQuantity       *decimal.Decimal `json:"min_quantity"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	Priority          int              `json:"priority"`
	CashierCanApply   bool             `json:"cashier_can_apply"`
	RequiresApproval  bool             `json:"requires_approval"`
	CanStack          bool             `json:"can_stack"`
}

// DiscountResponse represents a discount definition in API responses
type DiscountResponse struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Scope             string           `json:"scope"`
	Type              string           `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	ProductID         *uuid.UUID       `json:"product_id,omitempty"`
	CategoryID        *uuid.UUID       `json:"category_id,omitempty"`
	IsGlobal          bool             `json:"is_global"`
	StartDate         *time.Time       `json:"start_date,omitempty"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	Priority          int              `json:"priority"`
	CashierCanApply   bool             `json:"cashier_can_apply"`
	RequiresApproval  bool             `json:"requires_approval"`
	CanStack          bool             `json:"can_stack"`
	IsActive          bool             `json:"is_active"`
}

// ToDiscountResponse converts a domain discount to its response form
func ToDiscountResponse(d *discount.POSDiscount) DiscountResponse {
	return DiscountResponse{
		ID:                d.ID,
		Name:              d.Name,
		Scope:             string(d.Scope),
		Type:              string(d.Type),
		Value:             d.Value,
		ProductID:         d.ProductID,
		CategoryID:        d.CategoryID,
		IsGlobal:          d.IsGlobal,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		MaxDiscountAmount: d.MaxDiscountAmount,
		Priority:          d.Priority,
		CashierCanApply:   d.CashierCanApply,
		RequiresApproval:  d.RequiresApproval,
		CanStack:          d.CanStack,
		IsActive:          d.IsActive,
	}
}

// ApplyDiscountRequest applies a defined discount to a transaction line or bill
type ApplyDiscountRequest struct {
	TransactionID string          `json:"transaction_id" binding:"required"`
	DiscountID    uuid.UUID       `json:"discount_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	ApproverPIN   string          `json:"approver_pin"`
	ApproverID    *uuid.UUID      `json:"approver_id"`
}

// ApplyManualDiscountRequest applies an ad-hoc discount with no definition
type ApplyManualDiscountRequest struct {
	TransactionID string          `json:"transaction_id" binding:"required"`
	ProductID     *uuid.UUID      `json:"product_id"`
	Type          string          `json:"type" binding:"required,oneof=percentage fixed"`
	Value         decimal.Decimal `json:"value" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Reason        string          `json:"reason" binding:"required,min=1,max=500"`
	ApproverPIN   string          `json:"approver_pin"`
	ApproverID    *uuid.UUID      `json:"approver_id"`
}

// AppliedDiscountResponse is the outcome of applying a discount
type AppliedDiscountResponse struct {
	ID             uuid.UUID       `json:"id"`
	TransactionID  string          `json:"transaction_id"`
	DiscountID     *uuid.UUID      `json:"discount_id,omitempty"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	ApprovalStatus string          `json:"approval_status"`
}

// ToAppliedDiscountResponse converts an applied discount to its response form
func ToAppliedDiscountResponse(td *discount.TransactionDiscount) AppliedDiscountResponse {
	return AppliedDiscountResponse{
		ID:             td.ID,
		TransactionID:  td.TransactionID,
		DiscountID:     td.DiscountID,
		OriginalAmount: td.OriginalAmount,
		DiscountAmount: td.DiscountAmount,
		FinalAmount:    td.FinalAmount,
		ApprovalStatus: string(td.ApprovalStatus),
	}
}

// BestDiscountRequest asks for the best applicable reduction on a line
type BestDiscountRequest struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	CategoryID *uuid.UUID      `json:"category_id"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// BestDiscountResponse is the arbitration outcome
type BestDiscountResponse struct {
	Total   decimal.Decimal    `json:"total"`
	Stacked bool               `json:"stacked"`
	Applied []DiscountResponse `json:"applied"`
}

// CreateOverrideRequest opens a price override request
type CreateOverrideRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	BatchID        *uuid.UUID      `json:"batch_id"`
	TransactionID  string          `json:"transaction_id"`
	OriginalPrice  decimal.Decimal `json:"original_price" binding:"required"`
	RequestedPrice decimal.Decimal `json:"requested_price" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Reason         string          `json:"reason" binding:"required,min=1,max=500"`
}

// ResolveOverrideRequest approves or denies a pending request
type ResolveOverrideRequest struct {
	PIN    string `json:"pin" binding:"required"`
	Reason string `json:"reason"` // required for denial
}

// OverrideResponse represents an override request in API responses
type OverrideResponse struct {
	ID              uuid.UUID        `json:"id"`
	ProductID       uuid.UUID        `json:"product_id"`
	BranchID        uuid.UUID        `json:"branch_id"`
	TransactionID   string           `json:"transaction_id,omitempty"`
	OriginalPrice   decimal.Decimal  `json:"original_price"`
	RequestedPrice  decimal.Decimal  `json:"requested_price"`
	MinAllowedPrice *decimal.Decimal `json:"min_allowed_price,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	AmountImpact    decimal.Decimal  `json:"amount_impact"`
	Reason          string           `json:"reason"`
	Status          string           `json:"status"`
	RequestedBy     uuid.UUID        `json:"requested_by"`
	RequestedByName string           `json:"requested_by_name"`
	ResolvedByName  string           `json:"resolved_by_name,omitempty"`
	DenialReason    string           `json:"denial_reason,omitempty"`
	ExpiresAt       time.Time        `json:"expires_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ToOverrideResponse converts a request to its response form. The status is
// the effective status at ref, so an aged-out pending request reads expired.
func ToOverrideResponse(r *override.PriceOverrideRequest, ref time.Time) OverrideResponse {
	return OverrideResponse{
		ID:              r.ID,
		ProductID:       r.ProductID,
		BranchID:        r.BranchID,
		TransactionID:   r.TransactionID,
		OriginalPrice:   r.OriginalPrice,
		RequestedPrice:  r.RequestedPrice,
		MinAllowedPrice: r.MinAllowedPrice,
		Quantity:        r.Quantity,
		AmountImpact:    r.AmountImpact(),
		Reason:          r.Reason,
		Status:          string(r.EffectiveStatusAt(ref)),
		RequestedBy:     r.RequestedBy,
		RequestedByName: r.RequestedByName,
		ResolvedByName:  r.ResolvedByName,
		DenialReason:    r.DenialReason,
		ExpiresAt:       r.ExpiresAt,
		CreatedAt:       r.CreatedAt,
	}
}

// ReportPeriodRequest bounds a reporting query
type ReportPeriodRequest struct {
	From time.Time `form:"from" binding:"required"`
	To   time.Time `form:"to" binding:"required"`
}

// LogActionRequest appends one standalone ledger entry, for events with no
// accompanying mutation (a rejected price attempt, a voided sale)
type LogActionRequest struct {
	Action        string           `json:"action" binding:"required"`
	EntityType    string           `json:"entity_type" binding:"required"`
	EntityID      uuid.UUID        `json:"entity_id" binding:"required"`
	TransactionID string           `json:"transaction_id"`
	ApproverID    *uuid.UUID       `json:"approver_id"`
	OldValue      *decimal.Decimal `json:"old_value"`
	NewValue      *decimal.Decimal `json:"new_value"`
	Amount        decimal.Decimal  `json:"amount"`
	Detail        string           `json:"detail" binding:"max=500"`
	Reason        string           `json:"reason" binding:"max=500"`
	Metadata      map[string]any   `json:"metadata"`
}

// ToEntry converts the request to the ledger's input form
func (r LogActionRequest) ToEntry() audit.Entry {
	return audit.Entry{
		Action:        audit.ActionKind(r.Action),
		EntityType:    r.EntityType,
		EntityID:      r.EntityID,
		TransactionID: r.TransactionID,
		ApproverID:    r.ApproverID,
		OldValue:      r.OldValue,
		NewValue:      r.NewValue,
		Amount:        r.Amount,
		Detail:        r.Detail,
		Reason:        r.Reason,
		Metadata:      r.Metadata,
	}
}
