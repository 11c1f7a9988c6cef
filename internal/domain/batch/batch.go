package batch

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle status of an inventory batch
type BatchStatus string

const (
	// BatchStatusActive means the batch can still supply stock
	BatchStatusActive BatchStatus = "active"
	// BatchStatusDepleted means the batch quantity reached zero.
	// Depleted batches are retired, never physically deleted.
	BatchStatusDepleted BatchStatus = "depleted"
)

// InventoryBatch represents one physical receipt of stock for a product at a
// branch. CurrentQuantity is monotonically non-increasing; the only mutation
// after goods receipt is withdrawal deduction.
type InventoryBatch struct {
	shared.BaseEntity
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_batches_product_branch"`
	BranchID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_batches_product_branch"`
	BatchNumber       string          `gorm:"type:varchar(64);not null;index"`
	PurchasePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OriginalQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentQuantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Supplier          string          `gorm:"type:varchar(255)"`
	ReceivedDate      time.Time       `gorm:"not null;index"`
	ExpiryDate        *time.Time      `gorm:"index"`
	ManufacturingDate *time.Time
	Status            BatchStatus     `gorm:"type:varchar(16);not null;default:'active';index"`
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryBatch) TableName() string {
	return "inventory_batches"
}

// NewInventoryBatch creates a batch for a goods receipt
func NewInventoryBatch(
	productID, branchID uuid.UUID,
	batchNumber string,
	purchasePrice, sellingPrice, quantity decimal.Decimal,
	supplier string,
	receivedDate time.Time,
	expiryDate, manufacturingDate *time.Time,
	lowStockThreshold decimal.Decimal,
	now time.Time,
) (*InventoryBatch, error) {
	if productID == uuid.Nil || branchID == uuid.Nil {
		return nil, shared.NewValidationError("batch requires product and branch identifiers")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("batch quantity must be positive, got %s", quantity.String())
	}
	if purchasePrice.IsNegative() || sellingPrice.IsNegative() {
		return nil, shared.NewValidationError("batch prices cannot be negative")
	}
	return &InventoryBatch{
		BaseEntity:        shared.NewBaseEntity(now),
		ProductID:         productID,
		BranchID:          branchID,
		BatchNumber:       batchNumber,
		PurchasePrice:     purchasePrice,
		SellingPrice:      sellingPrice,
		OriginalQuantity:  quantity,
		CurrentQuantity:   quantity,
		Supplier:          supplier,
		ReceivedDate:      receivedDate,
		ExpiryDate:        expiryDate,
		ManufacturingDate: manufacturingDate,
		Status:            BatchStatusActive,
		LowStockThreshold: lowStockThreshold,
	}, nil
}

// IsActive returns true if the batch can still supply stock
func (b *InventoryBatch) IsActive() bool {
	return b.Status == BatchStatusActive
}

// HasStock returns true if the batch has available quantity
func (b *InventoryBatch) HasStock() bool {
	return b.IsActive() && b.CurrentQuantity.GreaterThan(decimal.Zero)
}

// IsExpiredAt returns true if the batch has expired at the reference time
func (b *InventoryBatch) IsExpiredAt(ref time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return !b.ExpiryDate.After(ref)
}

// WillExpireWithin returns true if the batch expires within the given number
// of days after the reference time (and has not expired already)
func (b *InventoryBatch) WillExpireWithin(ref time.Time, days int) bool {
	if b.ExpiryDate == nil || b.IsExpiredAt(ref) {
		return false
	}
	return !b.ExpiryDate.After(ref.AddDate(0, 0, days))
}

// AgeDaysAt returns the whole days since the batch was received
func (b *InventoryBatch) AgeDaysAt(ref time.Time) int {
	return int(ref.Sub(b.ReceivedDate).Hours() / 24)
}

// UnitMargin returns selling price minus purchase price
func (b *InventoryBatch) UnitMargin() decimal.Decimal {
	return b.SellingPrice.Sub(b.PurchasePrice)
}

// IsBelowThreshold returns true if remaining stock is at or below the
// low-stock threshold (a zero threshold disables the check)
func (b *InventoryBatch) IsBelowThreshold() bool {
	if b.LowStockThreshold.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return b.CurrentQuantity.LessThanOrEqual(b.LowStockThreshold)
}

// Deduct subtracts quantity from the batch. It fails without mutating when
// the requested quantity exceeds the current quantity, and flips the status
// to depleted exactly when the quantity reaches zero.
//
// This in-memory mutation mirrors the atomic compare-and-decrement the
// persistence layer performs; callers going through a repository should use
// BatchRepository.DeductQuantity instead.
func (b *InventoryBatch) Deduct(quantity decimal.Decimal, now time.Time) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("deduction quantity must be positive, got %s", quantity.String())
	}
	if quantity.GreaterThan(b.CurrentQuantity) {
		return shared.NewInsufficientStockError(quantity, b.CurrentQuantity)
	}
	b.CurrentQuantity = b.CurrentQuantity.Sub(quantity)
	if b.CurrentQuantity.IsZero() {
		b.Status = BatchStatusDepleted
	}
	b.UpdatedAt = now
	return nil
}

// GenerateBatchNumber builds a batch number from product code, branch code
// and receipt date plus a random disambiguator. Uniqueness is a soft
// convention, not a guarantee; the database does not enforce it.
func GenerateBatchNumber(productCode, branchCode string, date time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%04X", productCode, branchCode, date.Format("20060102"), rand.Uint32()&0xFFFF)
}
