package override

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// ApproverCredential binds a bcrypt-hashed approval PIN to a user. The PIN
// is a second factor presented at the till when a supervisor resolves a
// request on someone else's terminal.
type ApproverCredential struct {
	shared.BaseEntity
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	PINHash string    `gorm:"type:varchar(255);not null"`
	Active  bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ApproverCredential) TableName() string {
	return "approver_credentials"
}

// NewApproverCredential creates an active credential with the given PIN
func NewApproverCredential(userID uuid.UUID, pin string, now time.Time) (*ApproverCredential, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("credential requires a user id")
	}
	c := &ApproverCredential{
		BaseEntity: shared.NewBaseEntity(now),
		UserID:     userID,
		Active:     true,
	}
	if err := c.SetPIN(pin, now); err != nil {
		return nil, err
	}
	return c, nil
}

// SetPIN replaces the stored hash. PINs are 4 to 8 digits.
func (c *ApproverCredential) SetPIN(pin string, now time.Time) error {
	if len(pin) < 4 || len(pin) > 8 {
		return shared.NewValidationError("PIN must be 4 to 8 digits")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return shared.NewValidationError("PIN must contain only digits")
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PINHash = string(hash)
	c.UpdatedAt = now
	return nil
}

// VerifyPIN checks a presented PIN against the stored hash. An inactive
// credential never verifies.
func (c *ApproverCredential) VerifyPIN(pin string) bool {
	if !c.Active || c.PINHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PINHash), []byte(pin)) == nil
}
