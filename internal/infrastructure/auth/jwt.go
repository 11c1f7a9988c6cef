package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingBranchID  = errors.New("missing branch_id in claims")
)

// Capability names as carried in JWT claims
const (
	CapabilityNameApplyDiscount        = "pos:discount:apply"
	CapabilityNameApproveDiscount      = "pos:discount:approve"
	CapabilityNameApproveOverride      = "pos:override:approve"
	CapabilityNameManagePricing        = "pos:pricing:manage"
	CapabilityNameCreateGlobalDiscount = "pos:discount:create_global"
)

var capabilityByName = map[string]shared.Capability{
	CapabilityNameApplyDiscount:        shared.CapabilityApplyDiscount,
	CapabilityNameApproveDiscount:      shared.CapabilityApproveDiscount,
	CapabilityNameApproveOverride:      shared.CapabilityApproveOverride,
	CapabilityNameManagePricing:        shared.CapabilityManagePricing,
	CapabilityNameCreateGlobalDiscount: shared.CapabilityCreateGlobalDiscount,
}

var nameByCapability = map[shared.Capability]string{
	shared.CapabilityApplyDiscount:        CapabilityNameApplyDiscount,
	shared.CapabilityApproveDiscount:      CapabilityNameApproveDiscount,
	shared.CapabilityApproveOverride:      CapabilityNameApproveOverride,
	shared.CapabilityManagePricing:        CapabilityNameManagePricing,
	shared.CapabilityCreateGlobalDiscount: CapabilityNameCreateGlobalDiscount,
}

// allCapabilities enumerates every capability the claim codec understands
var allCapabilities = []shared.Capability{
	shared.CapabilityApplyDiscount,
	shared.CapabilityApproveDiscount,
	shared.CapabilityApproveOverride,
	shared.CapabilityManagePricing,
	shared.CapabilityCreateGlobalDiscount,
}

// Claims represents custom JWT claims for a POS operator
type Claims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"user_id"`
	Username     string   `json:"username"`
	BranchID     string   `json:"branch_id"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	UserID    uuid.UUID
	Username  string
	BranchID  uuid.UUID
	Authority shared.Authority
}

// GenerateToken issues an access token for an operator
func (s *JWTService) GenerateToken(input GenerateTokenInput) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:       input.UserID.String(),
		Username:     input.Username,
		BranchID:     input.BranchID.String(),
		Capabilities: CapabilityNames(input.Authority),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates an access token and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if claims.BranchID == "" {
		return nil, ErrMissingBranchID
	}

	return claims, nil
}

// GetUserUUID extracts and parses the user ID from claims
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// GetBranchUUID extracts and parses the branch ID from claims
func (c *Claims) GetBranchUUID() (uuid.UUID, error) {
	return uuid.Parse(c.BranchID)
}

// Authority decodes the capability claim into an authority set. Unknown
// capability names are ignored so old tokens survive capability renames.
func (c *Claims) Authority() shared.Authority {
	var authority shared.Authority
	for _, name := range c.Capabilities {
		if capability, ok := capabilityByName[name]; ok {
			authority = authority.With(capability)
		}
	}
	return authority
}

// CapabilityNames encodes an authority set as claim strings
func CapabilityNames(authority shared.Authority) []string {
	names := make([]string, 0, len(allCapabilities))
	for _, capability := range allCapabilities {
		if authority.Can(capability) {
			names = append(names, nameByCapability[capability])
		}
	}
	return names
}
