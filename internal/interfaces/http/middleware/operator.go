package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// ErrNoOperator is returned when a handler needs an operator but the request
// carries no validated claims
var ErrNoOperator = errors.New("no operator in request context")

// OperatorFromContext builds the operator context for the current request
// from validated JWT claims. The timestamp is taken once here so every
// decision made while serving the request sees the same clock.
func OperatorFromContext(c *gin.Context) (shared.OperatorContext, error) {
	claims := GetJWTClaims(c)
	if claims == nil {
		return shared.OperatorContext{}, ErrNoOperator
	}

	actorID, err := claims.GetUserUUID()
	if err != nil {
		return shared.OperatorContext{}, ErrNoOperator
	}
	branchID, err := claims.GetBranchUUID()
	if err != nil {
		return shared.OperatorContext{}, ErrNoOperator
	}

	return shared.OperatorContext{
		ActorID:   actorID,
		ActorName: claims.Username,
		BranchID:  branchID,
		Authority: claims.Authority(),
		Now:       time.Now(),
	}, nil
}

// RequireCapability rejects requests whose operator lacks the capability
func RequireCapability(capability shared.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		op, err := OperatorFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		if !op.Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Operator lacks the required capability"))
			return
		}

		c.Next()
	}
}
