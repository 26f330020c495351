package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/devicehub-backend/pkg/enums"
)

type OperatorTokenPayload struct {
	OperatorID uuid.UUID
	Name       string
	Role       enums.OperatorRole
	JTI        string
}

// OperatorClaims is the JWT body accepted by the operator console routes.
type OperatorClaims struct {
	OperatorID uuid.UUID          `json:"operator_id"`
	Name       string             `json:"name,omitempty"`
	Role       enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing.
func (c OperatorClaims) Validate() error {
	if c.OperatorID == uuid.Nil {
		return fmt.Errorf("operator id is required")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("invalid operator role %q", c.Role)
	}
	if c.Subject != c.OperatorID.String() {
		return fmt.Errorf("subject does not match operator id")
	}
	return nil
}
