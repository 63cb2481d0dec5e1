package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sparebite/sparebite-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	AuthUserID uuid.UUID
	Role       enums.Role
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients and merchants.
type AccessTokenClaims struct {
	AuthUserID uuid.UUID  `json:"auth_user_id"`
	Role       enums.Role `json:"role"`
	jwt.RegisteredClaims
}
