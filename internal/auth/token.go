// Package auth issues and verifies the access tokens the API trusts.
// Accounts live in the upstream identity service; only the token format is shared.
package auth

import (
	"errors"
	"time"

	"ticketcore/internal/shared/identity"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	issuer = "ticketcore"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// IssueAccessToken signs an access token for actor. SYSTEM is never issued a token.
func IssueAccessToken(secret string, actor identity.Actor, ttl time.Duration) (string, error) {
	if !actor.Role.IsValid() || actor.Role == identity.RoleSystem {
		return "", errors.New("cannot issue a token for role " + string(actor.Role))
	}

	now := time.Now()
	claims := Claims{
		UserID: actor.UserID.String(),
		Role:   string(actor.Role),
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
			Subject:   actor.UserID.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAccessToken verifies tokenString and resolves the caller it was issued to
func ParseAccessToken(secret, tokenString string) (identity.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return identity.Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != TokenTypeAccess {
		return identity.Actor{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return identity.Actor{}, ErrInvalidToken
	}
	role := identity.Role(claims.Role)
	// SYSTEM is never granted through a user token
	if !role.IsValid() || role == identity.RoleSystem {
		return identity.Actor{}, ErrInvalidToken
	}
	return identity.New(userID, role), nil
}
