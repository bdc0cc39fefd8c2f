package auth

import (
	"testing"
	"time"

	"ticketcore/internal/shared/identity"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	actor := identity.New(uuid.New(), identity.RoleOrganizer)
	token, err := IssueAccessToken("secret", actor, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseAccessToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, parsed.UserID)
	assert.Equal(t, identity.RoleOrganizer, parsed.Role)

	_, err = ParseAccessToken("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	sign := func(claims Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return token
	}
	userID := uuid.NewString()
	expired := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}

	cases := map[string]string{
		"refresh token": sign(Claims{UserID: userID, Role: "USER", Type: TokenTypeRefresh}),
		"system role":   sign(Claims{UserID: userID, Role: "SYSTEM", Type: TokenTypeAccess}),
		"unknown role":  sign(Claims{UserID: userID, Role: "ROOT", Type: TokenTypeAccess}),
		"bad user id":   sign(Claims{UserID: "nope", Role: "USER", Type: TokenTypeAccess}),
		"expired":       sign(Claims{UserID: userID, Role: "USER", Type: TokenTypeAccess, RegisteredClaims: expired}),
		"garbage":       "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken("secret", token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueAccessToken_RefusesSystem(t *testing.T) {
	_, err := IssueAccessToken("secret", identity.System(), time.Hour)
	assert.Error(t, err)
}
