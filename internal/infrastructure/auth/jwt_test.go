package auth

import (
	"testing"
	"time"

	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "identity",
	})
}

func newTestInput() TokenInput {
	return TokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "approver",
		Permissions: []string{"inventory_count:read", "inventory_count:approve"},
	}
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, expiresAt, err := svc.GenerateAccessToken(input, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, input.TenantID.String(), claims.TenantID)
	assert.Equal(t, "approver", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	tenantID, err := claims.GetTenantUUID()
	require.NoError(t, err)
	assert.Equal(t, input.TenantID, tenantID)
	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
}

func TestValidateAccessToken_Failures(t *testing.T) {
	svc := newTestJWTService()

	expired, _, err := svc.GenerateAccessToken(newTestInput(), -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "identity"})
	foreign, _, err := other.GenerateAccessToken(newTestInput(), time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
	token, _, err := wrongIssuer.GenerateAccessToken(newTestInput(), time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func sign(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)
	return token
}

func TestValidateAccessToken_ClaimChecks(t *testing.T) {
	svc := newTestJWTService()
	base := func() *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "identity",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			TenantID:  uuid.NewString(),
			UserID:    uuid.NewString(),
			TokenType: TokenTypeAccess,
		}
	}

	refresh := base()
	refresh.TokenType = "refresh"
	_, err := svc.ValidateAccessToken(sign(t, refresh))
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	noTenant := base()
	noTenant.TenantID = ""
	_, err = svc.ValidateAccessToken(sign(t, noTenant))
	assert.ErrorIs(t, err, ErrMissingTenantID)

	noUser := base()
	noUser.UserID = ""
	_, err = svc.ValidateAccessToken(sign(t, noUser))
	assert.ErrorIs(t, err, ErrMissingUserID)

	future := base()
	future.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))
	_, err = svc.ValidateAccessToken(sign(t, future))
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestValidateAccessToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{TenantID: uuid.NewString(), UserID: uuid.NewString(), TokenType: TokenTypeAccess}
	claims.Issuer = "identity"
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_Permissions(t *testing.T) {
	claims := &Claims{Permissions: []string{"inventory_count:read", "inventory_count:approve"}}
	assert.True(t, claims.HasPermission("inventory_count:approve"))
	assert.False(t, claims.HasPermission("inventory_count:delete"))
	assert.True(t, claims.HasAnyPermission("x", "inventory_count:read"))
	assert.False(t, claims.HasAnyPermission("x", "y"))
}
