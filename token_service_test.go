package authkit_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-authkit"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAccessToken(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := authkit.NewTokenService(signingKey, issuer, audience)

	t.Run("generates valid JWT token", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return("user-123")
		identity.On("Email").Return("admin@example.com")
		identity.On("Role").Return("admin")

		tokenString, err := service.IssueAccessToken(identity)

		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		// Parse the token to verify structure
		token, err := jwt.ParseWithClaims(tokenString, &authkit.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		assert.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*authkit.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, "admin@example.com", claims.Subject())
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "admin", claims.Role())
		assert.Equal(t, issuer, claims.Issuer)
		assert.Equal(t, audience, claims.Audience)
		assert.Equal(t, authkit.TokenUseAccess, claims.Use())
		assert.NotEmpty(t, claims.ID)
		assert.False(t, claims.IssuedAt().IsZero())
		assert.NotNil(t, claims.ExpiresAt)

		identity.AssertExpectations(t)
	})

	t.Run("sets correct expiration time", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		clocked := authkit.NewTokenService(signingKey, issuer, audience,
			authkit.WithAccessTokenTTL(30*time.Minute),
			authkit.WithTokenClock(func() time.Time { return now }),
		)

		identity := &MockIdentity{}
		identity.On("ID").Return("user-123")
		identity.On("Email").Return("user@example.com")
		identity.On("Role").Return("customer")

		tokenString, err := clocked.IssueAccessToken(identity)
		require.NoError(t, err)

		token, err := jwt.ParseWithClaims(tokenString, &authkit.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		}, jwt.WithTimeFunc(func() time.Time { return now }))
		require.NoError(t, err)

		claims := token.Claims.(*authkit.JWTClaims)
		assert.Equal(t, now.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
		assert.Equal(t, now.Unix(), claims.IssuedAt().Unix())

		identity.AssertExpectations(t)
	})

	t.Run("rejects nil identity", func(t *testing.T) {
		tokenString, err := service.IssueAccessToken(nil)

		assert.Error(t, err)
		assert.Empty(t, tokenString)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := authkit.NewTokenService(signingKey, issuer, audience)

	makeIdentity := func(role string) *MockIdentity {
		identity := &MockIdentity{}
		identity.On("ID").Return("user-123")
		identity.On("Email").Return("user@example.com")
		identity.On("Role").Return(role)
		return identity
	}

	t.Run("round trips issued token", func(t *testing.T) {
		tokenString, err := service.IssueAccessToken(makeIdentity("admin"))
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, "user@example.com", claims.Subject())
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "admin", claims.Role())
		assert.True(t, claims.HasRole("admin"))
		assert.True(t, claims.IsAtLeast("customer"))
		assert.False(t, claims.IsAtLeast("super_admin"))
	})

	t.Run("returns error for expired token", func(t *testing.T) {
		issuedAt := time.Now().Add(-2 * time.Hour)
		frozen := authkit.NewTokenService(signingKey, issuer, audience,
			authkit.WithAccessTokenTTL(30*time.Minute),
			authkit.WithTokenClock(func() time.Time { return issuedAt }),
		)

		tokenString, err := frozen.IssueAccessToken(makeIdentity("customer"))
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, authkit.ErrTokenExpired)
	})

	t.Run("returns error for malformed token", func(t *testing.T) {
		claims, err := service.Validate("not.a.valid.jwt.token")

		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.True(t, authkit.IsMalformedError(err))
	})

	t.Run("returns error for token with wrong signing key", func(t *testing.T) {
		other := authkit.NewTokenService([]byte("wrong-signing-key"), issuer, audience)

		tokenString, err := other.IssueAccessToken(makeIdentity("customer"))
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, authkit.ErrTokenSignature)
	})

	t.Run("ignores unknown extra claims", func(t *testing.T) {
		now := time.Now()
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss":  issuer,
			"sub":  "user@example.com",
			"aud":  "test-audience",
			"iat":  now.Unix(),
			"exp":  now.Add(10 * time.Minute).Unix(),
			"jti":  uuid.NewString(),
			"uid":  "user-123",
			"role": "customer",
			"type": "access",
			// claims a newer issuer could start adding
			"tenant":          "acme",
			"feature_flags":   []string{"beta_dashboard"},
			"schema_revision": 7,
		})
		tokenString, err := raw.SignedString(signingKey)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", claims.Subject())
		assert.Equal(t, "customer", claims.Role())
	})

	t.Run("rejects action token on access validation", func(t *testing.T) {
		tokenString, err := service.IssueActionToken(uuid.New(), "admin@example.com", authkit.ReviewActionApprove)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Error(t, err)
		assert.Nil(t, claims)
		assertTextCode(t, err, authkit.TextCodeTokenWrongType)
	})
}

func assertTextCode(t *testing.T, err error, textCode string) {
	t.Helper()
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected a structured error, got %v", err)
	assert.Equal(t, textCode, richErr.TextCode)
}

func TestTokenService_ActionTokens(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := authkit.NewTokenService(signingKey, issuer, audience)

	t.Run("round trips action token", func(t *testing.T) {
		applicationID := uuid.New()

		tokenString, err := service.IssueActionToken(applicationID, "admin@example.com", authkit.ReviewActionReject)
		require.NoError(t, err)
		require.NotEmpty(t, tokenString)

		claims, err := service.ValidateActionToken(tokenString)

		assert.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, applicationID.String(), claims.ApplicationID)
		assert.Equal(t, "admin@example.com", claims.AdminEmail)
		assert.Equal(t, authkit.ReviewActionReject, claims.Action)

		parsed, err := claims.ApplicationUUID()
		assert.NoError(t, err)
		assert.Equal(t, applicationID, parsed)
	})

	t.Run("rejects access token on action validation", func(t *testing.T) {
		identity := &MockIdentity{}
		identity.On("ID").Return("user-123")
		identity.On("Email").Return("user@example.com")
		identity.On("Role").Return("admin")

		tokenString, err := service.IssueAccessToken(identity)
		require.NoError(t, err)

		claims, err := service.ValidateActionToken(tokenString)

		assert.Error(t, err)
		assert.Nil(t, claims)
		assertTextCode(t, err, authkit.TextCodeTokenWrongType)
	})

	t.Run("rejects unknown review action at issuance", func(t *testing.T) {
		tokenString, err := service.IssueActionToken(uuid.New(), "admin@example.com", authkit.ReviewAction("escalate"))

		assert.Error(t, err)
		assert.Empty(t, tokenString)
		assert.ErrorIs(t, err, authkit.ErrInvalidReviewAction)
	})

	t.Run("rejects missing admin email", func(t *testing.T) {
		tokenString, err := service.IssueActionToken(uuid.New(), "", authkit.ReviewActionApprove)

		assert.Error(t, err)
		assert.Empty(t, tokenString)
	})

	t.Run("action token honors its own longer TTL", func(t *testing.T) {
		now := time.Now()
		issuedWeekAgo := authkit.NewTokenService(signingKey, issuer, audience,
			authkit.WithAccessTokenTTL(30*time.Minute),
			authkit.WithTokenClock(func() time.Time { return now.Add(-6 * 24 * time.Hour) }),
		)

		tokenString, err := issuedWeekAgo.IssueActionToken(uuid.New(), "admin@example.com", authkit.ReviewActionApprove)
		require.NoError(t, err)

		// six days later the action token is still inside its seven day window
		claims, err := service.ValidateActionToken(tokenString)
		assert.NoError(t, err)
		assert.NotNil(t, claims)
	})

	t.Run("stale action token is rejected as expired", func(t *testing.T) {
		now := time.Now()
		stale := authkit.NewTokenService(signingKey, issuer, audience,
			authkit.WithTokenClock(func() time.Time { return now.Add(-8 * 24 * time.Hour) }),
		)

		tokenString, err := stale.IssueActionToken(uuid.New(), "admin@example.com", authkit.ReviewActionApprove)
		require.NoError(t, err)

		claims, err := service.ValidateActionToken(tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, authkit.ErrTokenExpired)
	})
}
