package authkit_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-authkit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuther(provider authkit.IdentityProvider) *authkit.Auther {
	cfg := &authkit.SimpleConfig{
		SigningKey: "authenticator-test-key",
		Issuer:     "test-issuer",
	}
	return authkit.NewAuthenticator(provider, cfg)
}

func activeIdentity(role string) authkit.Identity {
	return authkit.NewIdentityFromUser(&authkit.User{
		ID:       uuid.New(),
		Email:    "user@example.com",
		Username: "user",
		Role:     authkit.UserRole(role),
		Status:   authkit.UserStatusActive,
	})
}

func TestAuther_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues an access token on success", func(t *testing.T) {
		identity := activeIdentity("customer")

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "user@example.com", "password123").
			Return(identity, nil)

		auther := newTestAuther(provider)

		token, err := auther.Login(ctx, "user@example.com", "password123")

		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := auther.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", claims.Subject())
		assert.Equal(t, identity.ID(), claims.UserID())
		assert.Equal(t, "customer", claims.Role())
		assert.Equal(t, authkit.TokenUseAccess, claims.Use())

		provider.AssertExpectations(t)
	})

	t.Run("propagates verification failure", func(t *testing.T) {
		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "user@example.com", "wrong").
			Return(nil, authkit.ErrMismatchedHashAndPassword)

		auther := newTestAuther(provider)

		token, err := auther.Login(ctx, "user@example.com", "wrong")

		assert.Empty(t, token)
		assert.ErrorIs(t, err, authkit.ErrMismatchedHashAndPassword)
	})

	t.Run("emits login activity events", func(t *testing.T) {
		identity := activeIdentity("admin")

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "user@example.com", "password123").
			Return(identity, nil)
		provider.On("VerifyIdentity", ctx, "user@example.com", "wrong").
			Return(nil, authkit.ErrMismatchedHashAndPassword)

		sink := &MockActivitySink{}
		sink.On("Record", mock.Anything, mock.Anything).Return(nil)

		auther := newTestAuther(provider).WithActivitySink(sink)

		_, err := auther.Login(ctx, "user@example.com", "password123")
		require.NoError(t, err)

		_, err = auther.Login(ctx, "user@example.com", "wrong")
		require.Error(t, err)

		require.Len(t, sink.Events, 2)
		assert.Equal(t, authkit.ActivityEventLoginSuccess, sink.Events[0].EventType)
		assert.Equal(t, "password", sink.Events[0].Metadata["method"])
		assert.Equal(t, authkit.ActivityEventLoginFailure, sink.Events[1].EventType)
	})
}

func TestAuther_LoginWithOTP(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*authkit.Auther, *authkit.OTPService, *MockIdentityProvider) {
		t.Helper()
		provider := &MockIdentityProvider{}
		otp := authkit.NewOTPService(&memoryOTPStore{}, authkit.WithOTPMaxAttempts(3))
		auther := newTestAuther(provider).WithOTPService(otp)
		return auther, otp, provider
	}

	t.Run("exchanges a valid code for a token", func(t *testing.T) {
		auther, otp, provider := setup(t)
		identity := activeIdentity("customer")

		record, err := otp.Issue(ctx, "user@example.com", authkit.OTPPurposeLogin)
		require.NoError(t, err)

		provider.On("FindIdentityByIdentifier", ctx, "user@example.com").
			Return(identity, nil)

		token, err := auther.LoginWithOTP(ctx, "user@example.com", record.Code)

		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := auther.TokenService().Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", claims.Subject())
	})

	t.Run("used code cannot log in twice", func(t *testing.T) {
		auther, otp, provider := setup(t)
		identity := activeIdentity("customer")

		record, err := otp.Issue(ctx, "user@example.com", authkit.OTPPurposeLogin)
		require.NoError(t, err)

		provider.On("FindIdentityByIdentifier", ctx, "user@example.com").
			Return(identity, nil)

		_, err = auther.LoginWithOTP(ctx, "user@example.com", record.Code)
		require.NoError(t, err)

		token, err := auther.LoginWithOTP(ctx, "user@example.com", record.Code)
		assert.Empty(t, token)
		assert.ErrorIs(t, err, authkit.ErrMismatchedHashAndPassword)
	})

	t.Run("lockout surfaces as too many attempts", func(t *testing.T) {
		auther, otp, _ := setup(t)

		record, err := otp.Issue(ctx, "user@example.com", authkit.OTPPurposeLogin)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := auther.LoginWithOTP(ctx, "user@example.com", "000000")
			assert.ErrorIs(t, err, authkit.ErrMismatchedHashAndPassword)
		}

		_, err = auther.LoginWithOTP(ctx, "user@example.com", record.Code)
		assert.ErrorIs(t, err, authkit.ErrTooManyLoginAttempts)
	})

	t.Run("rejects when no OTP service is configured", func(t *testing.T) {
		auther := newTestAuther(&MockIdentityProvider{})

		token, err := auther.LoginWithOTP(ctx, "user@example.com", "123456")

		assert.Empty(t, token)
		assert.ErrorIs(t, err, authkit.ErrMismatchedHashAndPassword)
	})
}

func TestAuther_IdentityFromToken(t *testing.T) {
	ctx := context.Background()

	t.Run("re-resolves the principal from the store", func(t *testing.T) {
		identity := activeIdentity("engineer")

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "user@example.com", "password123").
			Return(identity, nil)
		provider.On("FindIdentityByIdentifier", ctx, "user@example.com").
			Return(identity, nil)

		auther := newTestAuther(provider)

		token, err := auther.Login(ctx, "user@example.com", "password123")
		require.NoError(t, err)

		resolved, err := auther.IdentityFromToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, identity.ID(), resolved.ID())
	})

	t.Run("deactivated account fails even with a live token", func(t *testing.T) {
		identity := activeIdentity("customer")

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "user@example.com", "password123").
			Return(identity, nil)
		// between issuance and use the account was deactivated
		provider.On("FindIdentityByIdentifier", ctx, "user@example.com").
			Return(nil, authkit.ErrAccountInactive)

		auther := newTestAuther(provider)

		token, err := auther.Login(ctx, "user@example.com", "password123")
		require.NoError(t, err)

		resolved, err := auther.IdentityFromToken(ctx, token)
		assert.Nil(t, resolved)
		assert.ErrorIs(t, err, authkit.ErrAccountInactive)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		auther := newTestAuther(&MockIdentityProvider{})

		resolved, err := auther.IdentityFromToken(ctx, "garbage")

		assert.Nil(t, resolved)
		assert.True(t, authkit.IsMalformedError(err))
	})
}
