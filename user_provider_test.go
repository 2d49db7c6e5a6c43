package authkit_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-authkit"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheapHash keeps fixtures fast; ComparePasswordAndHash does not care about
// the cost the hash was generated with.
func cheapHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func storedUser(t *testing.T, password string) *authkit.User {
	t.Helper()
	return &authkit.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Username:     "user",
		PasswordHash: cheapHash(t, password),
		Role:         authkit.RoleCustomer,
		Status:       authkit.UserStatusActive,
	}
}

func TestUserProvider_VerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the identity for valid credentials", func(t *testing.T) {
		user := storedUser(t, "password123")

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "user@example.com").Return(user, nil)
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "user@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, "user@example.com", identity.Email())
		assert.Equal(t, "customer", identity.Role())

		store.AssertExpectations(t)
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		user := storedUser(t, "password123")

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "user@example.com").Return(user, nil)
		store.On("TrackAttemptedLogin", ctx, user).Return(nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "user@example.com", "nope-nope")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, authkit.ErrMismatchedHashAndPassword)
		store.AssertExpectations(t)
	})

	t.Run("unknown identifier yields the same generic error", func(t *testing.T) {
		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "ghost@example.com").
			Return(nil, repository.NewRecordNotFound())

		provider := authkit.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "ghost@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, authkit.ErrMismatchedHashAndPassword)
	})

	t.Run("too many recent attempts blocks even the right password", func(t *testing.T) {
		user := storedUser(t, "password123")
		now := time.Now()
		user.LoginAttempts = authkit.MaxLoginAttempts
		user.LoginAttemptAt = &now

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "user@example.com").Return(user, nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "user@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, authkit.ErrTooManyLoginAttempts)
		store.AssertNotCalled(t, "TrackSuccessfulLogin", mock.Anything, mock.Anything)
	})

	t.Run("attempt counter resets after the cooldown window", func(t *testing.T) {
		user := storedUser(t, "password123")
		longAgo := time.Now().Add(-25 * time.Hour)
		user.LoginAttempts = authkit.MaxLoginAttempts
		user.LoginAttemptAt = &longAgo

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "user@example.com").Return(user, nil)
		store.On("TrackSuccessfulLogin", ctx, user).Return(nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "user@example.com", "password123")

		require.NoError(t, err)
		assert.NotNil(t, identity)
	})

	t.Run("pending account cannot authenticate", func(t *testing.T) {
		user := storedUser(t, "password123")
		user.Status = authkit.UserStatusPending

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "user@example.com").Return(user, nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "user@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, authkit.ErrAccountPending)
	})

	t.Run("deactivated account cannot authenticate", func(t *testing.T) {
		user := storedUser(t, "password123")
		user.Status = authkit.UserStatusInactive

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "user@example.com").Return(user, nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "user@example.com", "password123")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, authkit.ErrAccountInactive)
	})
}

func TestUserProvider_FindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves without a password check", func(t *testing.T) {
		user := storedUser(t, "password123")

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
	})

	t.Run("unknown identifier reports identity not found", func(t *testing.T) {
		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "ghost").
			Return(nil, repository.NewRecordNotFound())

		provider := authkit.NewUserProvider(store)

		identity, err := provider.FindIdentityByIdentifier(ctx, "ghost")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, authkit.ErrIdentityNotFound)
	})

	t.Run("suspended account is rejected", func(t *testing.T) {
		user := storedUser(t, "password123")
		user.Status = authkit.UserStatusSuspended

		store := &MockUserTracker{}
		store.On("GetByIdentifier", ctx, "user@example.com").Return(user, nil)

		provider := authkit.NewUserProvider(store)

		identity, err := provider.FindIdentityByIdentifier(ctx, "user@example.com")

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, authkit.ErrAccountInactive)
	})
}
