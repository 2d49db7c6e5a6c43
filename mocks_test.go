package authkit_test

import (
	"context"

	"github.com/goliatone/go-authkit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIdentity implements authkit.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements authkit.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockIdentityProvider implements authkit.IdentityProvider for testing
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (authkit.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authkit.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (authkit.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authkit.Identity), args.Error(1)
}

// MockUserTracker implements authkit.UserTracker for testing
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*authkit.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authkit.User), args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *authkit.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *authkit.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockReviewStore implements authkit.ApplicationReviewStore for testing
type MockReviewStore struct {
	mock.Mock
}

func (m *MockReviewStore) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status authkit.ApplicationStatus, review authkit.ReviewRecord) (*authkit.EngineerApplication, error) {
	args := m.Called(ctx, id, status, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authkit.EngineerApplication), args.Error(1)
}

// MockActivitySink implements authkit.ActivitySink and records events for
// later inspection.
type MockActivitySink struct {
	mock.Mock
	Events []authkit.ActivityEvent
}

func (m *MockActivitySink) Record(ctx context.Context, event authkit.ActivityEvent) error {
	m.Events = append(m.Events, event)
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMailer implements authkit.Mailer for testing
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// memoryOTPStore is an in-memory authkit.OTPStore for exercising the OTP
// lifecycle without a database.
type memoryOTPStore struct {
	records []*authkit.OTPVerification
}

func (s *memoryOTPStore) Issue(ctx context.Context, record *authkit.OTPVerification) (*authkit.OTPVerification, error) {
	kept := s.records[:0]
	for _, r := range s.records {
		if r.Email == record.Email && r.Purpose == record.Purpose && !r.Used {
			continue
		}
		kept = append(kept, r)
	}
	s.records = append(kept, record)
	return record, nil
}

func (s *memoryOTPStore) LatestFor(ctx context.Context, email string, purpose authkit.OTPPurpose) (*authkit.OTPVerification, error) {
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if r.Email == email && r.Purpose == purpose {
			return r, nil
		}
	}
	return nil, nil
}

func (s *memoryOTPStore) MarkUsed(ctx context.Context, id uuid.UUID) error {
	for _, r := range s.records {
		if r.ID == id {
			r.Used = true
		}
	}
	return nil
}

func (s *memoryOTPStore) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	for _, r := range s.records {
		if r.ID == id {
			r.Attempts++
		}
	}
	return nil
}
