package authkit

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// DefaultOTPLength is the number of digits in a generated code
	DefaultOTPLength = 6
	// DefaultOTPTTL is how long a code stays valid after issuance
	DefaultOTPTTL = 10 * time.Minute
	// DefaultOTPMaxAttempts locks a code after this many failed validations
	DefaultOTPMaxAttempts = 5
)

// GenerateOTP returns a uniformly random digit string of the given length.
// Lengths below one fall back to the default.
func GenerateOTP(length int) (string, error) {
	if length < 1 {
		length = DefaultOTPLength
	}

	var sb strings.Builder
	sb.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate OTP digit")
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}

// OTPResult is the typed outcome of a validation attempt. Storage failures
// surface as errors; everything about the code itself lands here.
type OTPResult string

const (
	OTPOk                  OTPResult = "ok"
	OTPNotFound            OTPResult = "not_found"
	OTPExpired             OTPResult = "expired"
	OTPAlreadyUsed         OTPResult = "already_used"
	OTPMaxAttemptsExceeded OTPResult = "max_attempts_exceeded"
	OTPCodeMismatch        OTPResult = "code_mismatch"
)

// Ok reports whether the validation succeeded.
func (r OTPResult) Ok() bool {
	return r == OTPOk
}

// OTPStore persists one-time codes. Lookups are keyed by (email, purpose);
// a code issued for registration never satisfies a login validation.
type OTPStore interface {
	Issue(ctx context.Context, record *OTPVerification) (*OTPVerification, error)
	LatestFor(ctx context.Context, email string, purpose OTPPurpose) (*OTPVerification, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
}

// OTPService issues and validates one-time codes.
type OTPService struct {
	store        OTPStore
	length       int
	ttl          time.Duration
	maxAttempts  int
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
}

// OTPOption customizes OTP service construction.
type OTPOption func(*OTPService)

// WithOTPLength overrides the generated code length.
func WithOTPLength(length int) OTPOption {
	return func(s *OTPService) {
		if length > 0 {
			s.length = length
		}
	}
}

// WithOTPTTL overrides how long codes stay valid.
func WithOTPTTL(ttl time.Duration) OTPOption {
	return func(s *OTPService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithOTPMaxAttempts overrides the failed-attempt lockout threshold.
func WithOTPMaxAttempts(max int) OTPOption {
	return func(s *OTPService) {
		if max > 0 {
			s.maxAttempts = max
		}
	}
}

// WithOTPClock injects a custom clock (useful for tests).
func WithOTPClock(clock func() time.Time) OTPOption {
	return func(s *OTPService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithOTPLogger overrides the logger.
func WithOTPLogger(logger Logger) OTPOption {
	return func(s *OTPService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOTPActivitySink sets the sink used to publish OTP lifecycle events.
func WithOTPActivitySink(sink ActivitySink) OTPOption {
	return func(s *OTPService) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// NewOTPService returns the default implementation backed by the given store.
func NewOTPService(store OTPStore, opts ...OTPOption) *OTPService {
	s := &OTPService{
		store:        store,
		length:       DefaultOTPLength,
		ttl:          DefaultOTPTTL,
		maxAttempts:  DefaultOTPMaxAttempts,
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Issue generates a fresh code for (email, purpose) and persists it. Any
// unused prior code for the same pair is dropped, so the last issued code
// is the only one that can validate.
func (s *OTPService) Issue(ctx context.Context, email string, purpose OTPPurpose) (*OTPVerification, error) {
	code, err := GenerateOTP(s.length)
	if err != nil {
		return nil, err
	}

	record := &OTPVerification{
		ID:        uuid.New(),
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.ttl),
	}

	saved, err := s.store.Issue(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist OTP")
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventOTPIssued,
		UserID:    email,
		Metadata: map[string]any{
			"purpose": string(purpose),
		},
	})

	return saved, nil
}

// Validate checks a submitted code against the most recent record for
// (email, purpose). Success is single-shot: the record is marked used and
// a second call with the same code reports AlreadyUsed. Every failure with
// a record present bumps the attempt counter; once the counter reaches the
// limit even the correct code is rejected, regardless of expiry.
func (s *OTPService) Validate(ctx context.Context, email, code string, purpose OTPPurpose) (OTPResult, error) {
	record, err := s.store.LatestFor(ctx, email, purpose)
	if err != nil {
		if isNotFound(err) {
			return OTPNotFound, nil
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to look up OTP")
	}
	if record == nil {
		return OTPNotFound, nil
	}

	result := s.classify(record, code)
	if result == OTPOk {
		if err := s.store.MarkUsed(ctx, record.ID); err != nil {
			return "", errors.Wrap(err, errors.CategoryInternal, "failed to mark OTP as used")
		}
	} else {
		if err := s.store.IncrementAttempts(ctx, record.ID); err != nil {
			s.logger.Error("failed to track OTP attempt: %v", err)
		}
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventOTPValidated,
		UserID:    email,
		Metadata: map[string]any{
			"purpose": string(purpose),
			"result":  string(result),
		},
	})

	return result, nil
}

// classify orders the checks so the strongest lock wins: attempt lockout,
// then single-use, then expiry, then the code comparison itself.
func (s *OTPService) classify(record *OTPVerification, code string) OTPResult {
	if record.Attempts >= s.maxAttempts {
		return OTPMaxAttemptsExceeded
	}
	if record.Used {
		return OTPAlreadyUsed
	}
	if s.now().After(record.ExpiresAt) {
		return OTPExpired
	}
	if record.Code != code {
		return OTPCodeMismatch
	}
	return OTPOk
}

func (s *OTPService) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	sink := normalizeActivitySink(s.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("otp activity sink error: %v", err)
	}
}
