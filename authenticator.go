package authkit

import (
	"context"
	"reflect"
	"time"
)

// Auther implements Authenticator on top of an identity provider, a token
// service, and an optional OTP service for passwordless login.
type Auther struct {
	provider     IdentityProvider
	otp          *OTPService
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetIssuer(),
		opts.GetAudience(),
		WithAccessTokenTTL(time.Duration(opts.GetTokenExpiration())*time.Minute),
		WithActionTokenTTL(time.Duration(opts.GetActionTokenExpiration())*time.Hour),
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the token service built from config.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithOTPService enables OTP login.
func (s *Auther) WithOTPService(otp *OTPService) *Auther {
	s.otp = otp
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the identifier/password pair and returns a signed access
// token on success.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, identifier, password); err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      ErrIdentityNotFound.Error(),
		})
		return "", ErrIdentityNotFound
	}

	token, err := s.tokenService.IssueAccessToken(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
		"method":     "password",
	})

	return token, nil
}

// LoginWithOTP validates a login code for the email and returns a signed
// access token. The OTP result taxonomy collapses to invalid-credentials at
// this boundary; the validate endpoint reports the detailed reason.
func (s *Auther) LoginWithOTP(ctx context.Context, email, code string) (string, error) {
	if s.otp == nil {
		return "", ErrMismatchedHashAndPassword
	}

	result, err := s.otp.Validate(ctx, email, code, OTPPurposeLogin)
	if err != nil {
		return "", err
	}

	if !result.Ok() {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": email,
			"method":     "otp",
			"reason":     string(result),
		})
		if result == OTPMaxAttemptsExceeded {
			return "", ErrTooManyLoginAttempts
		}
		return "", ErrMismatchedHashAndPassword
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, email)
	if err != nil {
		s.logger.Error("LoginWithOTP identity lookup error: %v", err)
		return "", err
	}

	token, err := s.tokenService.IssueAccessToken(identity)
	if err != nil {
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": email,
		"method":     "otp",
	})

	return token, nil
}

// IdentityFromToken validates an access token and re-resolves the principal
// against the store, so revoked or deactivated accounts fail even while
// their token is still within its window.
func (s *Auther) IdentityFromToken(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("IdentityFromToken validation failed: %v", err)
		return nil, err
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.Subject())
	if err != nil {
		s.logger.Error("IdentityFromToken identity lookup failed: %v", err)
		return nil, err
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}
