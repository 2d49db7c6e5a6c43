package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RequestOTPMessage struct {
	Email      string     `json:"email" example:"pepe.rone@example.com" doc:"Recipient email."`
	Purpose    OTPPurpose `json:"purpose" example:"login" doc:"What the code will be used for."`
	OnResponse func(resp *RequestOTPResponse)
}

func (e RequestOTPMessage) Type() string { return "auth.otp.request" }

type RequestOTPResponse struct {
	ExpiresAt time.Time
	Success   bool
}

type RequestOTPHandler struct {
	repo     RepositoryManager
	otp      *OTPService
	notifier *Notifier
}

func NewRequestOTPHandler(repo RepositoryManager, otp *OTPService, notifier *Notifier) *RequestOTPHandler {
	return &RequestOTPHandler{repo: repo, otp: otp, notifier: notifier}
}

func (h *RequestOTPHandler) Execute(ctx context.Context, event RequestOTPMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during OTP request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestOTPHandler) execute(ctx context.Context, event RequestOTPMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.checkPurpose(ctx, event); err != nil {
		return err
	}

	record, err := h.otp.Issue(ctx, event.Email, event.Purpose)
	if err != nil {
		return err
	}

	if h.notifier != nil {
		if err := h.notifier.SendOTP(ctx, event.Email, record.Code, event.Purpose, time.Until(record.ExpiresAt)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to deliver OTP email")
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(&RequestOTPResponse{
			ExpiresAt: record.ExpiresAt,
			Success:   true,
		})
	}

	return nil
}

// checkPurpose enforces who may ask for which code: login codes need an
// existing active admin or customer account, registration codes need the
// email to still be free.
func (h *RequestOTPHandler) checkPurpose(ctx context.Context, event RequestOTPMessage) error {
	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil && !isNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account for OTP request")
	}
	exists := err == nil

	switch event.Purpose {
	case OTPPurposeLogin:
		if !exists {
			return ErrIdentityNotFound
		}
		if err := ensureAuthenticatableUser(user); err != nil {
			return err
		}
		switch user.Role {
		case RoleAdmin, RoleCustomer:
			return nil
		default:
			return ErrInsufficientRole.WithMetadata(map[string]any{
				"role":   user.Role,
				"reason": "OTP login is limited to admin and customer accounts",
			})
		}
	case OTPPurposeRegistration:
		if exists {
			return ErrEmailTaken
		}
		return nil
	case OTPPurposePasswordReset, OTPPurposeEmailVerification:
		if !exists {
			return ErrIdentityNotFound
		}
		return nil
	default:
		return goerrors.New("unknown OTP purpose", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": string(event.Purpose)})
	}
}
