package authkit

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts      = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeEmptyPassword        = "EMPTY_PASSWORD"
	TextCodePasswordLength       = "PASSWORD_LENGTH"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenMalformed       = "TOKEN_MALFORMED"
	TextCodeTokenSignature       = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenWrongType       = "TOKEN_WRONG_TYPE"
	TextCodeAccountPending       = "ACCOUNT_PENDING_APPROVAL"
	TextCodeAccountInactive      = "ACCOUNT_INACTIVE"
	TextCodeInsufficientRole     = "INSUFFICIENT_ROLE"
	TextCodeExactRoleRequired    = "EXACT_ROLE_REQUIRED"
	TextCodeAlreadyReviewed      = "APPLICATION_ALREADY_REVIEWED"
	TextCodeApplicationNotFound  = "APPLICATION_NOT_FOUND"
	TextCodeEmailTaken           = "EMAIL_ALREADY_REGISTERED"
	TextCodeSelfDeactivation     = "SELF_DEACTIVATION"
	TextCodeNotificationFailed   = "NOTIFICATION_FAILED"
	TextCodeInvalidReviewAction  = "INVALID_REVIEW_ACTION"
	TextCodeActionAdminNotFound  = "ACTION_ADMIN_NOT_FOUND"
)

// ErrIdentityNotFound is the error we return for identities we cannot resolve
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the generic credential failure. It is
// deliberately identical for unknown identifiers and wrong passwords so the
// response does not reveal which accounts exist.
var ErrMismatchedHashAndPassword = goerrors.New("the provided credentials are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned once the attempt counter passes the limit
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString rejects empty passwords before any hashing work
var ErrNoEmptyString = goerrors.New("password can not be an empty string", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordLength rejects passwords outside the accepted length range
var ErrPasswordLength = goerrors.New("password must be between 8 and 100 characters", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordLength).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a token's exp claim is in the past
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed at all
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenSignature is returned when the signature does not verify
var ErrTokenSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenWrongType is returned when a structurally valid token carries the
// wrong type claim, e.g. an action token presented where an access token is
// required.
var ErrTokenWrongType = goerrors.New("token type is not valid for this operation", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenWrongType).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountPending is returned when a pending account attempts to log in
var ErrAccountPending = goerrors.New("account is pending approval", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountPending).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountInactive is returned when a deactivated or suspended account is
// used. Authorization failure, not authentication: the caller proved who they
// are, they are just not allowed in.
var ErrAccountInactive = goerrors.New("account is not active", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeForbidden)

// ErrInsufficientRole is returned when the principal's role ranks below the
// required minimum.
var ErrInsufficientRole = goerrors.New("insufficient role for this operation", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(goerrors.CodeForbidden)

// ErrExactRoleRequired is returned by operations reserved for one exact role.
var ErrExactRoleRequired = goerrors.New("operation requires an exact role", goerrors.CategoryAuthz).
	WithTextCode(TextCodeExactRoleRequired).
	WithCode(goerrors.CodeForbidden)

// ErrAlreadyReviewed is returned when a transition targets an application
// that already left the pending state.
var ErrAlreadyReviewed = goerrors.New("application has already been reviewed", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyReviewed).
	WithCode(goerrors.CodeConflict)

// ErrApplicationNotFound is returned when an application id resolves to nothing
var ErrApplicationNotFound = goerrors.New("application not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeApplicationNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrEmailTaken is returned on registration against an existing email
var ErrEmailTaken = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrSelfDeactivation is returned when an admin tries to deactivate themselves
var ErrSelfDeactivation = goerrors.New("cannot deactivate your own account", goerrors.CategoryValidation).
	WithTextCode(TextCodeSelfDeactivation).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidReviewAction is returned for review actions other than approve/reject
var ErrInvalidReviewAction = goerrors.New("review action must be approve or reject", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidReviewAction).
	WithCode(goerrors.CodeBadRequest)

// ErrActionAdminNotFound is returned when the admin email embedded in an
// action token no longer resolves to a live admin account.
var ErrActionAdminNotFound = goerrors.New("reviewing admin account not found or not authorized", goerrors.CategoryAuthz).
	WithTextCode(TextCodeActionAdminNotFound).
	WithCode(goerrors.CodeForbidden)

// ErrUnableToDecodeSession unable to decode JWT claims from a token
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithTextCode("UNABLE_TO_DECODE_SESSION").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithTextCode("UNABLE_TO_MAP_CLAIMS").
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// isNotFound recognizes missing records across both conventions in play:
// the repository layer reports its own database_not-found category, which
// strict CategoryNotFound equality would miss.
func isNotFound(err error) bool {
	return goerrors.IsNotFound(err) || repository.IsRecordNotFound(err)
}
