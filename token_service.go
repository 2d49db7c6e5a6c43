package authkit

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL bounds how long a bearer token stays usable.
const DefaultAccessTokenTTL = 30 * time.Minute

// DefaultActionTokenTTL matches the review window we give admins before an
// email link goes stale.
const DefaultActionTokenTTL = 7 * 24 * time.Hour

// TokenService issues and validates the two token families the backend
// uses: access tokens for API calls and action tokens for one-click email
// decisions. Both are HS256 over the same signing key; the type claim keeps
// them apart.
type TokenService interface {
	IssueAccessToken(identity Identity) (string, error)
	IssueActionToken(applicationID uuid.UUID, adminEmail string, action ReviewAction) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	ValidateActionToken(tokenString string) (*ActionClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	actionTTL  time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// TokenServiceOption customizes token service construction.
type TokenServiceOption func(*TokenServiceImpl)

// WithAccessTokenTTL overrides the access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if ttl > 0 {
			ts.accessTTL = ttl
		}
	}
}

// WithActionTokenTTL overrides the action token lifetime.
func WithActionTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if ttl > 0 {
			ts.actionTTL = ttl
		}
	}
}

// WithTokenLogger overrides the logger.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenClock injects a custom clock (useful for tests).
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, audience jwt.ClaimStrings, opts ...TokenServiceOption) TokenService {
	ts := &TokenServiceImpl{
		signingKey: signingKey,
		accessTTL:  DefaultAccessTokenTTL,
		actionTTL:  DefaultActionTokenTTL,
		issuer:     issuer,
		audience:   audience,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// IssueAccessToken creates a signed bearer token for the given identity.
// The subject is the identity's email; uid and role travel alongside.
func (ts *TokenServiceImpl) IssueAccessToken(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity is required", errors.CategoryBadInput)
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.Email(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
		UID:      identity.ID(),
		UserRole: identity.Role(),
		TokenUse: TokenUseAccess,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// IssueActionToken creates a signed token carrying one review decision for
// one application, addressed to one admin. Verifying it does not consume it;
// a replayed link is stopped by the application's conflict check, not here.
func (ts *TokenServiceImpl) IssueActionToken(applicationID uuid.UUID, adminEmail string, action ReviewAction) (string, error) {
	if applicationID == uuid.Nil {
		return "", errors.New("application id is required", errors.CategoryBadInput)
	}
	if adminEmail == "" {
		return "", errors.New("admin email is required", errors.CategoryBadInput)
	}
	if _, ok := action.TargetStatus(); !ok {
		return "", ErrInvalidReviewAction
	}

	now := ts.now()
	claims := &ActionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   adminEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.actionTTL)),
		},
		ApplicationID: applicationID.String(),
		AdminEmail:    adminEmail,
		Action:        action,
		TokenUse:      TokenUseAction,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims jwt.Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates an access token, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	claims := &JWTClaims{}
	if err := ts.parseInto(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenUse != TokenUseAccess {
		return nil, ErrTokenWrongType.WithMetadata(map[string]any{
			"expected": string(TokenUseAccess),
			"got":      string(claims.TokenUse),
		})
	}

	return claims, nil
}

// ValidateActionToken parses and validates an email action token.
func (ts *TokenServiceImpl) ValidateActionToken(tokenString string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	if err := ts.parseInto(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.TokenUse != TokenUseAction {
		return nil, ErrTokenWrongType.WithMetadata(map[string]any{
			"expected": string(TokenUseAction),
			"got":      string(claims.TokenUse),
		})
	}

	if _, ok := claims.Action.TargetStatus(); !ok {
		return nil, ErrTokenMalformed.WithMetadata(map[string]any{
			"reason": "unknown review action",
		})
	}

	if _, err := claims.ApplicationUUID(); err != nil {
		return nil, ErrTokenMalformed.WithMetadata(map[string]any{
			"reason": "invalid application id",
		})
	}

	return claims, nil
}

func (ts *TokenServiceImpl) parseInto(tokenString string, claims jwt.Claims) error {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return ErrTokenSignature
		default:
			return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
		}
	}

	if !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return ErrUnableToDecodeSession
	}

	return nil
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil {
		return
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
