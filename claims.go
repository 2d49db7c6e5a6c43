package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenUse discriminates what a signed token is good for. Verification
// rejects a token presented for the wrong use even when the signature and
// time window check out.
type TokenUse string

const (
	// TokenUseAccess marks bearer tokens for authenticated API calls
	TokenUseAccess TokenUse = "access"
	// TokenUseAction marks single-purpose tokens embedded in email links
	TokenUseAction TokenUse = "action"
)

// AuthClaims represents structured JWT claims with role checking helpers
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Use() TokenUse
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims for access tokens
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string         `json:"uid,omitempty"`
	UserRole string         `json:"role,omitempty"`
	TokenUse TokenUse       `json:"type,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the global role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Use returns the token's use claim
func (c *JWTClaims) Use() TokenUse {
	return c.TokenUse
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return UserRole(c.UserRole).IsAtLeast(UserRole(minRole))
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ActionClaims is the payload of an email action token. It binds one
// application, one reviewing admin, and one decision; the link in the email
// carries the whole thing.
type ActionClaims struct {
	jwt.RegisteredClaims
	ApplicationID string       `json:"application_id,omitempty"`
	AdminEmail    string       `json:"admin_email,omitempty"`
	Action        ReviewAction `json:"action,omitempty"`
	TokenUse      TokenUse     `json:"type,omitempty"`
}

// ApplicationUUID parses the application_id claim.
func (c *ActionClaims) ApplicationUUID() (uuid.UUID, error) {
	return uuid.Parse(c.ApplicationID)
}
