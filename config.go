package authkit

import "time"

// SimpleConfig is a plain-struct Config implementation with sane defaults.
// Construct once at startup and inject wherever a Config is needed.
type SimpleConfig struct {
	SigningKey            string
	SigningMethod         string
	ContextKey            string
	TokenExpiration       int // minutes
	ActionTokenExpiration int // hours
	TokenLookup           string
	AuthScheme            string
	Issuer                string
	Audience              []string
	OTPLength             int
	OTPExpiration         time.Duration
	OTPMaxAttempts        int
	BaseURL               string
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

// GetTokenExpiration is the access token lifetime in minutes.
func (c *SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return int(DefaultAccessTokenTTL / time.Minute)
	}
	return c.TokenExpiration
}

// GetActionTokenExpiration is the action token lifetime in hours.
func (c *SimpleConfig) GetActionTokenExpiration() int {
	if c.ActionTokenExpiration <= 0 {
		return int(DefaultActionTokenTTL / time.Hour)
	}
	return c.ActionTokenExpiration
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}

func (c *SimpleConfig) GetOTPLength() int {
	if c.OTPLength <= 0 {
		return DefaultOTPLength
	}
	return c.OTPLength
}

func (c *SimpleConfig) GetOTPExpiration() time.Duration {
	if c.OTPExpiration <= 0 {
		return DefaultOTPTTL
	}
	return c.OTPExpiration
}

func (c *SimpleConfig) GetOTPMaxAttempts() int {
	if c.OTPMaxAttempts <= 0 {
		return DefaultOTPMaxAttempts
	}
	return c.OTPMaxAttempts
}

// GetBaseURL is the externally reachable base used to build email action links.
func (c *SimpleConfig) GetBaseURL() string {
	return c.BaseURL
}
