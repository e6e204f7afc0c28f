package core

import (
	"strings"
	"time"
)

const (
	AuthTypeOAuth1a = "oauth1a"
	AuthTypeOAuth2  = "oauth2"
	AuthTypeGuest   = "guest"
)

// BearerCredentialTTL bounds the lifetime of app-only credentials.
const BearerCredentialTTL = 3 * time.Hour

const TokenTypeBearer = "bearer"

type Credential interface {
	AuthType() string
	IsExpired(now time.Time) bool
}

// SignedPairCredential is a user token and token secret used for OAuth1a
// signing. It never expires on the client.
type SignedPairCredential struct {
	Token     string
	Secret    string
	CreatedAt time.Time
}

func (SignedPairCredential) AuthType() string {
	return AuthTypeOAuth1a
}

func (SignedPairCredential) IsExpired(time.Time) bool {
	return false
}

// BearerCredential is an app-only access token, optionally paired with a
// guest token.
type BearerCredential struct {
	TokenType   string
	AccessToken string
	GuestToken  string
	IssuedAt    time.Time
}

func (c BearerCredential) AuthType() string {
	if strings.TrimSpace(c.GuestToken) != "" {
		return AuthTypeGuest
	}
	return AuthTypeOAuth2
}

// IsExpired reports true for a zero issuance time and once the credential
// has lived for BearerCredentialTTL.
func (c BearerCredential) IsExpired(now time.Time) bool {
	if c.IssuedAt.IsZero() || c.IssuedAt.UnixMilli() == 0 {
		return true
	}
	return !now.Before(c.IssuedAt.Add(BearerCredentialTTL))
}

func (c BearerCredential) AuthorizationHeader() string {
	return "Bearer " + strings.TrimSpace(c.AccessToken)
}

// Equal compares token material only.
func (c BearerCredential) Equal(other BearerCredential) bool {
	return strings.TrimSpace(c.AccessToken) == strings.TrimSpace(other.AccessToken) &&
		strings.TrimSpace(c.GuestToken) == strings.TrimSpace(other.GuestToken)
}

func (c BearerCredential) IsZero() bool {
	return strings.TrimSpace(c.AccessToken) == "" && strings.TrimSpace(c.GuestToken) == ""
}

var (
	_ Credential = SignedPairCredential{}
	_ Credential = BearerCredential{}
)
