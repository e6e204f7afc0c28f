package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type SessionCodec interface {
	Encode(session Session) ([]byte, error)
	Decode(payload []byte) (Session, error)
}

// JSONSessionCodec writes sessions with a tagged auth token so that user,
// app-only and guest credentials share one payload shape.
type JSONSessionCodec struct{}

type jsonSessionPayload struct {
	UserName  string           `json:"user_name,omitempty"`
	AuthToken jsonAuthTokenRef `json:"auth_token"`
	ID        int64            `json:"id"`
}

type jsonAuthTokenRef struct {
	AuthType  string          `json:"auth_type"`
	AuthToken json.RawMessage `json:"auth_token"`
}

type jsonSignedPairToken struct {
	Token     string `json:"token"`
	Secret    string `json:"secret"`
	CreatedAt int64  `json:"created_at"`
}

type jsonBearerToken struct {
	GuestToken  string `json:"guest_token,omitempty"`
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	CreatedAt   int64  `json:"created_at"`
}

func (JSONSessionCodec) Encode(session Session) ([]byte, error) {
	if session.Credential == nil {
		return nil, fmt.Errorf("core: session credential is required for encoding")
	}

	var (
		body any
		kind = session.Credential.AuthType()
	)
	switch cred := session.Credential.(type) {
	case SignedPairCredential:
		body = jsonSignedPairToken{
			Token:     strings.TrimSpace(cred.Token),
			Secret:    strings.TrimSpace(cred.Secret),
			CreatedAt: unixMilli(cred.CreatedAt),
		}
	case BearerCredential:
		body = jsonBearerToken{
			GuestToken:  strings.TrimSpace(cred.GuestToken),
			TokenType:   strings.TrimSpace(cred.TokenType),
			AccessToken: strings.TrimSpace(cred.AccessToken),
			CreatedAt:   unixMilli(cred.IssuedAt),
		}
	default:
		return nil, fmt.Errorf("core: unsupported credential type %q", kind)
	}

	rawToken, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("core: encode session auth token: %w", err)
	}
	encoded, err := json.Marshal(jsonSessionPayload{
		UserName:  strings.TrimSpace(session.UserName),
		AuthToken: jsonAuthTokenRef{AuthType: kind, AuthToken: rawToken},
		ID:        session.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("core: encode session payload: %w", err)
	}
	return encoded, nil
}

func (JSONSessionCodec) Decode(payload []byte) (Session, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return Session{}, fmt.Errorf("core: session payload is empty")
	}
	decoded := jsonSessionPayload{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Session{}, fmt.Errorf("core: decode session payload: %w", err)
	}
	if len(decoded.AuthToken.AuthToken) == 0 {
		return Session{}, fmt.Errorf("core: session auth token is required")
	}

	session := Session{
		ID:       decoded.ID,
		UserName: strings.TrimSpace(decoded.UserName),
	}
	switch strings.TrimSpace(decoded.AuthToken.AuthType) {
	case AuthTypeOAuth1a:
		token := jsonSignedPairToken{}
		if err := json.Unmarshal(decoded.AuthToken.AuthToken, &token); err != nil {
			return Session{}, fmt.Errorf("core: decode oauth1a token: %w", err)
		}
		session.Credential = SignedPairCredential{
			Token:     strings.TrimSpace(token.Token),
			Secret:    strings.TrimSpace(token.Secret),
			CreatedAt: fromUnixMilli(token.CreatedAt),
		}
	case AuthTypeOAuth2, AuthTypeGuest:
		token := jsonBearerToken{}
		if err := json.Unmarshal(decoded.AuthToken.AuthToken, &token); err != nil {
			return Session{}, fmt.Errorf("core: decode bearer token: %w", err)
		}
		session.Credential = BearerCredential{
			TokenType:   strings.TrimSpace(token.TokenType),
			AccessToken: strings.TrimSpace(token.AccessToken),
			GuestToken:  strings.TrimSpace(token.GuestToken),
			IssuedAt:    fromUnixMilli(token.CreatedAt),
		}
	default:
		return Session{}, fmt.Errorf("core: invalid auth_type %q", decoded.AuthToken.AuthType)
	}
	return session, nil
}

func unixMilli(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UnixMilli()
}

func fromUnixMilli(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ SessionCodec = JSONSessionCodec{}
