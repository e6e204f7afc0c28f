package auth

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-twitterkit/core"
)

const (
	fieldOAuthToken       = "oauth_token"
	fieldOAuthTokenSecret = "oauth_token_secret"
	fieldScreenName       = "screen_name"
	fieldUserID           = "user_id"
)

// AuthResponse is the outcome of a token exchange. UserID is 0 and UserName
// empty for the temporary token step.
type AuthResponse struct {
	Token    core.SignedPairCredential
	UserName string
	UserID   int64
}

// ParseAuthResponse reads a url-encoded token exchange body. It reports false
// when the body carries no token or no token secret.
func ParseAuthResponse(body string) (AuthResponse, bool) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return AuthResponse{}, false
	}
	token := strings.TrimSpace(values.Get(fieldOAuthToken))
	secret := strings.TrimSpace(values.Get(fieldOAuthTokenSecret))
	if token == "" || secret == "" {
		return AuthResponse{}, false
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(values.Get(fieldUserID)), 10, 64)
	if err != nil {
		userID = 0
	}
	return AuthResponse{
		Token:    core.SignedPairCredential{Token: token, Secret: secret},
		UserName: strings.TrimSpace(values.Get(fieldScreenName)),
		UserID:   userID,
	}, true
}

func NewSessionFromAuthResponse(resp AuthResponse) (core.Session, error) {
	return core.NewUserSession(resp.Token, resp.UserID, resp.UserName)
}
