package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderGuestToken    = "x-guest-token"

	bearerPrefix = "bearer "
)

// BearerSigner authorizes requests with an app-only or guest credential.
type BearerSigner struct{}

func (BearerSigner) Sign(_ context.Context, req *http.Request, cred core.Credential) error {
	if req == nil {
		return core.NewError("transport: request is required", goerrors.CategoryBadInput, core.ErrorSigningFailure)
	}
	bearer, ok := cred.(core.BearerCredential)
	if !ok || strings.TrimSpace(bearer.AccessToken) == "" {
		return core.NewError(
			fmt.Sprintf("transport: bearer signer requires a bearer credential, got %T", cred),
			goerrors.CategoryBadInput,
			core.ErrorSigningFailure,
		)
	}
	applyBearerHeaders(req.Header, bearer)
	return nil
}

func applyBearerHeaders(headers http.Header, cred core.BearerCredential) {
	headers.Set(HeaderAuthorization, cred.AuthorizationHeader())
	if guest := strings.TrimSpace(cred.GuestToken); guest != "" {
		headers.Set(HeaderGuestToken, guest)
	} else {
		headers.Del(HeaderGuestToken)
	}
}

// bearerFromHeaders reads back the credential applied by applyBearerHeaders.
func bearerFromHeaders(headers http.Header) (core.BearerCredential, bool) {
	authorization := strings.TrimSpace(headers.Get(HeaderAuthorization))
	guest := strings.TrimSpace(headers.Get(HeaderGuestToken))
	if authorization == "" && guest == "" {
		return core.BearerCredential{}, false
	}
	accessToken := ""
	if len(authorization) >= len(bearerPrefix) && strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
		accessToken = strings.TrimSpace(authorization[len(bearerPrefix):])
	}
	return core.BearerCredential{
		TokenType:   core.TokenTypeBearer,
		AccessToken: accessToken,
		GuestToken:  guest,
	}, true
}

var _ core.Signer = BearerSigner{}
