package transport

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

// SigningRoundTripper signs each outbound request for one credential.
type SigningRoundTripper struct {
	Base       http.RoundTripper
	Signer     core.Signer
	Credential core.Credential
	UserAgent  string
}

func (t *SigningRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t == nil || t.Signer == nil {
		return nil, transportError("transport: signing round tripper requires a signer", goerrors.CategoryInternal, http.StatusInternalServerError, nil)
	}
	signed := req.Clone(req.Context())
	if t.UserAgent != "" && signed.Header.Get(HeaderUserAgent) == "" {
		signed.Header.Set(HeaderUserAgent, t.UserAgent)
	}
	if err := t.Signer.Sign(req.Context(), signed, t.Credential); err != nil {
		closeRequestBody(req)
		return nil, err
	}
	return baseTransport(t.Base).RoundTrip(signed)
}

func baseTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		return http.DefaultTransport
	}
	return base
}

func closeRequestBody(req *http.Request) {
	if req != nil && req.Body != nil {
		_ = req.Body.Close()
	}
}
