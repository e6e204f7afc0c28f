package inbound

import (
	"net/url"
	"strings"
)

const (
	ParamOAuthToken    = "oauth_token"
	ParamOAuthVerifier = "oauth_verifier"
	ParamDenied        = "denied"
)

// CallbackRequest is the query of the redirect that follows the authorize
// page. Denied is set instead of Verifier when the user refused access.
type CallbackRequest struct {
	TempToken string
	Verifier  string
	Denied    string
}

func (r CallbackRequest) IsDenied() bool {
	return r.Denied != ""
}

// ParseCallback reads a callback from its query parameters.
func ParseCallback(query url.Values) (CallbackRequest, error) {
	req := CallbackRequest{
		TempToken: strings.TrimSpace(query.Get(ParamOAuthToken)),
		Verifier:  strings.TrimSpace(query.Get(ParamOAuthVerifier)),
		Denied:    strings.TrimSpace(query.Get(ParamDenied)),
	}
	if req.IsDenied() {
		if req.TempToken == "" {
			req.TempToken = req.Denied
		}
		return req, nil
	}
	if req.TempToken == "" {
		return CallbackRequest{}, badCallback("inbound: callback is missing oauth_token", nil)
	}
	if req.Verifier == "" {
		return CallbackRequest{}, badCallback("inbound: callback is missing oauth_verifier", map[string]any{
			"oauth_token": req.TempToken,
		})
	}
	return req, nil
}

// ParseCallbackURL reads a callback from a full redirect URL such as
// "twittersdk://callback?version=3.3.0&app=key&oauth_token=t&oauth_verifier=v".
func ParseCallbackURL(raw string) (CallbackRequest, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return CallbackRequest{}, badCallback("inbound: callback url is invalid", map[string]any{"error": err.Error()})
	}
	return ParseCallback(parsed.Query())
}
