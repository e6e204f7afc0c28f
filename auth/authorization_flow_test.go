package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

const (
	exchangeToken  = "7588892-kagSNqWge8gB1WwE3plnFsJHAZVfxWD7Vb57p0b4"
	exchangeSecret = "PbKfYqSryyeKDWz4ebtY3o5ogNLG11WJuZBc9fQrQo"
)

type recordingTransport struct {
	mu       sync.Mutex
	requests []core.TransportRequest
	response core.TransportResponse
	err      error
}

func (*recordingTransport) Kind() string { return "recording" }

func (r *recordingTransport) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.response, r.err
}

func (r *recordingTransport) last(t *testing.T) core.TransportRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		t.Fatalf("expected a transport request")
	}
	return r.requests[len(r.requests)-1]
}

func newTestFlow(t *testing.T, transport core.TransportAdapter) *AuthorizationFlow {
	t.Helper()
	flow, err := NewAuthorizationFlow(AuthorizationFlowConfig{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		SDKVersion:     "3.3.0",
		Transport:      transport,
		Now:            func() time.Time { return time.UnixMilli(1422014401245).UTC() },
	})
	if err != nil {
		t.Fatalf("new flow: %v", err)
	}
	return flow
}

func successBody() []byte {
	return []byte("oauth_token=" + exchangeToken + "&oauth_token_secret=" + exchangeSecret + "&screen_name=test&user_id=1")
}

func TestAuthorizationFlow_URLs(t *testing.T) {
	flow := newTestFlow(t, &recordingTransport{})
	if got := flow.CallbackURL(); got != "twittersdk://callback?version=3.3.0&app=key" {
		t.Fatalf("unexpected callback url %q", got)
	}
	got := flow.AuthorizationURL(core.SignedPairCredential{Token: "token", Secret: "secret"})
	if got != "https://api.twitter.com/oauth/authorize?oauth_token=token" {
		t.Fatalf("unexpected authorize url %q", got)
	}
}

func TestAuthorizationFlow_RequestTempTokenSignsCallback(t *testing.T) {
	transport := &recordingTransport{response: core.TransportResponse{StatusCode: http.StatusOK, Body: successBody()}}
	flow := newTestFlow(t, transport)

	resp, err := flow.RequestTempToken(context.Background())
	if err != nil {
		t.Fatalf("request temp token: %v", err)
	}
	if resp.Token.Token != exchangeToken || resp.Token.Secret != exchangeSecret {
		t.Fatalf("unexpected token: %+v", resp.Token)
	}

	req := transport.last(t)
	if req.Method != http.MethodPost || req.URL != "https://api.twitter.com/oauth/request_token" {
		t.Fatalf("unexpected request %s %s", req.Method, req.URL)
	}
	fields := headerFields(t, req.Headers[HeaderAuthorization])
	if fields[paramCallback] != flow.CallbackURL() {
		t.Fatalf("expected callback in signed header, got %q", fields[paramCallback])
	}
	if _, ok := fields[paramToken]; ok {
		t.Fatalf("temporary token request must not carry a token")
	}
}

func TestAuthorizationFlow_RequestAccessTokenSignsWithTempToken(t *testing.T) {
	transport := &recordingTransport{response: core.TransportResponse{StatusCode: http.StatusOK, Body: successBody()}}
	flow := newTestFlow(t, transport)

	resp, err := flow.RequestAccessToken(context.Background(), core.SignedPairCredential{Token: "token", Secret: "secret"}, "verifier")
	if err != nil {
		t.Fatalf("request access token: %v", err)
	}
	if resp.UserName != "test" || resp.UserID != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Token.CreatedAt.IsZero() {
		t.Fatalf("expected access token to be stamped")
	}

	req := transport.last(t)
	parsed, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if parsed.Path != PathAccessToken || parsed.Query().Get("oauth_verifier") != "verifier" {
		t.Fatalf("unexpected access token url %q", req.URL)
	}
	if fields := headerFields(t, req.Headers[HeaderAuthorization]); fields[paramToken] != "token" {
		t.Fatalf("expected temp token in header, got %q", fields[paramToken])
	}

	session, err := NewSessionFromAuthResponse(resp)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if session.ID != 1 || session.UserName != "test" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestAuthorizationFlow_FailuresAreTyped(t *testing.T) {
	cases := []struct {
		name      string
		transport *recordingTransport
		category  goerrors.Category
		code      int
		reason    string
	}{
		{
			name:      "transport failure",
			transport: &recordingTransport{err: errors.New("connection refused")},
			category:  goerrors.CategoryExternal,
		},
		{
			name:      "unauthorized",
			transport: &recordingTransport{response: core.TransportResponse{StatusCode: http.StatusUnauthorized}},
			category:  goerrors.CategoryAuth,
			code:      http.StatusUnauthorized,
		},
		{
			name:      "server error",
			transport: &recordingTransport{response: core.TransportResponse{StatusCode: http.StatusServiceUnavailable}},
			category:  goerrors.CategoryExternal,
			code:      http.StatusServiceUnavailable,
		},
		{
			name:      "empty body",
			transport: &recordingTransport{response: core.TransportResponse{StatusCode: http.StatusOK}},
			category:  goerrors.CategoryOperation,
			reason:    reasonMalformedResponse,
		},
		{
			name:      "missing token",
			transport: &recordingTransport{response: core.TransportResponse{StatusCode: http.StatusOK, Body: []byte("oauth_token_secret=" + exchangeSecret + "&screen_name=test&user_id=1")}},
			category:  goerrors.CategoryOperation,
			reason:    reasonMalformedResponse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow := newTestFlow(t, tc.transport)
			_, err := flow.RequestTempToken(context.Background())
			if err == nil {
				t.Fatalf("expected failure")
			}
			if !core.IsAuthFlowFailure(err) {
				t.Fatalf("expected auth flow failure, got %v", err)
			}
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected rich error, got %T", err)
			}
			if rich.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, rich.Category)
			}
			if tc.code != 0 && rich.Code != tc.code {
				t.Fatalf("expected code %d, got %d", tc.code, rich.Code)
			}
			if tc.reason != "" && rich.Metadata["reason"] != tc.reason {
				t.Fatalf("expected reason %q, got %v", tc.reason, rich.Metadata["reason"])
			}
		})
	}
}

func TestAuthorizationFlow_AsyncDeliversOnce(t *testing.T) {
	transport := &recordingTransport{response: core.TransportResponse{StatusCode: http.StatusOK, Body: successBody()}}
	flow := newTestFlow(t, transport)

	results := flow.RequestAccessTokenAsync(context.Background(), core.SignedPairCredential{Token: "token", Secret: "secret"}, "verifier")
	select {
	case result, ok := <-results:
		if !ok {
			t.Fatalf("expected a result before close")
		}
		if result.Err != nil || result.Response.Token.Token != exchangeToken {
			t.Fatalf("unexpected result: %+v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for result")
	}
	if _, ok := <-results; ok {
		t.Fatalf("expected channel to close after one result")
	}

	failing := newTestFlow(t, &recordingTransport{err: errors.New("down")})
	result := <-failing.RequestTempTokenAsync(context.Background())
	if result.Err == nil || !strings.Contains(result.Err.Error(), "token request failed") {
		t.Fatalf("expected async failure, got %+v", result)
	}
}

func TestNewAuthorizationFlow_RequiresTransport(t *testing.T) {
	if _, err := NewAuthorizationFlow(AuthorizationFlowConfig{ConsumerKey: "key", ConsumerSecret: "secret"}); err == nil {
		t.Fatalf("expected missing transport to fail")
	}
	if _, err := NewAuthorizationFlow(AuthorizationFlowConfig{Transport: &recordingTransport{}}); err == nil {
		t.Fatalf("expected missing consumer credentials to fail")
	}
}
