package auth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
	"github.com/google/uuid"
)

const (
	HeaderAuthorization  = "Authorization"
	SignatureMethodHMAC  = "HMAC-SHA1"
	OAuthVersion         = "1.0"
	formURLEncodedMedium = "application/x-www-form-urlencoded"
)

const (
	paramCallback        = "oauth_callback"
	paramConsumerKey     = "oauth_consumer_key"
	paramNonce           = "oauth_nonce"
	paramSignature       = "oauth_signature"
	paramSignatureMethod = "oauth_signature_method"
	paramTimestamp       = "oauth_timestamp"
	paramToken           = "oauth_token"
	paramVersion         = "oauth_version"
)

type OAuth1SignerConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Now            func() time.Time
	Nonce          func() string
}

// OAuth1Signer produces OAuth 1.0a HMAC-SHA1 Authorization headers.
type OAuth1Signer struct {
	ConsumerKey    string
	ConsumerSecret string
	Now            func() time.Time
	Nonce          func() string
}

// SignatureRequest describes one request to sign. FormParams carries the
// decoded fields of a form-encoded body and is empty for every other body.
type SignatureRequest struct {
	Method     string
	URL        string
	FormParams url.Values
	Token      *core.SignedPairCredential
	Callback   string
}

func NewOAuth1Signer(cfg OAuth1SignerConfig) (*OAuth1Signer, error) {
	consumerKey := strings.TrimSpace(cfg.ConsumerKey)
	consumerSecret := strings.TrimSpace(cfg.ConsumerSecret)
	if consumerKey == "" || consumerSecret == "" {
		return nil, core.NewError(
			"auth: consumer key and consumer secret are required",
			goerrors.CategoryBadInput,
			core.ErrorSigningFailure,
		)
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	nonce := cfg.Nonce
	if nonce == nil {
		nonce = DefaultNonce
	}
	return &OAuth1Signer{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		Now:            now,
		Nonce:          nonce,
	}, nil
}

// DefaultNonce returns 32 random hex characters.
func DefaultNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *OAuth1Signer) AuthorizationHeader(req SignatureRequest) (string, error) {
	if s == nil || s.ConsumerKey == "" || s.ConsumerSecret == "" {
		return "", core.NewError("auth: signer is not configured", goerrors.CategoryInternal, core.ErrorSigningFailure)
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || target.Scheme == "" || target.Host == "" {
		return "", core.WrapError(err, goerrors.CategoryBadInput, "auth: signable url must be absolute", core.ErrorSigningFailure).
			WithMetadata(map[string]any{"url": req.URL})
	}

	oauthParams := s.oauthParams(req)
	signable := url.Values{}
	for key, value := range oauthParams {
		signable.Set(key, value)
	}
	for key, values := range target.Query() {
		signable[key] = append(signable[key], values...)
	}
	for key, values := range req.FormParams {
		signable[key] = append(signable[key], values...)
	}

	base := method + "&" + PercentEncode(baseURL(target)) + "&" + PercentEncode(normalizeParams(signable))
	tokenSecret := ""
	if req.Token != nil {
		tokenSecret = req.Token.Secret
	}
	oauthParams[paramSignature] = s.signature(base, tokenSecret)

	return buildAuthorizationHeader(oauthParams), nil
}

// Sign sets the Authorization header on req. A nil credential signs as the
// application alone.
func (s *OAuth1Signer) Sign(_ context.Context, req *http.Request, cred core.Credential) error {
	if req == nil || req.URL == nil {
		return core.NewError("auth: request is required", goerrors.CategoryBadInput, core.ErrorSigningFailure)
	}

	var token *core.SignedPairCredential
	switch typed := cred.(type) {
	case nil:
	case core.SignedPairCredential:
		token = &typed
	case *core.SignedPairCredential:
		token = typed
	default:
		return core.NewError(
			fmt.Sprintf("auth: cannot sign with %s credential", cred.AuthType()),
			goerrors.CategoryBadInput,
			core.ErrorSigningFailure,
		)
	}

	form, err := formParams(req)
	if err != nil {
		return err
	}
	header, err := s.AuthorizationHeader(SignatureRequest{
		Method:     req.Method,
		URL:        req.URL.String(),
		FormParams: form,
		Token:      token,
	})
	if err != nil {
		return err
	}
	req.Header.Set(HeaderAuthorization, header)
	return nil
}

func (s *OAuth1Signer) oauthParams(req SignatureRequest) map[string]string {
	params := map[string]string{
		paramConsumerKey:     s.ConsumerKey,
		paramNonce:           s.Nonce(),
		paramSignatureMethod: SignatureMethodHMAC,
		paramTimestamp:       strconv.FormatInt(s.Now().Unix(), 10),
		paramVersion:         OAuthVersion,
	}
	if req.Token != nil && strings.TrimSpace(req.Token.Token) != "" {
		params[paramToken] = req.Token.Token
	}
	if callback := strings.TrimSpace(req.Callback); callback != "" {
		params[paramCallback] = callback
	}
	return params
}

func (s *OAuth1Signer) signature(base string, tokenSecret string) string {
	key := PercentEncode(s.ConsumerSecret) + "&" + PercentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	_, _ = mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func buildAuthorizationHeader(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, PercentEncode(key)+`="`+PercentEncode(params[key])+`"`)
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// baseURL drops the query, fragment and default port.
func baseURL(target *url.URL) string {
	scheme := strings.ToLower(target.Scheme)
	host := strings.ToLower(target.Host)
	if (scheme == "http" && strings.HasSuffix(host, ":80")) || (scheme == "https" && strings.HasSuffix(host, ":443")) {
		host = host[:strings.LastIndex(host, ":")]
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// formParams reads the fields of a form-encoded POST and restores the body so
// the request can still be sent.
func formParams(req *http.Request) (url.Values, error) {
	if req.Body == nil || req.Body == http.NoBody || !strings.EqualFold(req.Method, http.MethodPost) {
		return nil, nil
	}
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != formURLEncodedMedium {
		return nil, nil
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryBadInput, "auth: read form body for signing", core.ErrorSigningFailure)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryBadInput, "auth: malformed form body", core.ErrorSigningFailure)
	}
	return values, nil
}

var _ core.Signer = (*OAuth1Signer)(nil)
