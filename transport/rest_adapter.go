package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

const KindREST = "rest"

const (
	defaultRESTClientTimeout           = 30 * time.Second
	defaultRESTResponseBodyLimit int64 = 1 << 20
)

// RESTAdapter executes TransportRequests over an HTTPDoer. It carries the
// token exchange calls of the authorization flow and the guest activation.
// Non-2xx responses are returned, not failed; when the body holds an API
// error envelope its first entry is copied into the response metadata.
type RESTAdapter struct {
	Client               core.HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client core.HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	return &RESTAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func (a *RESTAdapter) WithUserAgent(userAgent string) *RESTAdapter {
	if a == nil {
		return nil
	}
	if userAgent = strings.TrimSpace(userAgent); userAgent != "" {
		a.DefaultHeaders[HeaderUserAgent] = userAgent
	}
	return a
}

func (*RESTAdapter) Kind() string {
	return KindREST
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, transportError(
			"transport: rest adapter requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindREST},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := a.newHTTPRequest(ctx, req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	target := map[string]any{"adapter": KindREST, "method": httpReq.Method, "path": httpReq.URL.Path}

	startedAt := time.Now()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(err, goerrors.CategoryExternal, "transport: execute http request", http.StatusBadGateway, target)
	}
	defer httpRes.Body.Close()

	limit := req.MaxResponseBodyBytes
	if limit <= 0 {
		limit = a.MaxResponseBodyBytes
	}
	if limit <= 0 {
		limit = defaultRESTResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.TransportResponse{}, transportWrapError(err, goerrors.CategoryExternal, "transport: read response body", http.StatusBadGateway, target)
	}
	if int64(len(body)) > limit {
		target["status_code"] = httpRes.StatusCode
		target["response_limit_b"] = limit
		return core.TransportResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			target,
		)
	}

	rateLimit := ParseRateLimit(httpRes.Header)
	metadata := map[string]any{
		"duration_ms":          time.Since(startedAt).Milliseconds(),
		"kind":                 KindREST,
		"rate_limit_remaining": rateLimit.Remaining,
	}
	if httpRes.StatusCode >= http.StatusBadRequest {
		if apiErr, ok := ParseAPIError(body); ok {
			metadata["api_error_code"] = apiErr.Code
			metadata["api_error_message"] = apiErr.Message
		}
	}

	headers := make(map[string]string, len(httpRes.Header))
	for key, values := range httpRes.Header {
		headers[key] = strings.Join(values, ",")
	}
	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    headers,
		Body:       body,
		Metadata:   metadata,
	}, nil
}

// newHTTPRequest resolves the URL, merges req.Query into it and applies the
// default headers before the per-request ones. Blank keys are skipped.
func (a *RESTAdapter) newHTTPRequest(ctx context.Context, req core.TransportRequest) (*http.Request, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, transportError("transport: request url is required", goerrors.CategoryBadInput, http.StatusBadRequest, map[string]any{"adapter": KindREST})
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: invalid request url", http.StatusBadRequest, map[string]any{"adapter": KindREST, "url": rawURL})
	}
	if len(req.Query) > 0 {
		query := target.Query()
		for key, value := range req.Query {
			if key = strings.TrimSpace(key); key != "" {
				query.Set(key, strings.TrimSpace(value))
			}
		}
		target.RawQuery = query.Encode()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryBadInput, "transport: create http request", http.StatusBadRequest, map[string]any{"adapter": KindREST, "method": method})
	}
	for _, headers := range []map[string]string{a.DefaultHeaders, req.Headers} {
		for key, value := range headers {
			if key = strings.TrimSpace(key); key != "" {
				httpReq.Header.Set(key, strings.TrimSpace(value))
			}
		}
	}
	return httpReq, nil
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
