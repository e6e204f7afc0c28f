package transport

import (
	"net/http"

	retry "github.com/appleboy/go-httpretry"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

// RetryingDoer retries transient transport failures with backoff. Auth
// failures are returned as-is so that the guest round tripper can handle
// them. Requests signed with a single-use OAuth1 nonce must not be sent
// through it.
type RetryingDoer struct {
	client *retry.Client
}

func NewRetryingDoer(httpClient *http.Client) (*RetryingDoer, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	client, err := retry.NewBackgroundClient(
		retry.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, transportWrapError(err, goerrors.CategoryInternal, "transport: create retry client", http.StatusInternalServerError, nil)
	}
	return &RetryingDoer{client: client}, nil
}

func (d *RetryingDoer) Do(req *http.Request) (*http.Response, error) {
	if d == nil || d.client == nil {
		return nil, transportError("transport: retrying doer is not configured", goerrors.CategoryInternal, http.StatusInternalServerError, nil)
	}
	return d.client.DoWithContext(req.Context(), req)
}

var _ core.HTTPDoer = (*RetryingDoer)(nil)
