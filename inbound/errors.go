package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

// callbackFailure wraps source (which may be nil) in an envelope carrying
// code. Metadata is attached only when present.
func callbackFailure(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := core.WrapError(source, category, message, textCode).WithCode(code)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func badCallback(message string, metadata map[string]any) error {
	return callbackFailure(nil, goerrors.CategoryBadInput, message, http.StatusBadRequest, core.ErrorBadInput, metadata)
}

func misconfigured(message string) error {
	return callbackFailure(nil, goerrors.CategoryInternal, message, http.StatusInternalServerError, core.ErrorInternal, nil)
}
