package transport

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

func transportError(message string, category goerrors.Category, code int, metadata map[string]any) error {
	return transportWrapError(nil, category, message, code, metadata)
}

// transportWrapError builds the envelope for a transport failure. The text
// code follows the category; code overrides the category's HTTP status.
func transportWrapError(source error, category goerrors.Category, message string, code int, metadata map[string]any) error {
	err := core.WrapError(source, category, message, transportTextCode(category)).WithCode(code)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorBadInput
	case goerrors.CategoryAuth:
		return core.ErrorUnauthorized
	case goerrors.CategoryAuthz:
		return core.ErrorForbidden
	case goerrors.CategoryRateLimit:
		return core.ErrorRateLimited
	case goerrors.CategoryOperation:
		return core.ErrorOperationFailed
	case goerrors.CategoryExternal:
		return core.ErrorExternalFailure
	default:
		return core.ErrorInternal
	}
}

// categoryForStatus classifies a non-2xx API status.
func categoryForStatus(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 500:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryBadInput
	}
}
