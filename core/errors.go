package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput          = "TWITTERKIT_BAD_INPUT"
	ErrorUnauthorized      = "TWITTERKIT_UNAUTHORIZED"
	ErrorForbidden         = "TWITTERKIT_FORBIDDEN"
	ErrorRateLimited       = "TWITTERKIT_RATE_LIMITED"
	ErrorOperationFailed   = "TWITTERKIT_OPERATION_FAILED"
	ErrorExternalFailure   = "TWITTERKIT_EXTERNAL_FAILURE"
	ErrorSessionNotFound   = "TWITTERKIT_SESSION_NOT_FOUND"
	ErrorConflict          = "TWITTERKIT_CONFLICT"
	ErrorInternal          = "TWITTERKIT_INTERNAL_ERROR"
	ErrorSigningFailure    = "TWITTERKIT_SIGNING_FAILURE"
	ErrorAuthFlowFailure   = "TWITTERKIT_AUTH_FLOW_FAILURE"
	ErrorRetryDeclined     = "TWITTERKIT_RETRY_DECLINED"
	ErrorVerification      = "TWITTERKIT_VERIFICATION_FAILURE"
	ErrorGuestIssuance     = "TWITTERKIT_GUEST_ISSUANCE_FAILURE"
	ErrorConfigurationFail = "TWITTERKIT_CONFIGURATION_INVALID"
)

// NewError builds a rich error whose HTTP code follows its category.
func NewError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func WrapError(source error, category goerrors.Category, message string, textCode string) *goerrors.Error {
	if source == nil {
		return NewError(message, category, textCode)
	}
	return ensureErrorEnvelope(
		goerrors.Wrap(source, category, message).
			WithTextCode(textCode),
	)
}

// MapError is the default ErrorMapper.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "session") && strings.Contains(msg, "not found"):
		return NewError(err.Error(), goerrors.CategoryNotFound, ErrorSessionNotFound)
	case strings.Contains(msg, "sign"):
		return NewError(err.Error(), goerrors.CategoryBadInput, ErrorSigningFailure)
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return NewError(err.Error(), goerrors.CategoryRateLimit, ErrorRateLimited)
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "expired"):
		return NewError(err.Error(), goerrors.CategoryAuth, ErrorUnauthorized)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "malformed"):
		return NewError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

// HasTextCode reports whether err carries a rich error with textCode.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), strings.TrimSpace(textCode))
}

func IsAuthFlowFailure(err error) bool {
	return HasTextCode(err, ErrorAuthFlowFailure)
}

func IsSigningFailure(err error) bool {
	return HasTextCode(err, ErrorSigningFailure)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = TextCodeForCategory(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func TextCodeForCategory(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorSessionNotFound
	case goerrors.CategoryAuth:
		return ErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ErrorForbidden
	case goerrors.CategoryConflict:
		return ErrorConflict
	case goerrors.CategoryRateLimit:
		return ErrorRateLimited
	case goerrors.CategoryOperation:
		return ErrorOperationFailed
	case goerrors.CategoryExternal:
		return ErrorExternalFailure
	default:
		return ErrorInternal
	}
}

func HTTPStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
