package query

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

func missingReader(kind string) error {
	return core.NewError("query: "+kind+" reader is required", goerrors.CategoryInternal, core.ErrorInternal)
}

func invalidField(field string, message string) error {
	return goerrors.NewValidation("query: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(core.HTTPStatusForCategory(goerrors.CategoryBadInput)).
		WithTextCode(core.ErrorBadInput)
}

// noSession reports a missing session; id zero means the active one.
func noSession(id int64) error {
	message := "query: no active session"
	if id != 0 {
		message = fmt.Sprintf("query: session %d not found", id)
	}
	return core.NewError(message, goerrors.CategoryNotFound, core.ErrorSessionNotFound)
}
