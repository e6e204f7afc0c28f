package command

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitterkit/core"
)

func missingService(name string) error {
	return core.NewError("command: "+name+" requires a service", goerrors.CategoryInternal, core.ErrorInternal)
}

func invalidField(field string, message string) error {
	return goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(core.HTTPStatusForCategory(goerrors.CategoryBadInput)).
		WithTextCode(core.ErrorBadInput)
}
