package transport

import (
	"encoding/json"
	"strings"
)

// APIError is the first entry of an API error envelope.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type apiErrorEnvelope struct {
	Errors []APIError `json:"errors"`
}

// ParseAPIError reads {"errors":[{"message":..,"code":..}]}. It reports false
// for bodies that are not JSON or carry no errors.
func ParseAPIError(body []byte) (APIError, bool) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return APIError{}, false
	}
	envelope := apiErrorEnvelope{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return APIError{}, false
	}
	if len(envelope.Errors) == 0 {
		return APIError{}, false
	}
	return envelope.Errors[0], true
}
