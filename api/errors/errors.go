package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	mirror_errors "github.com/ricardag/mailmirror/errors"
)

type MultiErrors struct {
	Errors map[string][]ErrorInfo
}

type ErrorInfo struct {
	Message  string
	RawError error
}

func NewMultiErrors() *MultiErrors {
	return &MultiErrors{
		Errors: make(map[string][]ErrorInfo),
	}
}

func (e *MultiErrors) Add(key, message string, err error) {
	e.Errors[key] = append(e.Errors[key], ErrorInfo{
		Message:  message,
		RawError: err,
	})
}

func (e *MultiErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *MultiErrors) Error() string {
	var parts []string
	for field, errors := range e.Errors {
		for _, err := range errors {
			parts = append(parts, fmt.Sprintf("%s: %s", field, err.Message))
		}
	}
	return strings.Join(parts, " | ")
}

// StatusFor maps service layer errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, mirror_errors.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, mirror_errors.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, mirror_errors.ErrProviderUnselected):
		return http.StatusBadRequest
	case errors.Is(err, mirror_errors.ErrNoUsableClient):
		return http.StatusUnprocessableEntity
	default:
		var multi *MultiErrors
		if errors.As(err, &multi) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}
