package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/worksgraph/internal/domain"
)

const (
	CodeStoreUnavailable = "store_unavailable"
	CodeInvalidRequest   = "invalid_request"
	CodeInternal         = "internal"
)

// Error carries the HTTP status and machine-readable code a failure should be
// reported with.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From classifies err. An *Error anywhere in the chain is returned as is;
// graph store failures become 503 so they are never mistaken for an empty
// result.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, domain.ErrPersistence):
		return New(http.StatusServiceUnavailable, CodeStoreUnavailable, err)
	case errors.Is(err, domain.ErrValidation):
		return New(http.StatusBadRequest, CodeInvalidRequest, err)
	default:
		return New(http.StatusInternalServerError, CodeInternal, err)
	}
}
