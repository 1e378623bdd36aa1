package transport

import (
	"fmt"

	"github.com/desertthunder/markx/internal/shared"
)

// Kind classifies why a call was rejected.
type Kind int

const (
	KindUnauthenticated Kind = iota + 1 // envelope code -401 or HTTP 401
	KindForbidden                       // HTTP 403
	KindNotFound                        // HTTP 404
	KindServer                          // HTTP 500
	KindStatus                          // any other non-2xx status
	KindNetwork                         // request sent, no response
	KindConfig                          // request never sent
	KindDecode                          // response body was not a valid envelope
	KindRejected                        // envelope flag was false
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindServer:
		return "server error"
	case KindStatus:
		return "http status"
	case KindNetwork:
		return "network"
	case KindConfig:
		return "request config"
	case KindDecode:
		return "decode"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthenticated:
		return shared.ErrNotAuthenticated
	case KindForbidden:
		return shared.ErrForbidden
	case KindNotFound:
		return shared.ErrNotFound
	case KindServer:
		return shared.ErrServerError
	case KindNetwork:
		return shared.ErrNetwork
	case KindConfig:
		return shared.ErrRequestConfig
	case KindDecode:
		return shared.ErrDecodeResponse
	case KindRejected:
		return shared.ErrRejected
	default:
		return shared.ErrAPIRequest
	}
}

// Error is returned for every rejected call.
//
// It matches the shared sentinel for its [Kind] with [errors.Is], as well as the underlying cause when there is one.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int    // HTTP status, zero when no response arrived
	Code    int    // envelope code, zero when absent
	Message string // diagnostic or backend message
	// Show reports whether the caller asked for the error to be surfaced to the user.
	Show bool
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	if e.Status > 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
