package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request. It is decided where the failure is
// detected (status code, abort reason, connectivity check), never parsed back
// out of an error string.
type Kind int

const (
	// KindUnknown is any error not produced by this package
	KindUnknown Kind = iota
	// KindOffline means no connectivity, or the host could not be reached at all
	KindOffline
	// KindTimeout means a single attempt exceeded its deadline
	KindTimeout
	// KindServer means the upstream answered 5xx or sent an unreadable body
	KindServer
	// KindNotFound means the upstream answered 404
	KindNotFound
	// KindClient means any other 4xx
	KindClient
	// KindCancelled means the caller aborted the request
	KindCancelled
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindOffline:
		return "offline"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server_error"
	case KindNotFound:
		return "not_found"
	case KindClient:
		return "client_error"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Retryable reports whether another attempt may succeed
func (k Kind) Retryable() bool {
	return k == KindTimeout || k == KindServer
}

// Error is returned by every failed request
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("request %s failed: %s: status %d", e.URL, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("request %s failed: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("request %s failed: %s", e.URL, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from err. Bare context errors are treated as
// cancellation so callers that wrap a context failure still classify correctly.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindUnknown
}

// IsNotFound checks if err is a 404 from upstream
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsOffline checks if err was caused by missing connectivity
func IsOffline(err error) bool {
	return KindOf(err) == KindOffline
}

// IsCancelled checks if err was caused by the caller aborting
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}

// kindForStatus maps a non-2xx status code to a Kind
func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusNotFound:
		return KindNotFound
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindClient
	default:
		return KindServer
	}
}
