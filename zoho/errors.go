// ABOUTME: Error taxonomy for Zoho token and API calls
// ABOUTME: Classifies failures as auth, upstream, or invalid-call so callers can branch with errors.As
package zoho

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindAuth is a token refresh that failed or returned no token.
	KindAuth Kind = iota + 1
	// KindUpstream is a non-2xx response, transport error, or timeout.
	KindUpstream
	// KindInvalidCall is a caller mistake caught before any network I/O.
	KindInvalidCall
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindUpstream:
		return "upstream"
	case KindInvalidCall:
		return "invalid_call"
	default:
		return "unknown"
	}
}

var (
	ErrUnsupportedMethod  = errors.New("unsupported HTTP method")
	ErrUnknownService     = errors.New("unknown service")
	ErrMissingCredentials = errors.New("zoho OAuth credentials not configured")
)

// Error is returned by TokenManager and Client.
type Error struct {
	Kind       Kind
	Service    Service
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("zoho %s %s: %s failure", e.Service, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a zoho *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr.Kind == kind
	}
	return false
}
