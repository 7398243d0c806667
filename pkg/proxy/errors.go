package proxy

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies the failures the proxy reports itself. Upstream
// error statuses are forwarded and never become an Error.
type ErrorKind int

const (
	// KindMalformedRequest means the inbound path did not resolve (400).
	KindMalformedRequest ErrorKind = iota + 1
	// KindPolicyDenied means the host or path is not allowed (400 or 403).
	KindPolicyDenied
	// KindUpstreamTransport means a dispatch failed before a response (500).
	KindUpstreamTransport
	// KindRedirectLimit means the redirect chain was too long (508).
	KindRedirectLimit
)

// String returns the kind name used in logs and audit records.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedRequest:
		return "malformed_request"
	case KindPolicyDenied:
		return "policy_denied"
	case KindUpstreamTransport:
		return "upstream_transport"
	case KindRedirectLimit:
		return "redirect_limit"
	default:
		return "unknown"
	}
}

// StatusLoopDetected is returned when the redirect limit is exceeded.
const StatusLoopDetected = http.StatusLoopDetected

var (
	// ErrTooManyRedirects is wrapped by redirect limit errors.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyConsumed is returned when a dispatch after the first one
	// would need the inbound request body again.
	ErrBodyConsumed = errors.New("request body already sent upstream")
)

// Error is a request failure produced by the proxy itself.
type Error struct {
	Kind   ErrorKind
	Status int
	// Host is the upstream host involved, if any.
	Host string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("%s [host=%s]: %v", e.Kind, e.Host, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Body returns the text written to the client.
func (e *Error) Body() string {
	switch e.Kind {
	case KindMalformedRequest:
		return "Invalid request: target domain or path required\n"
	case KindPolicyDenied:
		if e.Status == http.StatusForbidden {
			return "Error: The path is not in the allowed paths.\n"
		}
		return "Error: Invalid target domain.\n"
	case KindUpstreamTransport:
		return fmt.Sprintf("Error fetching from %s: %v\n", e.Host, e.Err)
	case KindRedirectLimit:
		return "Too many redirects"
	default:
		return http.StatusText(e.Status) + "\n"
	}
}

// WriteError writes e as a text/plain response.
func WriteError(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(e.Status)
	_, _ = fmt.Fprint(w, e.Body())
}

func malformed(err error) *Error {
	return &Error{Kind: KindMalformedRequest, Status: http.StatusBadRequest, Err: err}
}

func denied(status int, host, reason string) *Error {
	return &Error{
		Kind:   KindPolicyDenied,
		Status: status,
		Host:   host,
		Err:    fmt.Errorf("denied by %s policy", reason),
	}
}

func transport(host string, err error) *Error {
	return &Error{Kind: KindUpstreamTransport, Status: http.StatusInternalServerError, Host: host, Err: err}
}

func redirectLimit(host string, max int) *Error {
	return &Error{
		Kind:   KindRedirectLimit,
		Status: StatusLoopDetected,
		Host:   host,
		Err:    fmt.Errorf("%w: more than %d hops", ErrTooManyRedirects, max),
	}
}
