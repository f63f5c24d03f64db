package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ErrorKind classifies a transport failure into a closed tag set so that
// retryability can be decided without string matching on free text.
type ErrorKind int

const (
	// KindOther is an unclassified failure
	KindOther ErrorKind = iota
	// KindTimeout is a deadline or network timeout
	KindTimeout
	// KindConnectionReset is a peer reset
	KindConnectionReset
	// KindConnectionRefused is a refused connection
	KindConnectionRefused
	// KindDNS is a name resolution failure
	KindDNS
	// KindHTTPStatus is a failure driven by an HTTP response status
	KindHTTPStatus
)

// String returns the string representation of an error kind
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionReset:
		return "connection_reset"
	case KindConnectionRefused:
		return "connection_refused"
	case KindDNS:
		return "dns"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "other"
	}
}

// Error is a classified transport failure. StatusCode is only meaningful
// when Kind is KindHTTPStatus.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("transport: http status %d", e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("transport: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("transport: %s", e.Kind)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusError builds a transport error for an HTTP response status
func StatusError(code int) *Error {
	return &Error{Kind: KindHTTPStatus, StatusCode: code}
}

// Classify wraps a low-level error in a classified transport error.
// Errors that already carry a classification pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var te *Error
	if errors.As(err, &te) {
		return te
	}

	kind := classifyKind(err)
	return &Error{Kind: kind, Cause: err}
}

func classifyKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	if errors.Is(err, syscall.ECONNRESET) {
		return KindConnectionReset
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}

	return KindOther
}

// LooksTransient is the substring fallback for third-party errors that do
// not carry structured codes. Kept deliberately narrow.
func LooksTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "timed out", "connection reset", "connection refused", "network", "broken pipe"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
