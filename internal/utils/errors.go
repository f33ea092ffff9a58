package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind tags an AppError with its failure class so callers can map it to
// user messaging and HTTP status codes without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport covers network or connection failures reaching a
	// collaborator. Retryable by the fetch layer.
	KindTransport
	// KindTimeout marks a fetch that exceeded its deadline. Surfaced
	// distinctly from transport failures but handled the same way.
	KindTimeout
	// KindValidation marks a bad request rejected before any network call.
	KindValidation
	// KindMalformedData marks a response field or record that failed to
	// parse. Localized to the affected record, never the whole batch.
	KindMalformedData
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindMalformedData:
		return "malformed_data"
	default:
		return "unknown"
	}
}

// AppError wraps an operation, failure kind, human-facing message, and
// underlying error.
type AppError struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// E constructs an AppError.
func E(kind Kind, op, msg string, err error) error {
	return &AppError{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsTimeout reports whether err is tagged as a deadline failure.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsTransport reports whether err is tagged as a connection failure.
func IsTransport(err error) bool { return KindOf(err) == KindTransport }

// IsValidation reports whether err is tagged as a rejected request.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsMalformedData reports whether err is tagged as a parse failure.
func IsMalformedData(err error) bool { return KindOf(err) == KindMalformedData }

// ClassifyFetchError maps a raw HTTP client error to the timeout or transport
// kind. Deadline expiry on the context or the connection counts as timeout.
func ClassifyFetchError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return E(KindTimeout, op, "request deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return E(KindTimeout, op, "request deadline exceeded", err)
	}
	return E(KindTransport, op, "request failed", err)
}
