package retry

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failure for retry purposes.
type Kind int

const (
	// KindUnknown is any failure that was never classified at its origin.
	KindUnknown Kind = iota
	// KindTransient covers network failures, throttling and server errors.
	KindTransient
	// KindPermanent covers validation and authorization failures.
	KindPermanent
	// KindNotFound signals that the addressed resource does not exist.
	KindNotFound
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

var (
	// ErrIllegalState is returned when a State is used out of order.
	ErrIllegalState = errors.New("retry: illegal state")

	// ErrCancelled is returned when the context is done while a loop is sleeping.
	// The context error is wrapped alongside it.
	ErrCancelled = errors.New("retry: cancelled")

	// ErrDeadline is returned when the next backoff would end past the
	// deadline set with Policy.WithDeadline. The last failure is wrapped
	// alongside it.
	ErrDeadline = errors.New("retry: deadline would be exceeded")
)

// Error attaches a Kind to a failure at the boundary where it originated.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := "unclassified failure"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Transient marks err as retriable.
func Transient(err error) error {
	return withKind(KindTransient, err)
}

// Permanent marks err as not retriable.
func Permanent(err error) error {
	return withKind(KindPermanent, err)
}

// NotFound marks err as a missing-resource failure.
func NotFound(err error) error {
	return withKind(KindNotFound, err)
}

func withKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether err was classified as transient.
// Unclassified errors are not retried.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}

// IsNotFound reports whether err was classified as a missing resource.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// KindForStatus maps an HTTP status code to a Kind.
//
// 404 is NotFound. 408, 429 and every 5xx are Transient. Any other 4xx,
// including 401 and 403, is Permanent.
func KindForStatus(code int) Kind {
	switch {
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusRequestTimeout,
		code == http.StatusTooManyRequests,
		code >= http.StatusInternalServerError:
		return KindTransient
	case code >= http.StatusBadRequest:
		return KindPermanent
	default:
		return KindUnknown
	}
}

// ConfigurationError reports an invalid policy parameter.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("retry: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// ExhaustedError is returned in place of the last failure when a policy is
// built WithExhaustedError. It unwraps to that failure.
type ExhaustedError struct {
	Op       string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s gave up after %d attempts in %s: %v", e.Op, e.Attempts, e.Elapsed, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
