package koffetch

import "fmt"

// ErrorKind is the closed set of failure kinds surfaced by the core.
type ErrorKind uint8

// Error kinds.
const (
	// KindInvalidURL means a URL string was rejected before any I/O was
	// attempted.
	KindInvalidURL ErrorKind = iota

	// KindNetwork means a transport-level failure or timeout occurred.
	KindNetwork

	// KindDecoding means a JSON envelope or HTML document failed to
	// parse.
	KindDecoding

	// KindInvalidResponse means the HTTP call succeeded but the response
	// envelope didn't match the expected shape.
	KindInvalidResponse

	// KindDocumentNotFound means a referenced document could not be
	// produced.
	KindDocumentNotFound

	// KindOperationFailed is the catch-all for errors surfaced from
	// user-supplied map/filter callbacks.
	KindOperationFailed
)

// String returns the human-readable name of the k.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "InvalidUrl"
	case KindNetwork:
		return "Network"
	case KindDecoding:
		return "Decoding"
	case KindInvalidResponse:
		return "InvalidResponse"
	case KindDocumentNotFound:
		return "DocumentNotFound"
	case KindOperationFailed:
		return "OperationFailed"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type used throughout koffetch. It carries a
// closed Kind plus an optional wrapped cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Message != "" {
			return fmt.Sprintf("koffetch: %s: %s: %v", e.Kind, e.Message, e.Cause)
		}
		return fmt.Sprintf("koffetch: %s: %v", e.Kind, e.Cause)
	}
	if e.Message != "" {
		return fmt.Sprintf("koffetch: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("koffetch: %s", e.Kind)
}

// Unwrap returns the wrapped cause so errors.Is/errors.As can see through e.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, koffetch.ErrNetwork) without caring about the
// message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors for errors.Is matching. Only Kind participates in the
// comparison; Message and Cause are ignored.
var (
	ErrInvalidURL       = &Error{Kind: KindInvalidURL}
	ErrNetwork          = &Error{Kind: KindNetwork}
	ErrDecoding         = &Error{Kind: KindDecoding}
	ErrInvalidResponse  = &Error{Kind: KindInvalidResponse}
	ErrDocumentNotFound = &Error{Kind: KindDocumentNotFound}
	ErrOperationFailed  = &Error{Kind: KindOperationFailed}
)

// newError builds an *Error of the given kind with a message and optional
// cause.
func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// invalidURLError wraps input as an InvalidUrl error.
func invalidURLError(input string) *Error {
	return newError(KindInvalidURL, fmt.Sprintf("invalid URL: %q", input), nil)
}

// networkError wraps cause as a Network error.
func networkError(cause error) *Error {
	return newError(KindNetwork, "", cause)
}

// decodingError wraps cause as a Decoding error.
func decodingError(message string, cause error) *Error {
	return newError(KindDecoding, message, cause)
}

// invalidResponseError builds an InvalidResponse error.
func invalidResponseError(message string) *Error {
	return newError(KindInvalidResponse, message, nil)
}

// operationFailedError wraps cause as an OperationFailed error.
func operationFailedError(message string, cause error) *Error {
	return newError(KindOperationFailed, message, cause)
}
