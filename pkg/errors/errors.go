package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType classifies every failure the harvest can produce
type ErrorType string

const (
	// ErrorTypeExtractionCorruption marks a snapshot whose six field
	// sequences disagree in length. Recovered locally by falling back to
	// the last good snapshot.
	ErrorTypeExtractionCorruption ErrorType = "extraction_corruption"

	// ErrorTypeAntiBotRedirect marks a login wall served instead of
	// content. Recovered by re-running the whole page task, bounded by the
	// configured retry cap.
	ErrorTypeAntiBotRedirect ErrorType = "antibot_redirect"

	// ErrorTypeAntiBotChallenge marks a human-verification wall. A blocking
	// condition waiting on an operator, not a machine-retryable error.
	ErrorTypeAntiBotChallenge ErrorType = "antibot_challenge"

	// ErrorTypeMediaFetch marks a failed image download. Isolated, logged,
	// skipped; never retried.
	ErrorTypeMediaFetch ErrorType = "media_fetch"

	// ErrorTypeMediaConversion marks a failed normalization. Isolated; the
	// original file is preserved.
	ErrorTypeMediaConversion ErrorType = "media_conversion"

	// ErrorTypeTaskFailure marks any other error escaping a page task,
	// caught at the task boundary.
	ErrorTypeTaskFailure ErrorType = "task_failure"

	// ErrorTypeConfig marks an unrecoverable configuration problem, the
	// only error class allowed to stop the process before a crawl starts.
	ErrorTypeConfig ErrorType = "config"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a classified harvest error with structured context
type Error struct {
	Type    ErrorType
	Message string
	Fields  map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Type, e.Message)
	for k, v := range e.Fields {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithField attaches a context field, returning the same error for chaining
func (e *Error) WithField(key string, value interface{}) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New creates a classified error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a classified error around a cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// NewExtractionCorruption reports unequal field cardinality in a snapshot
func NewExtractionCorruption(lengths []int) *Error {
	return New(ErrorTypeExtractionCorruption, "field sequences disagree in length").
		WithField("lengths", fmt.Sprintf("%v", lengths))
}

// NewAntiBotRedirect reports a login wall on a page task
func NewAntiBotRedirect(page int, location string) *Error {
	return New(ErrorTypeAntiBotRedirect, "login wall served instead of content").
		WithField("page", page).
		WithField("location", location)
}

// NewAntiBotChallenge reports a verification wall on a page task
func NewAntiBotChallenge(page int, location string) *Error {
	return New(ErrorTypeAntiBotChallenge, "verification challenge blocking access").
		WithField("page", page).
		WithField("location", location)
}

// NewMediaFetch reports a failed media download
func NewMediaFetch(url string, statusCode int, err error) *Error {
	return Wrap(ErrorTypeMediaFetch, "media download failed", err).
		WithField("url", url).
		WithField("status_code", statusCode)
}

// NewMediaConversion reports a failed normalization
func NewMediaConversion(path string, err error) *Error {
	return Wrap(ErrorTypeMediaConversion, "media normalization failed", err).
		WithField("path", path)
}

// NewTaskFailure wraps an unclassified error escaping a page task
func NewTaskFailure(page int, err error) *Error {
	return Wrap(ErrorTypeTaskFailure, "page task failed", err).
		WithField("page", page)
}

// GetType extracts the classification from any error, unwrapping as needed
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given classification
func IsType(err error, t ErrorType) bool {
	return GetType(err) == t
}

// IsRetryable checks if an error type should be retried. Only the login
// redirect is machine-retryable; every other class is either recovered
// locally, waits on a human, or is skipped by contract.
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeAntiBotRedirect
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable
// condition for page-level requests
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
