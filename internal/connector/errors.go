package connector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/job-scanner/internal/types"
)

// FetchError is a source fetch failure carrying its taxonomy category and
// the HTTP status when one is known.
type FetchError struct {
	Type       types.ErrorType
	HTTPStatus int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Cause
}

var reHTTPStatus = regexp.MustCompile(`HTTP (\d{3})`)

// Classify maps an arbitrary fetch error into the closed taxonomy by
// sniffing its message. The priority order matters: status-code checks
// come first because they carry a concrete code, and some messages would
// otherwise match several categories (a timeout during a JSON parse, for
// example).
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FetchError); ok {
		return fe
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	if m := reHTTPStatus.FindStringSubmatch(msg); m != nil {
		status, _ := strconv.Atoi(m[1])
		switch status {
		case 429:
			return &FetchError{Type: types.ErrorRateLimited, HTTPStatus: status, Message: msg, Cause: err}
		case 401, 403:
			return &FetchError{Type: types.ErrorBlocked, HTTPStatus: status, Message: msg, Cause: err}
		default:
			return &FetchError{Type: types.ErrorHTTP, HTTPStatus: status, Message: msg, Cause: err}
		}
	}
	// Some providers phrase the status without the HTTP prefix.
	if strings.Contains(msg, "status 429") || strings.Contains(lower, "too many requests") {
		return &FetchError{Type: types.ErrorRateLimited, HTTPStatus: 429, Message: msg, Cause: err}
	}
	if strings.Contains(msg, "status 401") {
		return &FetchError{Type: types.ErrorBlocked, HTTPStatus: 401, Message: msg, Cause: err}
	}
	if strings.Contains(msg, "status 403") || strings.Contains(lower, "forbidden") {
		return &FetchError{Type: types.ErrorBlocked, HTTPStatus: 403, Message: msg, Cause: err}
	}
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "aborted") ||
		strings.Contains(lower, "canceled") || strings.Contains(lower, "cancelled") {
		return &FetchError{Type: types.ErrorTimeout, Message: msg, Cause: err}
	}
	if strings.Contains(lower, "parse") || strings.Contains(lower, "unmarshal") ||
		strings.Contains(lower, "json") || strings.Contains(lower, "xml") ||
		strings.Contains(lower, "unexpected end") {
		return &FetchError{Type: types.ErrorParse, Message: msg, Cause: err}
	}
	if strings.Contains(lower, "network") || strings.Contains(lower, "connection") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "dial") ||
		strings.Contains(lower, "fetch") || strings.Contains(lower, "eof") {
		return &FetchError{Type: types.ErrorNetwork, Message: msg, Cause: err}
	}

	return &FetchError{Type: types.ErrorUnknown, Message: msg, Cause: err}
}
