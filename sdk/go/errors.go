package teachsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures the way callers react to them.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindInvalidReference ErrorKind = "invalid_reference"
	KindNotFound         ErrorKind = "not_found"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindTransient        ErrorKind = "transient"
	KindServer           ErrorKind = "server"
)

// APIError wraps non-2xx responses and transport failures. Status is 0 when
// no response was received.
type APIError struct {
	Status  int
	Code    string
	Message string
	Kind    ErrorKind
	Details map[string]any
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api error: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the kind of an *APIError in err's chain, or "" otherwise.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsTransient(err error) bool    { return KindOf(err) == KindTransient }

// IsRejected reports whether the server refused a request as malformed or
// referencing something outside its scope.
func IsRejected(err error) bool {
	k := KindOf(err)
	return k == KindValidation || k == KindInvalidReference
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Kind: kindForStatus(status)}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	} else {
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.Code == "invalid_reference" {
		apiErr.Kind = KindInvalidReference
	}
	return apiErr
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity:
		return KindInvalidReference
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests,
		status == http.StatusBadGateway, status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return KindTransient
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
