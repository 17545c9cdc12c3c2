package zerobounce

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is wrapped by the ParameterError returned when a client has no API key.
var ErrMissingAPIKey = errors.New("no API key found")

var errNoResponse = errors.New("server not responding")

// ParameterError reports a missing or malformed request parameter.
// It is always returned before any network activity.
type ParameterError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParameterError) Error() string {
	switch {
	case e.Field != "" && e.Reason != "":
		return fmt.Sprintf("parameter %s: %s", e.Field, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("empty required parameter: %s", e.Field)
	case e.Reason != "":
		return e.Reason
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "invalid parameters"
	}
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

// TransportError indicates that no HTTP status could be obtained: the upload
// file was unreadable, the server did not answer, or the timeout elapsed.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CacheError wraps a failure raised by the configured cache adapter.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ProtocolError means the service responded but signaled an application-level failure.
type ProtocolError struct {
	Endpoint   string
	Message    string
	StatusCode int
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// IsParameterError checks if the error is a parameter error.
func IsParameterError(err error) bool {
	var e *ParameterError
	return errors.As(err, &e)
}

// IsTransportError checks if the error is a transport error.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsCacheError checks if the error is a cache adapter error.
func IsCacheError(err error) bool {
	var e *CacheError
	return errors.As(err, &e)
}

// IsProtocolError checks if the error is an application-level error reported by the service.
func IsProtocolError(err error) bool {
	var e *ProtocolError
	return errors.As(err, &e)
}

func requiredParam(field string) error {
	return &ParameterError{Field: field}
}

func protocolError(endpoint string, resp *Response, message string) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return &ProtocolError{Endpoint: endpoint, Message: message, StatusCode: status}
}
