package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is the typed failure for any non-2xx response from the service.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TransportError wraps a request that produced no response at all. It never
// carries session-state consequences and is always worth retrying.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// responseError maps a non-2xx response onto the error taxonomy. The server
// writes errors as {"code": ..., "message": ..., "details": ...}; when that
// shape is absent a status-derived default is used, except for 400 where any
// server-provided message is surfaced verbatim.
func responseError(resp *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &body)

	status := resp.StatusCode
	code := body.Code
	message := body.Message

	switch {
	case status == http.StatusBadRequest:
		if code == "" {
			code = "VALIDATION"
		}
		if message == "" {
			message = "Invalid request"
		}
	case status == http.StatusUnauthorized:
		code, message = "UNAUTHORIZED", "Unauthorized"
	case status == http.StatusForbidden:
		code, message = "FORBIDDEN", "Insufficient privilege"
	case status == http.StatusNotFound:
		code, message = "NOT_FOUND", "Not found"
	case status >= 500:
		code, message = "SERVER_ERROR", "Server error"
	default:
		if code == "" {
			code = "REQUEST_FAILED"
		}
		if message == "" {
			message = http.StatusText(status)
		}
	}

	return &APIError{Status: status, Code: code, Message: message, Details: body.Details}
}

func statusIs(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports a 401 from the service.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized)
}

// IsForbidden reports a 403: authenticated but not permitted.
func IsForbidden(err error) bool {
	return statusIs(err, http.StatusForbidden)
}

// IsNotFound reports a 404: no such word or resource, not a system failure.
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

// IsRetryable reports failures the caller may retry: transport errors and 5xx.
func IsRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}
