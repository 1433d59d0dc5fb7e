package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrorKind classifies a failed call into exactly one category.
type ErrorKind string

const (
	// KindInvalidCredentials covers rejected login or refresh attempts.
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	// KindSessionExpired covers 401 responses to authenticated calls.
	KindSessionExpired ErrorKind = "session_expired"
	// KindPermissionDenied covers 403 responses.
	KindPermissionDenied ErrorKind = "permission_denied"
	// KindResourceNotFound covers 404 responses.
	KindResourceNotFound ErrorKind = "resource_not_found"
	// KindServerError covers 5xx responses.
	KindServerError ErrorKind = "server_error"
	// KindNetworkUnavailable covers requests that were sent but received
	// no response (timeout, connection failure).
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	// KindClientError covers failures before the request was transmitted.
	KindClientError ErrorKind = "client_error"
)

// ErrSessionCleared reports that a logout completed while the request was in
// flight, so its result was discarded instead of resurrecting the session.
var ErrSessionCleared = errors.New("sdk: session cleared while request in flight")

// APIError captures a structured error response from the backend.
type APIError struct {
	Status    int
	Kind      ErrorKind
	Code      string
	Message   string
	RequestID string
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Message == "" {
		e.Message = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Kind, e.Message, e.Status)
}

// TransportError reports a failure for which no HTTP response exists.
type TransportError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e TransportError) Unwrap() error { return e.Cause }

// ConfigError reports invalid client configuration.
type ConfigError struct {
	Reason string
}

// Error implements the error interface.
func (e ConfigError) Error() string { return "sdk: " + e.Reason }

// KindOf returns the classification of err, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var trErr TransportError
	if errors.As(err, &trErr) {
		return trErr.Kind
	}
	return ""
}

// IsInvalidCredentials reports whether err is a rejected login or refresh.
func IsInvalidCredentials(err error) bool { return KindOf(err) == KindInvalidCredentials }

// IsSessionExpired reports whether err is a 401 authorization failure.
func IsSessionExpired(err error) bool { return KindOf(err) == KindSessionExpired }

// IsPermissionDenied reports whether err is a 403 authorization failure.
func IsPermissionDenied(err error) bool { return KindOf(err) == KindPermissionDenied }

// IsResourceNotFound reports whether err is a 404 failure.
func IsResourceNotFound(err error) bool { return KindOf(err) == KindResourceNotFound }

// IsServerError reports whether err is a 5xx failure. Such calls are eligible
// for caller-level retry; see Retry.
func IsServerError(err error) bool { return KindOf(err) == KindServerError }

// IsNetworkUnavailable reports whether the request got no response at all.
func IsNetworkUnavailable(err error) bool { return KindOf(err) == KindNetworkUnavailable }

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindSessionExpired
	case status == http.StatusForbidden:
		return KindPermissionDenied
	case status == http.StatusNotFound:
		return KindResourceNotFound
	case status >= 500:
		return KindServerError
	default:
		return KindClientError
	}
}

// errorBody tolerates both envelope shapes the backend services emit:
// fields at the top level, or nested under a "data" key. The data envelope
// takes precedence when present.
type errorBody struct {
	Message   string     `json:"message"`
	ErrorText string     `json:"error"`
	Code      string     `json:"code"`
	RequestID string     `json:"request_id"`
	Data      *errorBody `json:"data"`
}

func (b errorBody) message() string {
	if b.Data != nil {
		if msg := b.Data.message(); msg != "" {
			return msg
		}
	}
	if b.Message != "" {
		return b.Message
	}
	return b.ErrorText
}

func (b errorBody) code() string {
	if b.Data != nil && b.Data.Code != "" {
		return b.Data.Code
	}
	return b.Code
}

func decodeAPIError(resp *http.Response) error {
	apiErr := APIError{Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode)}
	data, _ := io.ReadAll(resp.Body)
	if len(data) == 0 {
		apiErr.Message = resp.Status
		return apiErr
	}
	var payload errorBody
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = resp.Status
		return apiErr
	}
	apiErr.Message = payload.message()
	apiErr.Code = payload.code()
	apiErr.RequestID = payload.RequestID
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
