package authgate

import (
	"errors"
	"net/http"
)

var (
	// ErrNoRefreshToken is returned by Refresh when the session holds no
	// refresh token. No network call is made.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrRefreshFailed wraps every refresh failure after the exchange was
	// attempted. The session has been cleared when it is returned.
	ErrRefreshFailed = errors.New("refresh failed")
	// ErrSessionExpired marks a bearer 401 that could not be recovered.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnauthorized marks a 401 that is not recoverable by refresh.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidAPIKey is returned when the health probe rejects a key.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrInvalidCredentials is returned when login is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetwork wraps transport-level failures (DNS, timeout, refused).
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse marks a backend body that could not be decoded
	// or lacks a required field.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNoSession is returned when an operation needs a session with a
	// persistence surface and none is available.
	ErrNoSession = errors.New("no session")
	// ErrClientNotReady is returned by methods called on a nil Client.
	ErrClientNotReady = errors.New("client not initialized")
)

// ErrorKind classifies a failed Result.
type ErrorKind string

const (
	KindNetwork        ErrorKind = "network"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindSessionExpired ErrorKind = "session_expired"
	KindValidation     ErrorKind = "validation"
	KindServer         ErrorKind = "server"
	KindDecode         ErrorKind = "decode"
)

// APIError is the failure half of a Result. Message is always a single
// human-readable line.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// kindForStatus maps a non-2xx status to an error kind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
