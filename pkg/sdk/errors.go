package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a remote failure coarsely so the UI layer can pick an
// appropriate message without inspecting status codes.
type Kind string

const (
	// KindUnauthorized is consumed internally by the transport's one-shot
	// renew-and-retry; it only escapes when renewal is unavailable.
	KindUnauthorized Kind = "unauthorized"
	// KindSessionExpired means the credential could not be renewed and the
	// operator must re-authenticate.
	KindSessionExpired Kind = "session_expired"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindServerError    Kind = "server_error"
	KindNetwork        Kind = "network_unreachable"
	KindTimeout        Kind = "timeout"
	// KindValidationRejected carries the remote side's field-level detail
	// opaquely; the core never interprets it.
	KindValidationRejected Kind = "validation_rejected"
)

// ErrSessionExpired is returned when an authorization failure could not be
// recovered by renewing the credential.
var ErrSessionExpired = errors.New("sdk: session expired")

// APIError is a remote failure tagged with its coarse Kind. The original
// response detail is preserved untranslated.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	// Detail holds the raw error payload (e.g. field-level validation
	// errors) exactly as the server sent it.
	Detail json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sdk: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("sdk: %s (status %d)", e.Kind, e.StatusCode)
}

// KindOf extracts the coarse failure kind from an error chain. Unclassified
// errors report KindServerError.
func KindOf(err error) Kind {
	if errors.Is(err, ErrSessionExpired) {
		return KindSessionExpired
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindServerError
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 400 || status == 422:
		return KindValidationRejected
	default:
		return KindServerError
	}
}
