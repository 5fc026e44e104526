package sparql

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredentialMechanism is returned without any network attempt when
// an instance requires authentication but has no way to pass
// credentials (RequiresAuth set, CookieAuth not).
var ErrNoCredentialMechanism = errors.New(
	"sparql: instance requires authentication but no credential mechanism is configured")

// Kind classifies a query failure.
type Kind int

const (
	// KindNetwork means no response was received: connection failure,
	// DNS error, or per-attempt timeout. Transient.
	KindNetwork Kind = iota
	// KindInvalidQuery means the endpoint rejected the query as
	// malformed (HTTP 400). Terminal.
	KindInvalidQuery
	// KindAuthRequired means the endpoint rejected the request for
	// missing or invalid credentials (HTTP 401/403). Terminal, but
	// user-actionable when AuthURL is set.
	KindAuthRequired
	// KindRateLimited means the endpoint is shedding load (HTTP 429).
	// Transient.
	KindRateLimited
	// KindServer means the endpoint failed internally (HTTP 5xx).
	// Transient.
	KindServer
	// KindUnknownStatus covers any other unexpected response. Terminal.
	KindUnknownStatus
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindInvalidQuery:
		return "invalid-query"
	case KindAuthRequired:
		return "auth-required"
	case KindRateLimited:
		return "rate-limited"
	case KindServer:
		return "server"
	default:
		return "unknown-status"
	}
}

// Error is a classified query failure. It carries the HTTP status when
// a response was received, and the login URL for cookie-authenticated
// instances when the failure is KindAuthRequired.
type Error struct {
	Kind    Kind
	Status  int
	AuthURL string
	err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("sparql: network failure: %v", e.err)
	case KindInvalidQuery:
		return "sparql: query rejected as malformed"
	case KindAuthRequired:
		if e.AuthURL != "" {
			return fmt.Sprintf("sparql: authentication required, log in at %s", e.AuthURL)
		}
		return "sparql: authentication required"
	case KindRateLimited:
		return "sparql: rate limited by endpoint"
	case KindServer:
		return fmt.Sprintf("sparql: endpoint error (%d %s)", e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("sparql: unexpected response status %d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.err }

// Retryable reports whether the failure is transient.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindRateLimited, KindServer:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a transient classified failure.
func IsRetryable(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Retryable()
}

// IsAuthRequired reports whether err is an authentication failure and
// returns the login URL when one is known.
func IsAuthRequired(err error) (authURL string, ok bool) {
	var qe *Error
	if errors.As(err, &qe) && qe.Kind == KindAuthRequired {
		return qe.AuthURL, true
	}
	return "", false
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, err: err}
}

// classify maps a received HTTP status to a failure. authURL is attached
// to auth failures only when the instance uses cookie credentials, since
// only then can logging in actually help.
func classify(status int, authURL string) *Error {
	switch {
	case status == http.StatusBadRequest:
		return &Error{Kind: KindInvalidQuery, Status: status}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindAuthRequired, Status: status, AuthURL: authURL}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Status: status}
	case status >= 500 && status <= 599:
		return &Error{Kind: KindServer, Status: status}
	default:
		return &Error{Kind: KindUnknownStatus, Status: status}
	}
}
