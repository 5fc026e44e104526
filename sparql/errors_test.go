package sparql

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindRetryability(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
	}{
		{KindNetwork, true},
		{KindRateLimited, true},
		{KindServer, true},
		{KindInvalidQuery, false},
		{KindAuthRequired, false},
		{KindUnknownStatus, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := &Error{Kind: tt.kind}
			if got := err.Retryable(); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
			if got := IsRetryable(err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestIsRetryable_WrappedAndForeign(t *testing.T) {
	wrapped := fmt.Errorf("query path: %w", &Error{Kind: KindServer, Status: 503})
	if !IsRetryable(wrapped) {
		t.Error("IsRetryable should see through wrapping")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("IsRetryable should be false for unclassified errors")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) should be false")
	}
}

func TestErrorMessages(t *testing.T) {
	withURL := &Error{Kind: KindAuthRequired, Status: 401, AuthURL: "https://login.example"}
	if msg := withURL.Error(); msg != "sparql: authentication required, log in at https://login.example" {
		t.Errorf("Error() = %q", msg)
	}

	withoutURL := &Error{Kind: KindAuthRequired, Status: 403}
	if msg := withoutURL.Error(); msg != "sparql: authentication required" {
		t.Errorf("Error() = %q", msg)
	}
}

func TestNetworkErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := networkError(cause)
	if !errors.Is(err, cause) {
		t.Error("network error should unwrap to its cause")
	}
}

func TestClassifyAuthURLOnlyOnAuthFailures(t *testing.T) {
	if e := classify(500, "https://login.example"); e.AuthURL != "" {
		t.Error("server errors should not carry an auth URL")
	}
	if e := classify(401, "https://login.example"); e.AuthURL != "https://login.example" {
		t.Error("auth failures should carry the auth URL")
	}
}
