package domain

import (
	"errors"
	"testing"
)

func TestFetchError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("transport failure", func(t *testing.T) {
		err := NewFetchError("ticker24h", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected fetch error to be retriable")
		}

		if err.Error() != "ticker24h: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "ticker24h: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("non-2xx status", func(t *testing.T) {
		err := NewFetchStatusError("ratio", 429)

		if err.Status != 429 {
			t.Errorf("Status = %d, want 429", err.Status)
		}
		if !IsRetriable(err) {
			t.Error("status errors should be retriable")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		if !IsRetriable(&StreamError{Op: "read", Err: baseErr}) {
			t.Error("IsRetriable should return true for stream errors")
		}

		if IsRetriable(&ConfigError{Field: "ws_url", Err: baseErr}) {
			t.Error("IsRetriable should return false for config errors")
		}

		if IsRetriable(errors.New("plain error")) {
			t.Error("IsRetriable should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "rest_url", Err: baseErr}

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [rest_url]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
}
