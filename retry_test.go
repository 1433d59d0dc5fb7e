package sdk

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRetryRetriesServerErrorsOnly(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	attempts := 0
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return APIError{Status: http.StatusInternalServerError, Kind: KindServerError}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}

	attempts = 0
	err = Retry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return APIError{Status: http.StatusUnauthorized, Kind: KindSessionExpired}
	})
	if !IsSessionExpired(err) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("authorization failures must not be retried, got %d attempts", attempts)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	attempts := 0
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return TransportError{Kind: KindNetworkUnavailable, Message: "down"}
	})
	if !IsNetworkUnavailable(err) {
		t.Fatalf("expected network unavailable, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}
