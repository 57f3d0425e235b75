package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
)

func fast() Config {
	return Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestOptions_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := backoff.Retry(context.Background(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	}, fast().Options()...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls, want ok after 3", got, calls)
	}
}

func TestOptions_StopsOnPermanent(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		calls++
		return struct{}{}, backoff.Permanent(sentinel)
	}, fast().Options()...)
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestOptions_LimitsAttempts(t *testing.T) {
	calls := 0
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		calls++
		return struct{}{}, errors.New("down")
	}, fast().Options()...)
	if err == nil || err.Error() != "down" {
		t.Fatalf("got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestOptions_HonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fast()
	cfg.MaxAttempts = 0
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		calls++
		cancel()
		return struct{}{}, errors.New("down")
	}, cfg.Options()...)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	cases := map[int]bool{
		http.StatusOK:                  false,
		http.StatusBadRequest:          false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusGatewayTimeout:      true,
	}
	for code, want := range cases {
		if got := IsRetryableStatus(code); got != want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}
