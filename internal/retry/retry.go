// Package retry holds the backoff policy shared by the HTTP clients.
package retry

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func Default() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// Options turns the policy into backoff.Retry options.
func (c Config) Options() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.MaxInterval = c.MaxDelay
	if c.Multiplier > 0 {
		b.Multiplier = c.Multiplier
	}

	opts := []backoff.RetryOption{backoff.WithBackOff(b)}
	if c.MaxAttempts > 0 {
		opts = append(opts, backoff.WithMaxTries(uint(c.MaxAttempts)))
	}
	return opts
}

func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
