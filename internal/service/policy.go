package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PageSizePolicy picks the page limit used after the first order page
type PageSizePolicy interface {
	AfterFirstPage(limit, received int, hasNext bool) int
}

// ThrottleFallback treats a short first page with more pages remaining as
// remote throttling of large pages and drops to Fallback for the rest of
// the run.
type ThrottleFallback struct {
	Fallback int
}

func (p ThrottleFallback) AfterFirstPage(limit, received int, hasNext bool) int {
	if received < limit && hasNext {
		return p.Fallback
	}
	return limit
}

// FixedPageSize never changes the limit
type FixedPageSize struct{}

func (FixedPageSize) AfterFirstPage(limit, _ int, _ bool) int {
	return limit
}

// RetryPolicy bounds retries of a single page fetch
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy makes three attempts with exponential backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}
