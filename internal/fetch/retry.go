package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/odysseus0/rssfeeder/internal/config"
)

const defaultMultiplier = 1.5

// RetryPolicy controls how timeouts are retried. MaxAttempts counts every
// request including the first; 0 means no limit. A zero InitialInterval
// retries immediately.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsed      time.Duration
}

func PolicyFromConfig(r config.Retry) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     r.MaxAttempts,
		InitialInterval: r.InitialInterval,
		MaxInterval:     r.MaxInterval,
		Multiplier:      defaultMultiplier,
		MaxElapsed:      r.MaxElapsed,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if p.InitialInterval <= 0 {
		b = &backoff.ZeroBackOff{}
	} else {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.InitialInterval
		if p.MaxInterval > 0 {
			eb.MaxInterval = p.MaxInterval
		}
		if p.Multiplier > 1 {
			eb.Multiplier = p.Multiplier
		}
		eb.MaxElapsedTime = p.MaxElapsed
		b = eb
	}
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}
