// Package ratelimit throttles requests sent to the Kaggle API.
//
// Two algorithms are available behind the Limiter interface:
//
// Sliding window tracks request timestamps within a moving window and is the
// default. Token bucket refills a fixed capacity once per period and tolerates
// short bursts.
//
// Usage:
//
//	limiter := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // context cancelled
//	}
package ratelimit
