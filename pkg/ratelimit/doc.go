// Package ratelimit provides rate limiting and pacing for storefront traffic.
//
// This package implements multiple algorithms to keep request cadence below
// the storefront's anti-bot thresholds.
//
// Available Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Suitable for burst traffic followed by quiet periods
//   - Default implementation used by the media fetcher
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - More accurate rate limiting over time
//   - Better for consistent request patterns
//
// Random Pacer:
//   - Uniform random pauses drawn from a [min, max] range
//   - Used between scroll iterations so browser interactions never
//     repeat on a fixed interval
//
// Interface:
//
// The bucket and window limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Token bucket: 50 requests per hour
//	limiter := ratelimit.NewTokenBucket(50, time.Hour)
//
//	if limiter.Allow() {
//	    // Proceed with request
//	} else {
//	    // Wait for rate limit to reset
//	    limiter.Wait()
//	}
//
//	// Sliding window: 100 requests per 15 minutes
//	limiter := ratelimit.NewSlidingWindow(100, 15*time.Minute)
//
//	// Block until allowed
//	limiter.Wait()
//	// Proceed with request
//
//	// Random pacing between scroll iterations
//	pacer := ratelimit.NewRandomPacer(500*time.Millisecond, 1500*time.Millisecond)
//	if err := pacer.Sleep(ctx); err != nil {
//	    return err // context cancelled
//	}
package ratelimit
