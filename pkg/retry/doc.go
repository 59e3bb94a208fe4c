// Package retry provides backoff and retry logic for handling transient
// failures, particularly login-wall redirects during storefront page tasks.
//
// Features:
//   - Multiple backoff strategies (exponential, linear, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the scraper error taxonomy
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return store.Append(records)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
//	// Redirect-specific retrier for login-wall recovery
//	retrier := retry.NewRedirectRetrier(3, logger.GetLogger())
//	err := retrier.Do(func() error {
//		return crawler.RunPageTask(ctx, keyword, page)
//	})
//
// Error Type Handling:
//
// Only anti-bot redirect errors are machine-retryable: the page task is
// discarded and re-run from navigation with long, heavily jittered delays.
// Extraction corruption resolves through snapshot fallback, captcha
// challenges wait for a human, and media failures are recorded and skipped,
// so none of those are retried here.
package retry
