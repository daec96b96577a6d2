// Package retry repeats Instagram requests that failed for transient reasons.
//
// A Config's MaxAttempts is the total number of attempts, so the default of
// 1 makes exactly one request. Network, rate-limit and server errors are
// retried; authentication, not-found and parsing errors are returned
// immediately. Waits between attempts honour context cancellation.
//
//	cfg := &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.NewErrorTypeBackoff(),
//		Logger:      log,
//	}
//	profile, err := retry.DoWithResult(ctx, func(ctx context.Context) (*Profile, error) {
//		return c.fetchProfile(ctx, username)
//	}, cfg)
package retry
