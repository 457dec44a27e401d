// Package retry provides exponential backoff and retry logic for transient
// failures in Kaggle API calls.
//
// Only errors classified as network, rate-limit or server errors by
// kagglefetch/pkg/errors are retried by default. Authentication, not-found and
// extraction failures return immediately.
//
//	cfg := retry.FromConfig(&appCfg.Retry, logger.GetLogger())
//	err := retry.Do(ctx, func() error {
//		return client.download(ctx, url, dest)
//	}, cfg)
//
// Rate-limit errors switch to a slower backoff curve when Config.ByErrorType is
// set; NewErrorTypeBackoff provides the defaults.
package retry
