// Package kaggle provides a client for the public Kaggle REST API.
//
// This package includes:
//   - A Client using HTTP basic auth with the account's username and API key
//   - Streamed archive downloads written atomically through pkg/storage
//   - Retry of transient failures (network errors, 429, 5xx) via pkg/retry
//   - Request throttling via pkg/ratelimit
//   - Typed models for competitions, notebooks and notebook pulls
//   - Helpers for building endpoint URLs and parsing owner/slug references
//
// Example usage:
//
//	client, err := kaggle.NewClient(kaggle.Credentials{Username: "alice", Key: key}, 30*time.Minute, log,
//	    kaggle.WithLimiter(ratelimit.New("sliding_window", 60)),
//	    kaggle.WithRetry(retry.FromConfig(&cfg.Retry, log)),
//	)
//
//	dest, _ := storage.NewManager("data/raw")
//	name, size, err := client.DownloadCompetition(ctx, "titanic", dest)
//	if errors.HasType(err, errors.ErrorTypeAuthentication) {
//	    // accept the competition rules or check the API key
//	}
package kaggle
