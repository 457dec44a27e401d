package kaggle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	errs "kagglefetch/pkg/errors"
	"kagglefetch/pkg/logger"
	"kagglefetch/pkg/ratelimit"
	"kagglefetch/pkg/retry"
	"kagglefetch/pkg/storage"
)

// DefaultUserAgent identifies the client to Kaggle
const DefaultUserAgent = "kagglefetch/1.0"

// Progress observes a streamed download
type Progress interface {
	Wrap(r io.Reader) io.Reader
	Finish()
}

// ProgressFactory starts progress reporting for one transfer. total is -1 when unknown.
type ProgressFactory func(name string, total int64) Progress

// Client talks to the Kaggle REST API with HTTP basic auth
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	creds      Credentials
	limiter    ratelimit.Limiter
	retry      *retry.Config
	progress   ProgressFactory
	logger     logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another API root
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.headers["User-Agent"] = ua
		}
	}
}

// WithLimiter throttles every request through l
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetry sets the retry policy for transient failures
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithProgress reports download progress through f
func WithProgress(f ProgressFactory) Option {
	return func(c *Client) { c.progress = f }
}

// NewClient creates a client for the given account
func NewClient(creds Credentials, timeout time.Duration, log logger.Logger, opts ...Option) (*Client, error) {
	if creds.Username == "" || creds.Key == "" {
		return nil, errs.New(errs.ErrorTypeAuthentication, "kaggle.NewClient", "username and key are required")
	}

	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": DefaultUserAgent,
			"Accept":     "application/json",
		},
		baseURL: BaseURL,
		creds:   creds,
		logger:  log,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.retry == nil {
		c.retry = retry.DefaultConfig()
		c.retry.Logger = log
	}

	return c, nil
}

// Username returns the account the client authenticates as
func (c *Client) Username() string {
	return c.creds.Username
}

// Authenticate performs a cheap authenticated request to validate the account
func (c *Client) Authenticate(ctx context.Context) error {
	const op = "kaggle.Authenticate"

	var competitions []Competition
	err := c.getJSON(ctx, op, GetCompetitionsListURL(c.baseURL, CompetitionListOptions{Page: 1}), &competitions)
	if err != nil {
		if errs.HasType(err, errs.ErrorTypeAuthentication) {
			return err
		}
		return errs.Wrapf(errs.ErrorTypeAuthentication, op, err, "could not verify credentials for %s", c.creds.Username)
	}

	c.logger.DebugWithFields("credentials verified", map[string]interface{}{
		"username": c.creds.Username,
	})
	return nil
}

// ListCompetitions returns one page of competitions in service order
func (c *Client) ListCompetitions(ctx context.Context, opts CompetitionListOptions) ([]Competition, error) {
	var competitions []Competition
	if err := c.getJSON(ctx, "kaggle.ListCompetitions", GetCompetitionsListURL(c.baseURL, opts), &competitions); err != nil {
		return nil, err
	}
	return competitions, nil
}

// ListKernels returns one page of notebooks in service order
func (c *Client) ListKernels(ctx context.Context, opts KernelListOptions) ([]Kernel, error) {
	var kernels []Kernel
	if err := c.getJSON(ctx, "kaggle.ListKernels", GetKernelsListURL(c.baseURL, opts), &kernels); err != nil {
		return nil, err
	}
	return kernels, nil
}

// PullKernel fetches a notebook's source and metadata
func (c *Client) PullKernel(ctx context.Context, ref KernelRef) (*KernelPull, error) {
	var pull KernelPull
	if err := c.getJSON(ctx, "kaggle.PullKernel", GetKernelPullURL(c.baseURL, ref), &pull); err != nil {
		return nil, err
	}
	return &pull, nil
}

// DownloadCompetition saves the competition's full archive as <name>.zip in dest
func (c *Client) DownloadCompetition(ctx context.Context, name string, dest *storage.Manager) (string, int64, error) {
	filename := name + ".zip"
	n, err := c.transfer(ctx, "kaggle.DownloadCompetition", GetCompetitionDownloadURL(c.baseURL, name), dest,
		func(*http.Response) string { return filename })
	return filename, n, err
}

// DownloadDataset saves the dataset archive in dest. The file name comes from
// the response when Kaggle provides one, else <slug>.zip.
func (c *Client) DownloadDataset(ctx context.Context, ref DatasetRef, dest *storage.Manager) (string, int64, error) {
	filename := ref.Slug + ".zip"
	n, err := c.transfer(ctx, "kaggle.DownloadDataset", GetDatasetDownloadURL(c.baseURL, ref), dest,
		func(resp *http.Response) string {
			filename = filenameFromResponse(resp, filename)
			return filename
		})
	return filename, n, err
}

// transfer streams one response body to dest, retrying transient failures.
// name picks the destination file once the response headers are known.
func (c *Client) transfer(ctx context.Context, op, url string, dest *storage.Manager, name func(*http.Response) string) (int64, error) {
	return retry.DoWithResult(ctx, func() (int64, error) {
		resp, err := c.get(ctx, op, url, "application/octet-stream")
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(op, url, resp); err != nil {
			return 0, err
		}

		filename := name(resp)
		var body io.Reader = resp.Body
		if c.progress != nil {
			bar := c.progress(filename, resp.ContentLength)
			defer bar.Finish()
			body = bar.Wrap(body)
		}

		start := time.Now()
		written, err := dest.Save(body, filename)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			return written, errs.Wrapf(errs.ErrorTypeNetwork, op, err, "interrupted after %d bytes", written)
		}

		c.logger.DebugWithFields("download stored", map[string]interface{}{
			"file":     dest.Path(filename),
			"bytes":    written,
			"duration": time.Since(start),
		})
		return written, nil
	}, c.retry)
}

// getJSON performs a GET request with retry and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, op, url string, target interface{}) error {
	return retry.Do(ctx, func() error {
		resp, err := c.get(ctx, op, url, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(op, url, resp); err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.Wrapf(errs.ErrorTypeNetwork, op, err, "failed to read response body")
		}

		if err := json.Unmarshal(body, target); err != nil {
			bodyPreview := string(body)
			if len(bodyPreview) > 200 {
				bodyPreview = bodyPreview[:200] + "..."
			}

			c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
				"url":          url,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": bodyPreview,
			})
			return &errs.Error{Type: errs.ErrorTypeParsing, Op: op, Message: "failed to parse JSON", Code: resp.StatusCode, Err: err}
		}
		return nil
	}, c.retry)
}

// get sends one authenticated GET request after waiting on the rate limiter
func (c *Client) get(ctx context.Context, op, url, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrorTypeUnknown, op, err, "failed to create request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", accept)
	req.SetBasicAuth(c.creds.Username, c.creds.Key)

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errs.Wrapf(errs.ErrorTypeNetwork, op, err, "request failed")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))
	return resp, nil
}

// checkResponseStatus maps non-2xx responses to classified errors
func (c *Client) checkResponseStatus(op, url string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := http.StatusText(resp.StatusCode)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	e := errs.FromStatus(op, resp.StatusCode, message)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    url,
		"type":   string(e.Type),
	}
	if e.Type == errs.ErrorTypeServerError {
		c.logger.ErrorWithFields("server error", fields)
	} else {
		c.logger.WarnWithFields("API request rejected", fields)
	}
	return e
}

// filenameFromResponse prefers a zip name from Content-Disposition, else the
// last path segment of the final URL if it is a zip, else fallback
func filenameFromResponse(resp *http.Response, fallback string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := path.Base(params["filename"]); strings.HasSuffix(strings.ToLower(name), ".zip") && name != "." && name != "/" {
				return name
			}
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if name := path.Base(resp.Request.URL.Path); strings.HasSuffix(strings.ToLower(name), ".zip") {
			return name
		}
	}
	return fallback
}

// String describes the client for logs without exposing the key
func (c *Client) String() string {
	return fmt.Sprintf("kaggle.Client{user=%s base=%s}", c.creds.Username, c.baseURL)
}
