package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"retail-sales-lab/internal/observability"
)

// Default download settings.
const (
	DefaultFetchTimeout    = 30 * time.Second
	DefaultMaxRetryElapsed = 2 * time.Minute
	DefaultMaxBodyBytes    = 256 << 20
	defaultInitialInterval = 500 * time.Millisecond
)

// HTTPStatusError is a non-200 response from the dataset server.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// retryable reports whether the status may succeed on a later attempt.
func (e *HTTPStatusError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// BodyTooLargeError is a response body over the configured limit.
type BodyTooLargeError struct {
	URL   string
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("GET %s: body exceeds %d bytes", e.URL, e.Limit)
}

// FetchOptions configures dataset downloads. Zero values select defaults.
type FetchOptions struct {
	Timeout         time.Duration // per attempt
	MaxRetryElapsed time.Duration // total retry budget; 0 means default
	InitialInterval time.Duration // first backoff delay
	MaxBodyBytes    int64         // response size limit
	Client          *http.Client
	Logger          *zerolog.Logger
}

// Fetcher downloads datasets over HTTP with exponential backoff.
// Network errors, 5xx and 429 are retried; other statuses fail immediately.
type Fetcher struct {
	client          *http.Client
	maxElapsed      time.Duration
	initialInterval time.Duration
	maxBodyBytes    int64
	logger          zerolog.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.MaxRetryElapsed <= 0 {
		opts.MaxRetryElapsed = DefaultMaxRetryElapsed
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = defaultInitialInterval
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Fetcher{
		client:          client,
		maxElapsed:      opts.MaxRetryElapsed,
		initialInterval: opts.InitialInterval,
		maxBodyBytes:    opts.MaxBodyBytes,
		logger:          logger,
	}
}

// Fetch downloads url and returns the response body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
			if statusErr.retryable() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if resp.ContentLength > f.maxBodyBytes {
			return backoff.Permanent(&BodyTooLargeError{URL: url, Limit: f.maxBodyBytes})
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
		if err != nil {
			return err
		}
		if int64(len(data)) > f.maxBodyBytes {
			return backoff.Permanent(&BodyTooLargeError{URL: url, Limit: f.maxBodyBytes})
		}
		body = data
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = f.initialInterval
	strategy.MaxElapsedTime = f.maxElapsed

	notify := func(err error, delay time.Duration) {
		observability.RecordDownloadRetry()
		f.logger.Warn().Err(err).Str("url", url).Dur("retry_in", delay).Msg("dataset download failed, retrying")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(strategy, ctx), notify); err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	f.logger.Debug().Str("url", url).Int("bytes", len(body)).Msg("dataset downloaded")
	return body, nil
}
