// Package attachment downloads message attachments with retries and a proxy fallback
package attachment

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"warden/internal/core/platform"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUA        = "warden-attachments"
	defaultMaxRetry  = 3
	defaultRetryBase = time.Second
	defaultMaxBytes  = 1 << 20
)

// Options configures the Fetcher
type Options struct {
	UserAgent string
	Timeout   time.Duration
	MaxRetry  int
	RetryBase time.Duration
	MaxBytes  int64

	// NoRetry disables retries entirely (tests)
	NoRetry bool
}

// Fetcher downloads attachment bodies
type Fetcher struct {
	http *http.Client
	opts Options
	log  zerolog.Logger
}

// New builds a Fetcher on top of a retrying http client
func New(o Options) *Fetcher {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetry <= 0 {
		o.MaxRetry = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = defaultMaxBytes
	}
	log := *logger.Named("attachment")

	rc := retryablehttp.NewClient()
	rc.RetryMax = o.MaxRetry
	if o.NoRetry {
		rc.RetryMax = 0
	}
	rc.RetryWaitMin = o.RetryBase
	rc.RetryWaitMax = 10 * o.RetryBase
	rc.Logger = retryablehttp.LeveledLogger(leveled{log})

	client := rc.StandardClient()
	client.Timeout = o.Timeout
	return &Fetcher{http: client, opts: o, log: log}
}

// Fetch downloads a.URL, falling back to a.ProxyURL when the primary location fails
func (f *Fetcher) Fetch(ctx context.Context, a platform.Attachment) ([]byte, error) {
	if a.Size > 0 && int64(a.Size) > f.opts.MaxBytes {
		return nil, perr.Validationf("attachment %s is %d bytes, limit is %d", a.Filename, a.Size, f.opts.MaxBytes)
	}
	body, err := f.get(ctx, a.URL)
	if err == nil {
		return body, nil
	}
	if a.ProxyURL == "" || a.ProxyURL == a.URL || perr.IsCode(err, perr.ErrorCodeValidation) || ctx.Err() != nil {
		return nil, err
	}
	f.log.Warn().Err(err).Str("file", a.Filename).Msg("attachment url failed, trying proxy")
	return f.get(ctx, a.ProxyURL)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, perr.NotFoundf("attachment has no url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "attachment new request failed")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "attachment download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "attachment download returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "attachment read failed")
	}
	if int64(len(body)) > f.opts.MaxBytes {
		return nil, perr.Validationf("attachment exceeds %d bytes", f.opts.MaxBytes)
	}
	f.log.Debug().Int("bytes", len(body)).Dur("took", time.Since(start)).Msg("attachment fetched")
	return body, nil
}

// leveled adapts zerolog to retryablehttp; client errors are retried so they log as warnings
type leveled struct{ log zerolog.Logger }

func (l leveled) Error(msg string, kv ...interface{}) { l.log.Warn().Fields(kv).Msg(msg) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }
func (l leveled) Info(msg string, kv ...interface{})  { l.log.Debug().Fields(kv).Msg(msg) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.log.Debug().Fields(kv).Msg(msg) }

