package module

import (
	"time"

	"warden/internal/platform/config"
)

// Options controls where configs live and how uploads are fetched
type Options struct {
	Dir            string
	FetchTimeout   time.Duration
	FetchRetries   int
	UploadMaxBytes int64
}

// FromConfig reads WARDEN_ keys
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("WARDEN_")
	return Options{
		Dir:            c.MayString("CONFIGS_PATH", "."),
		FetchTimeout:   c.MayDuration("ATTACHMENT_TIMEOUT", 20*time.Second),
		FetchRetries:   c.MayInt("ATTACHMENT_RETRIES", 3),
		UploadMaxBytes: int64(c.MayInt("ATTACHMENT_MAX_BYTES", 1<<20)),
	}
}
