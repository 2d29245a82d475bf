// Package repo persists community configs as one JSON document per community
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"warden/internal/core/platform"
	"warden/internal/platform/bind"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
	dom "warden/internal/services/configs/domain"
)

const (
	ext        = ".json"
	nextSuffix = "_next"
	bakSuffix  = ".bak"
)

// Files stores <community>.json documents in one directory
type Files struct {
	dir string
}

// NewFiles returns a file repo rooted at dir
func NewFiles(dir string) *Files {
	if dir == "" {
		dir = "."
	}
	return &Files{dir: dir}
}

var _ dom.FilesPort = (*Files)(nil)

// Dir returns the storage directory
func (f *Files) Dir() string { return f.dir }

// Path is where the live document for community lives
func (f *Files) Path(community platform.ID) string {
	return filepath.Join(f.dir, community.String()+ext)
}

// LoadAll reads every <digits>.json document in the directory.
// A document that fails to read or validate is logged and skipped; only an unreadable directory is an error
func (f *Files) LoadAll(ctx context.Context) (map[platform.ID]dom.CommunityConfig, error) {
	log := logger.C(ctx).With().Str("component", "configs-files").Str("dir", f.dir).Logger()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodePersistence, "read config dir %s", f.dir)
	}

	out := make(map[platform.ID]dom.CommunityConfig, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := communityFromName(e.Name())
		if !ok {
			continue
		}
		cfg, err := f.load(id)
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("skipping community config")
			continue
		}
		out[id] = cfg
	}
	log.Info().Int("communities", len(out)).Msg("community configs loaded")
	return out, nil
}

func (f *Files) load(community platform.ID) (dom.CommunityConfig, error) {
	fh, err := os.Open(f.Path(community))
	if err != nil {
		return dom.CommunityConfig{}, perr.Wrap(err, perr.ErrorCodePersistence, "open config")
	}
	defer fh.Close()
	return bind.DecodeJSON[dom.CommunityConfig](fh)
}

// Save writes cfg next to the live file, keeps the previous live file as .bak, then renames into place
func (f *Files) Save(ctx context.Context, community platform.ID, cfg dom.CommunityConfig) error {
	data, err := encode(cfg)
	if err != nil {
		return err
	}

	live := f.Path(community)
	next := filepath.Join(f.dir, community.String()+nextSuffix+ext)

	if err := os.WriteFile(next, data, 0o644); err != nil {
		return perr.Wrapf(err, perr.ErrorCodePersistence, "write %s", filepath.Base(next))
	}

	prev, err := os.ReadFile(live)
	switch {
	case err == nil:
		if err := os.WriteFile(live+bakSuffix, prev, 0o644); err != nil {
			_ = os.Remove(next)
			return perr.Wrapf(err, perr.ErrorCodePersistence, "write backup for %s", filepath.Base(live))
		}
	case !os.IsNotExist(err):
		_ = os.Remove(next)
		return perr.Wrapf(err, perr.ErrorCodePersistence, "read %s", filepath.Base(live))
	}

	if err := os.Rename(next, live); err != nil {
		_ = os.Remove(next)
		return perr.Wrapf(err, perr.ErrorCodePersistence, "replace %s", filepath.Base(live))
	}
	logger.C(ctx).Debug().Str("file", live).Int("bytes", len(data)).Msg("community config saved")
	return nil
}

// Render encodes cfg exactly the way Save writes it
func Render(cfg dom.CommunityConfig) (*bytes.Reader, error) {
	data, err := encode(cfg)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func encode(cfg dom.CommunityConfig) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode config")
	}
	return append(data, '\n'), nil
}

// communityFromName accepts "<digits>.json" and nothing else
func communityFromName(name string) (platform.ID, bool) {
	base, ok := strings.CutSuffix(name, ext)
	if !ok || base == "" {
		return 0, false
	}
	for _, r := range base {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := platform.ParseID(base)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// CommunityFromFilename exposes the document naming rule to the onboarding flow
func CommunityFromFilename(name string) (platform.ID, bool) { return communityFromName(name) }
