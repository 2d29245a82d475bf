// Package module wires the community config store and admin flow and exposes its ports
package module

import (
	"context"

	"warden/internal/adapters/attachment"
	"warden/internal/modkit"
	phttp "warden/internal/platform/net/http"
	dom "warden/internal/services/configs/domain"
	"warden/internal/services/configs/repo"
	"warden/internal/services/configs/service"
)

// Module defines the configs module
type Module struct {
	deps  modkit.Deps
	opts  Options
	store *service.Store
	files *repo.Files
	ports Ports
}

// New constructs the configs module; call Load before serving events
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.Dir != "" {
		opts.Dir = overrides.Dir
	}
	if overrides.FetchTimeout != 0 {
		opts.FetchTimeout = overrides.FetchTimeout
	}
	if overrides.FetchRetries != 0 {
		opts.FetchRetries = overrides.FetchRetries
	}
	if overrides.UploadMaxBytes != 0 {
		opts.UploadMaxBytes = overrides.UploadMaxBytes
	}

	return NewWith(deps, opts, attachment.New(attachment.Options{
		Timeout:  opts.FetchTimeout,
		MaxRetry: opts.FetchRetries,
		MaxBytes: opts.UploadMaxBytes,
	}))
}

// NewWith constructs the module around a caller-supplied attachment fetcher
func NewWith(deps modkit.Deps, opts Options, fetch dom.Fetcher) *Module {
	store := service.NewStore()
	files := repo.NewFiles(opts.Dir)
	m := &Module{deps: deps, opts: opts, store: store, files: files}
	m.ports = Ports{
		Store: store,
		Admin: service.NewAdmin(store, files, fetch, deps.Platform),
	}
	return m
}

// Load seeds the store from the config directory and returns how many communities were loaded
func (m *Module) Load(ctx context.Context) (int, error) {
	all, err := m.files.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return m.store.Seed(all), nil
}

// Ports returns the module ports (Store, Admin)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "configs" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}
