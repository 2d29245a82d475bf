package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"warden/internal/adapters/discord"
	"warden/internal/core/version"
	"warden/internal/modkit"
	"warden/internal/modkit/module"
	"warden/internal/platform/config"
	"warden/internal/platform/logger"
	phttp "warden/internal/platform/net/http"
	"warden/internal/platform/net/middleware"

	cfgmod "warden/internal/services/configs/module"
	dispatchmod "warden/internal/services/dispatch/module"
	dispatchsvc "warden/internal/services/dispatch/service"
	evictmod "warden/internal/services/eviction/module"
	opsmod "warden/internal/services/ops/module"
	rolesmod "warden/internal/services/roles/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fConfigs = flag.String("configs", "", "directory holding <community id>.json files (default WARDEN_CONFIGS_PATH or .)")
		fOps     = flag.String("ops", "", "ops http listen address (default OPS_ADDR or :4000)")
		fVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *fVersion {
		bi := version.Info()
		fmt.Printf("%s %s (%s, %s)\n", bi.Service, bi.Version, bi.Commit, bi.GoVersion)
		return
	}

	// flags win over env; modules read through FromConfig
	mustSetEnv("WARDEN_CONFIGS_PATH", *fConfigs)
	mustSetEnv("OPS_ADDR", *fOps)

	// modules read their own prefixes (WARDEN_, EVICTION_, DISPATCH_, OPS_)
	root := config.New()
	botCfg := root.Prefix("WARDEN_")

	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := discord.New(discord.Options{
		Token:      botCfg.StringOrFile("TOKEN", "TOKEN_FILE", "warden_token.key"),
		EventQueue: botCfg.MayInt("EVENT_QUEUE", 256),
	})
	if err != nil {
		l.Panic().Err(err).Msg("discord client")
	}
	if err := client.Open(ctx); err != nil {
		l.Panic().Err(err).Msg("discord open failed")
	}
	defer func() {
		if err := client.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close discord session")
		}
	}()

	deps := modkit.Deps{
		Log:      *l,
		Cfg:      root,
		Platform: client,
	}

	configs := cfgmod.New(deps, cfgmod.Options{})
	n, err := configs.Load(ctx)
	if err != nil {
		l.Panic().Err(err).Msg("load community configs")
	}
	l.Info().Int("communities", n).Msg("community configs loaded")
	cfgPorts := module.MustPortsOf[cfgmod.Ports](configs)

	eviction := evictmod.New(deps, cfgPorts.Store, evictmod.Options{})
	evPorts := module.MustPortsOf[evictmod.Ports](eviction)

	roles := rolesmod.New(deps)
	rolePorts := module.MustPortsOf[rolesmod.Ports](roles)

	dispatch := dispatchmod.New(deps, dispatchsvc.Ports{
		Configs: cfgPorts.Store,
		Admin:   cfgPorts.Admin,
		Roles:   rolePorts.Transitions,
		Evictor: evPorts.Evictor,
	}, dispatchmod.Options{})
	dPorts := module.MustPortsOf[dispatchmod.Ports](dispatch)

	ops := opsmod.New(deps, cfgPorts.Store, evPorts.Runs)

	mods := []module.Module{configs, eviction, roles, dispatch, ops}
	srv := phttp.NewServer(root, func(m *chi.Mux) {
		m.Use(middleware.AccessLog(middleware.AccessLogOptions{Quiet: []string{"/healthz", "/metrics"}}))
	})
	for _, m := range mods {
		module.Register(m.Name(), m.Ports())
		m.MountRoutes(srv.Router())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dPorts.Dispatcher.Run(gctx, client.Events()) })
	g.Go(func() error { return evPorts.Scheduler.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	l.Info().Str("version", version.Info().Version).Uint64("bot_id", uint64(client.Self())).Msg("warden running")
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		l.Error().Err(err).Msg("warden stopped")
		return
	}
	l.Info().Msg("warden stopped")
}
