// Package api provides the HTTP API for the application
package api

import (
	"context"
	"time"

	"sentimentd/internal/modkit"
	"sentimentd/internal/modkit/httpkit"
	"sentimentd/internal/modkit/module"
	"sentimentd/internal/modkit/swaggerkit"
	"sentimentd/internal/platform/config"
	"sentimentd/internal/platform/logger"
	phttp "sentimentd/internal/platform/net/http"
	"sentimentd/internal/platform/net/middleware"
	"sentimentd/internal/platform/store"
	classifymod "sentimentd/internal/services/api/classify/module"
	metahttp "sentimentd/internal/services/api/meta/http"
	metamod "sentimentd/internal/services/api/meta/module"
)

// Options are the API options
type Options struct {
	// Config is the root config; modules pick their own prefixes
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
	Stack          httpkit.StackOptions
}

// OptionsFromConfig reads CORE_API_* from root
func OptionsFromConfig(root config.Conf, st *store.Store) Options {
	ac := root.Prefix("CORE_API_")
	return Options{
		Config:         root,
		Store:          st,
		Logger:         logger.Get(),
		EnableSwagger:  ac.MayBool("SWAGGER", true),
		EnableProfiler: ac.MayBool("PROFILER", false),
		EnableMetrics:  ac.MayBool("METRICS", true),
		Stack: httpkit.StackOptions{
			Timeout:     ac.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
			SlowRequest: ac.MayDuration("SLOW_REQUEST", time.Second),
			MaxInFlight: ac.MayInt("MAX_INFLIGHT", 0),
			Backlog:     ac.MayInt("BACKLOG", 0),
			CORSOrigins: ac.MayCSV("CORS_ORIGINS", nil),
		},
	}
}

// Mount builds the modules and mounts them onto r
// classify is built first so meta can report its readiness checks and model
func Mount(ctx context.Context, r phttp.Router, opt Options) error {
	log := opt.Logger
	if log == nil {
		log = logger.Get()
	}
	deps := modkit.FromStore(*log, opt.Config, opt.Store)

	copt, err := classifymod.FromConfig(opt.Config)
	if err != nil {
		return err
	}
	classify, err := classifymod.New(ctx, deps, copt)
	if err != nil {
		return err
	}

	cports := module.MustPortsOf[classifymod.Ports](classify)
	checks := make([]metahttp.Check, 0, len(cports.Checks))
	for _, c := range cports.Checks {
		checks = append(checks, metahttp.Check{Name: c.Name, Ping: c.Ping})
	}
	meta := metamod.New(deps, modkit.WithPorts(metamod.Ports{
		Checks: checks,
		Model:  cports.Service.Model,
	}))

	mods := []module.Module{meta, classify}

	// probes answer before routing and never see the scoped stack
	r.Use(middleware.Heartbeat("/healthz"))
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	phttp.MountMetrics(r, "/metrics", opt.EnableMetrics)

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Stack), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	log.Info().Strs("modules", []string{meta.Name(), classify.Name()}).Msg("api mounted")
	return nil
}
