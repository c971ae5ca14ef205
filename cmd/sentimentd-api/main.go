// @title         Sentimentd API
// @version       0.1.0
// @description   Sentiment classification with per user history

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sentimentd/internal/core/version"
	"sentimentd/internal/platform/config"
	"sentimentd/internal/platform/logger"
	phttp "sentimentd/internal/platform/net/http"
	"sentimentd/internal/platform/store"
	"sentimentd/internal/services/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bring up logging early
	lopt := logger.FromEnv()
	if lopt.Service == "" {
		lopt.Service = version.Info().Service
	}
	logger.Init(lopt)
	l := logger.Get()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// open whichever history stores SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and SERVICE_SQLITE_* enable
	st, err := store.Open(ctx, store.FromEnv(root, "sentimentd", "api"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if err := st.Guard(ctx); err != nil {
		l.Fatal().Err(err).Msg("store not reachable")
	}

	// http server (reads CORE_API_PORT and friends)
	srv := phttp.NewServer(apiCfg)

	if err := api.Mount(ctx, srv.Router(), api.OptionsFromConfig(root, st)); err != nil {
		l.Fatal().Err(err).Msg("api mount failed")
	}

	v := version.Info()
	l.Info().Str("version", v.Version).Str("commit", v.Commit).Msg("sentimentd starting")

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
		return
	}
	l.Info().Msg("bye")
}
