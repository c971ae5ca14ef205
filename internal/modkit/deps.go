// Package modkit provides module wiring and core deps
package modkit

import (
	"sentimentd/internal/modkit/repokit"
	"sentimentd/internal/platform/config"
	"sentimentd/internal/platform/logger"
	"sentimentd/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// every store seam is optional; modules nil check the one they need
type Deps struct {
	Log  logger.Logger
	Cfg  config.Conf
	PG   repokit.TxRunner
	CH   store.Clickhouse
	Lite repokit.TxRunner
}

// FromStore copies the opened backends of st into a Deps
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG, d.CH, d.Lite = st.PG, st.CH, st.Lite
	}
	return d
}
