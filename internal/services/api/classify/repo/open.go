package repo

import (
	"context"

	"sentimentd/internal/modkit"
	perr "sentimentd/internal/platform/errors"
)

// Open picks the history backend named by backend from the opened stores and bootstraps its schema
// a backend whose store is not configured is a configuration error
func Open(ctx context.Context, backend string, deps modkit.Deps) (History, error) {
	var h History
	switch backend {
	case BackendOff, "":
		return Off(), nil
	case BackendPG:
		if deps.PG == nil {
			return nil, perr.Configurationf("history backend pg needs SERVICE_PGSQL_URL")
		}
		h = NewPGHistory(deps.PG)
	case BackendSQLite:
		if deps.Lite == nil {
			return nil, perr.Configurationf("history backend sqlite needs SERVICE_SQLITE_PATH")
		}
		h = NewSQLiteHistory(deps.Lite)
	case BackendCH:
		if deps.CH == nil {
			return nil, perr.Configurationf("history backend ch needs SERVICE_CLICKHOUSE_URL")
		}
		h = NewCHHistory(deps.CH)
	default:
		return nil, perr.Configurationf("unknown history backend %q", backend)
	}
	if err := h.Bootstrap(ctx); err != nil {
		return nil, err
	}
	return h, nil
}
