package pg

import (
	"context"
	"strings"

	"sentimentd/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives every statement the adapters run
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements at debug and slow or failed ones at warn
// the child logger is pinned to debug so SERVICE_PGSQL_LOG_SQL works regardless of LOG_LEVEL
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	if ev.Slow || ev.Err != nil {
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", Compact(ev.SQL)).
		Err(ev.Err).
		Msg("pg query")
}

// Compact collapses whitespace runs so multi line SQL logs on one line
func Compact(s string) string { return strings.Join(strings.Fields(s), " ") }

// Verb returns the lower cased first keyword of s, a bounded metric label
func Verb(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return "unknown"
	}
	switch v := strings.ToLower(f[0]); v {
	case "select", "insert", "update", "delete", "create", "with", "begin", "commit", "rollback":
		return v
	}
	return "other"
}
