package store

import (
	"time"

	"sentimentd/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string
	Role    string

	PG   PGConfig
	CH   CHConfig
	Lite LiteConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string

	// ClientName and ClientTag end up in system.query_log client info
	ClientName string
	ClientTag  string
}

// LiteConfig configures the embedded sqlite database
type LiteConfig struct {
	Enabled bool
	Path    string
	// BusyTimeout bounds how long a writer waits on a locked database
	BusyTimeout time.Duration
}

// FromEnv reads SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and SERVICE_SQLITE_* from root
// each backend is enabled when its URL or path is set
func FromEnv(root config.Conf, appName, role string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")
	lite := root.Prefix("SERVICE_SQLITE_")

	cfg := Config{
		AppName: appName,
		Role:    role,
		PG: PGConfig{
			URL:            pg.MayString("URL", ""),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 8)),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 250),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			URL:        ch.MayString("URL", ""),
			ClientName: appName,
			ClientTag:  ch.MayString("CLIENT_TAG", role),
		},
		Lite: LiteConfig{
			Path:        lite.MayString("PATH", ""),
			BusyTimeout: lite.MayDuration("BUSY_TIMEOUT", 5*time.Second),
		},
	}
	cfg.PG.Enabled = cfg.PG.URL != ""
	cfg.CH.Enabled = cfg.CH.URL != ""
	cfg.Lite.Enabled = cfg.Lite.Path != ""
	return cfg
}
