package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"sentimentd/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack; zero values pick the defaults
type StackOptions struct {
	// Timeout bounds each request, default 30s
	Timeout time.Duration
	// SlowRequest logs requests at warn from this duration, default 1s
	SlowRequest time.Duration
	// MaxInFlight caps concurrent requests, 0 disables
	MaxInFlight int
	// Backlog is how many requests may wait for a slot
	Backlog int
	// CORSOrigins defaults to *
	CORSOrigins []string
}

// CommonStack returns the baseline per scope middleware slice
// probes like Heartbeat belong on the root router, a scoped stack never sees /health
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.SlowRequest <= 0 {
		o.SlowRequest = time.Second
	}
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RequestContext,

		// safety
		middleware.RecoverJSON,
		middleware.ThrottleBacklog(o.MaxInFlight, o.Backlog, o.Timeout),

		// observability
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.SlowRequest}),

		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}
