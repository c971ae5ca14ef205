// Package repo persists prediction history to postgres, sqlite or clickhouse
package repo

import (
	"context"
	"time"

	"sentimentd/internal/modkit/repokit"
)

// Backends accepted by the HISTORY option
const (
	BackendPG     = "pg"
	BackendCH     = "ch"
	BackendSQLite = "sqlite"
	BackendOff    = "off"
)

// Backends lists every history backend
func Backends() []string { return []string{BackendPG, BackendCH, BackendSQLite, BackendOff} }

// DefaultLimit and MaxLimit bound history reads
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Record is one classified item
type Record struct {
	ID        string
	BatchID   string
	UserID    string
	CreatedAt time.Time
	Document  string
	Sentiment string
	Score     float64
}

// History stores and lists prediction records
type History interface {
	// Backend names the storage, one of Backends
	Backend() string
	// Bootstrap creates the table when it is missing
	Bootstrap(ctx context.Context) error
	// Save writes recs atomically where the backend allows it
	Save(ctx context.Context, recs []Record) error
	// Recent lists a user's newest records first
	Recent(ctx context.Context, userID string, limit int) ([]Record, error)
}

// Ping probes the backing store when it can be probed
func Ping(ctx context.Context, h History) error {
	if p, ok := h.(repokit.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

type off struct{}

// Off discards writes and lists nothing
func Off() History { return off{} }

func (off) Backend() string                                       { return BackendOff }
func (off) Bootstrap(context.Context) error                       { return nil }
func (off) Save(context.Context, []Record) error                  { return nil }
func (off) Recent(context.Context, string, int) ([]Record, error) { return nil, nil }
