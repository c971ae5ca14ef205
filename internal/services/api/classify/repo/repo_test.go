package repo_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sentimentd/internal/modkit"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/store"
	"sentimentd/internal/services/api/classify/repo"

	"github.com/rs/zerolog"
)

func liteDeps(t *testing.T) modkit.Deps {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Lite: store.LiteConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "history.db")}},
		store.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(ctx) })
	return modkit.Deps{Lite: st.Lite}
}

func TestSQLiteHistory_SaveAndRecent(t *testing.T) {
	ctx := context.Background()
	h, err := repo.Open(ctx, repo.BackendSQLite, liteDeps(t))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	// bootstrap is idempotent
	if err := h.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if err := repo.Ping(ctx, h); err != nil {
		t.Fatalf("ping: %v", err)
	}

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	recs := []repo.Record{
		{ID: "a", BatchID: "b1", UserID: "u1", CreatedAt: base, Document: "great movie", Sentiment: "positive", Score: 0.9},
		{ID: "b", BatchID: "b1", UserID: "u1", CreatedAt: base.Add(time.Second), Document: "awful", Sentiment: "negative", Score: 0.1},
		{ID: "c", BatchID: "b2", UserID: "u2", CreatedAt: base, Document: "meh", Sentiment: "negative", Score: 0.4},
	}
	if err := h.Save(ctx, recs); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := h.Recent(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected order %+v", got)
	}
	if !got[1].CreatedAt.Equal(base) || got[1].Score != 0.9 || got[1].Document != "great movie" {
		t.Fatalf("round trip lost data %+v", got[1])
	}

	got, err = h.Recent(ctx, "u1", 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("limit 1: %+v %v", got, err)
	}
}

func TestSQLiteHistory_SaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	h, err := repo.Open(ctx, repo.BackendSQLite, liteDeps(t))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	now := time.Now()
	err = h.Save(ctx, []repo.Record{
		{ID: "dup", BatchID: "b", UserID: "u", CreatedAt: now, Document: "x", Sentiment: "positive", Score: 1},
		{ID: "dup", BatchID: "b", UserID: "u", CreatedAt: now, Document: "y", Sentiment: "positive", Score: 1},
	})
	if err == nil {
		t.Fatal("expected primary key violation")
	}
	if e, ok := perr.As(err); !ok || e.Field() != "records[1]" {
		t.Fatalf("error should name the record, got %v", err)
	}
	got, _ := h.Recent(ctx, "u", 10)
	if len(got) != 0 {
		t.Fatalf("failed save left %d rows", len(got))
	}
}

type fakeCH struct {
	execs   []string
	table   string
	columns []string
	rows    [][]any
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeCH) Insert(_ context.Context, table string, columns []string, rows [][]any) error {
	f.table, f.columns, f.rows = table, columns, rows
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Close() error                                              { return nil }

func TestCHHistory_SaveBuildsOneBatch(t *testing.T) {
	ctx := context.Background()
	c := &fakeCH{}
	h, err := repo.Open(ctx, repo.BackendCH, modkit.Deps{CH: c})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(c.execs) != 1 || !strings.Contains(c.execs[0], "sentiment_events") {
		t.Fatalf("bootstrap should create the table, got %v", c.execs)
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	err = h.Save(ctx, []repo.Record{
		{ID: "1", BatchID: "b", UserID: "u", CreatedAt: at, Document: "d1", Sentiment: "positive", Score: 0.7},
		{ID: "2", BatchID: "b", UserID: "u", CreatedAt: at, Document: "d2", Sentiment: "negative", Score: 0.2},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.table != "sentiment_events" || len(c.rows) != 2 || len(c.rows[0]) != len(c.columns) {
		t.Fatalf("unexpected batch %s %v %v", c.table, c.columns, c.rows)
	}
	if ts, ok := c.rows[0][3].(time.Time); !ok || ts.Location() != time.UTC {
		t.Fatalf("created_at should be sent as UTC, got %v", c.rows[0][3])
	}
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	h, err := repo.Open(ctx, repo.BackendOff, modkit.Deps{})
	if err != nil || h.Backend() != repo.BackendOff {
		t.Fatalf("off: %v %v", h, err)
	}
	if err := h.Save(ctx, []repo.Record{{ID: "x"}}); err != nil {
		t.Fatalf("off save: %v", err)
	}
	for _, b := range []string{repo.BackendPG, repo.BackendSQLite, repo.BackendCH, "mongo"} {
		if _, err := repo.Open(ctx, b, modkit.Deps{}); !perr.IsConfiguration(err) {
			t.Fatalf("%s without store: expected configuration error, got %v", b, err)
		}
	}
}
