package repo

import (
	"context"
	"fmt"
	"time"

	"sentimentd/internal/modkit/repokit"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/store"
)

// Repo is the per statement surface bound to a connection or transaction
type Repo interface {
	Insert(ctx context.Context, r Record) error
	Recent(ctx context.Context, userID string, limit int) ([]Record, error)
}

type (
	// PG binds the postgres dialect
	PG struct{}

	// SQLite binds the sqlite dialect; created_at is stored as unix milliseconds
	SQLite struct{}

	pgQueries   struct{ q repokit.Queryer }
	liteQueries struct{ q repokit.Queryer }
)

// NewPG returns the postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// NewSQLite returns the sqlite repository binder
func NewSQLite() repokit.Binder[Repo] { return SQLite{} }

// Bind binds a postgres queryer
func (PG) Bind(q repokit.Queryer) Repo { return &pgQueries{q: q} }

// Bind binds a sqlite queryer
func (SQLite) Bind(q repokit.Queryer) Repo { return &liteQueries{q: q} }

// pgStatementTimeout bounds each statement of a history transaction
const pgStatementTimeout = 5 * time.Second

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS sentiment_analysis (
	id uuid PRIMARY KEY,
	batch_id text NOT NULL,
	user_id text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL DEFAULT now(),
	document text NOT NULL,
	sentiment text NOT NULL,
	score double precision NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS sentiment_analysis_user_created_idx ON sentiment_analysis (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS sentiment_analysis_batch_idx ON sentiment_analysis (batch_id)`,
}

var liteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sentiment_analysis (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	document TEXT NOT NULL,
	sentiment TEXT NOT NULL,
	score REAL NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS sentiment_analysis_user_created_idx ON sentiment_analysis (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS sentiment_analysis_batch_idx ON sentiment_analysis (batch_id)`,
}

func (r *pgQueries) Insert(ctx context.Context, rec Record) error {
	const sql = `
insert into sentiment_analysis (id, batch_id, user_id, created_at, document, sentiment, score)
values ($1::uuid, $2, $3, $4, $5, $6, $7)
`
	_, err := r.q.Exec(ctx, sql, rec.ID, rec.BatchID, rec.UserID, rec.CreatedAt, rec.Document, rec.Sentiment, rec.Score)
	return perr.FromPostgres(err, "insert prediction")
}

func (r *pgQueries) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	const sql = `
select id::text, batch_id, user_id, created_at, document, sentiment, score
from sentiment_analysis
where user_id = $1
order by created_at desc, id
limit $2
`
	out, err := store.Many(ctx, r.q, func(row store.Row) (Record, error) {
		var rec Record
		err := row.Scan(&rec.ID, &rec.BatchID, &rec.UserID, &rec.CreatedAt, &rec.Document, &rec.Sentiment, &rec.Score)
		return rec, err
	}, sql, userID, clampLimit(limit))
	return out, perr.FromPostgres(err, "list predictions")
}

func (r *liteQueries) Insert(ctx context.Context, rec Record) error {
	const sql = `
INSERT INTO sentiment_analysis (id, batch_id, user_id, created_at, document, sentiment, score)
VALUES (?, ?, ?, ?, ?, ?, ?)
`
	_, err := r.q.Exec(ctx, sql, rec.ID, rec.BatchID, rec.UserID, rec.CreatedAt.UnixMilli(), rec.Document, rec.Sentiment, rec.Score)
	return perr.WrapIf(err, perr.ErrorCodeDB, "insert prediction")
}

func (r *liteQueries) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	const sql = `
SELECT id, batch_id, user_id, created_at, document, sentiment, score
FROM sentiment_analysis
WHERE user_id = ?
ORDER BY created_at DESC, id
LIMIT ?
`
	out, err := store.Many(ctx, r.q, func(row store.Row) (Record, error) {
		var (
			rec Record
			ms  int64
		)
		err := row.Scan(&rec.ID, &rec.BatchID, &rec.UserID, &ms, &rec.Document, &rec.Sentiment, &rec.Score)
		rec.CreatedAt = time.UnixMilli(ms).UTC()
		return rec, err
	}, sql, userID, clampLimit(limit))
	return out, perr.WrapIf(err, perr.ErrorCodeDB, "list predictions")
}

// sqlHistory runs a bound Repo inside transactions on db
type sqlHistory struct {
	backend string
	db      repokit.TxRunner
	binder  repokit.Binder[Repo]
	schema  []string
}

// NewPGHistory stores history in postgres
// every transaction bounds its statements with pgStatementTimeout
func NewPGHistory(db repokit.TxRunner) History {
	db = repokit.WithBeginHooks(db, repokit.StatementTimeout(pgStatementTimeout))
	return &sqlHistory{backend: BackendPG, db: db, binder: NewPG(), schema: pgSchema}
}

// NewSQLiteHistory stores history in an embedded sqlite file
func NewSQLiteHistory(db repokit.TxRunner) History {
	return &sqlHistory{backend: BackendSQLite, db: db, binder: NewSQLite(), schema: liteSchema}
}

func (h *sqlHistory) Backend() string { return h.backend }

func (h *sqlHistory) Bootstrap(ctx context.Context) error {
	if err := store.ExecAll(ctx, h.db, h.schema...); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "bootstrap %s history schema", h.backend)
	}
	return nil
}

func (h *sqlHistory) Save(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	return repokit.WithTx(ctx, h.db, func(q repokit.Queryer) error {
		r := h.binder.Bind(q)
		for i, rec := range recs {
			if err := r.Insert(ctx, rec); err != nil {
				return perr.WithField(err, fmt.Sprintf("records[%d]", i))
			}
		}
		return nil
	})
}

func (h *sqlHistory) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	return repokit.MustBind(h.binder, h.db).Recent(ctx, userID, limit)
}

func (h *sqlHistory) Ping(ctx context.Context) error {
	return repokit.Ping(ctx, h.backend, pinger(h.db))
}

func pinger(v any) repokit.Pinger {
	if p, ok := v.(repokit.Pinger); ok {
		return p
	}
	return nil
}
