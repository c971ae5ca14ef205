package repo

import (
	"context"
	"fmt"

	"sentimentd/internal/modkit/repokit"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/store"
)

const chTable = "sentiment_events"

var chColumns = []string{"id", "batch_id", "user_id", "created_at", "document", "sentiment", "score"}

const chSchema = `
CREATE TABLE IF NOT EXISTS sentiment_events (
	id String,
	batch_id String,
	user_id String,
	created_at DateTime64(3, 'UTC'),
	document String,
	sentiment LowCardinality(String),
	score Float64
)
ENGINE = MergeTree
ORDER BY (user_id, created_at)
`

type chHistory struct {
	c store.Clickhouse
}

// NewCHHistory appends history to a clickhouse MergeTree table in one native batch per call
func NewCHHistory(c store.Clickhouse) History { return &chHistory{c: c} }

func (h *chHistory) Backend() string { return BackendCH }

func (h *chHistory) Bootstrap(ctx context.Context) error {
	return perr.WrapIf(h.c.Exec(ctx, chSchema), perr.ErrorCodeDB, "bootstrap ch history schema")
}

func (h *chHistory) Save(ctx context.Context, recs []Record) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.ID, r.BatchID, r.UserID, r.CreatedAt.UTC(), r.Document, r.Sentiment, r.Score}
	}
	return perr.WrapIf(h.c.Insert(ctx, chTable, chColumns, rows), perr.ErrorCodeDB, "insert predictions")
}

func (h *chHistory) Recent(ctx context.Context, userID string, limit int) ([]Record, error) {
	sql := fmt.Sprintf(`
SELECT id, batch_id, user_id, created_at, document, sentiment, score
FROM %s
WHERE user_id = ?
ORDER BY created_at DESC, id
LIMIT %d
`, chTable, clampLimit(limit))

	rows, err := h.c.Query(ctx, sql, userID)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "list predictions")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.BatchID, &r.UserID, &r.CreatedAt, &r.Document, &r.Sentiment, &r.Score); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan prediction")
		}
		out = append(out, r)
	}
	return out, perr.WrapIf(rows.Err(), perr.ErrorCodeDB, "list predictions")
}

func (h *chHistory) Ping(ctx context.Context) error { return repokit.Ping(ctx, BackendCH, pinger(h.c)) }
