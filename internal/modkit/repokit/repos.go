// Package repokit provides the seams and helpers history repositories are built on
package repokit

import (
	"context"
	"time"

	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/store"
)

type (
	// Queryer is the read and write surface a bound repo sees
	Queryer = store.RowQuerier

	// TxRunner runs a function inside a transaction
	TxRunner = store.TxRunner

	// Rows, Row and CommandTag are the store result types
	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// Binder binds a domain repo to a Queryer, either the pool or an open tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// MustBind panics early on a nil Queryer, then binds
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// TxAttempts bounds WithTx retries of transient failures
const TxAttempts = 3

// txBackoff is the first retry delay, doubled per attempt
var txBackoff = 25 * time.Millisecond

// WithTx runs fn inside a transaction on tx
// serialization failures and deadlocks rerun the whole transaction up to TxAttempts times
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	delay := txBackoff
	var err error
	for attempt := 1; attempt <= TxAttempts; attempt++ {
		if err = tx.Tx(ctx, fn); err == nil || !perr.IsRetryable(err) {
			return err
		}
		if attempt == TxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
