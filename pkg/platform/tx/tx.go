// Package tx carries a caller-owned *sql.Tx through context so the report
// sink can enlist in an enclosing transaction instead of opening its own.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var activeTx = ctxKey{}

// WithTx returns a context whose store writes join the given transaction.
// The caller keeps commit/rollback responsibility.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, activeTx, tx)
}

// From reports the enlisted transaction, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(activeTx).(*sql.Tx)
	return tx, ok
}
