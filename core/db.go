package core

import (
	"context"
	"database/sql"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}

	// Atomic runs fn all-or-nothing. The store transaction travels in ctx
	// (see WithDBTransactor) so repositories on any engine can pick it up.
	Atomic interface {
		Atomic(ctx context.Context, fn func(ctx context.Context) error) error
	}
)

type txContextKey struct{}

// WithDBTransactor returns a ctx carrying an open store transaction.
func WithDBTransactor(ctx context.Context, tx DBTransactor) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// DBTransactorFromContext returns the transaction carried by ctx, if any.
func DBTransactorFromContext(ctx context.Context) (DBTransactor, bool) {
	tx, ok := ctx.Value(txContextKey{}).(DBTransactor)
	return tx, ok
}
