// Package sqlxrepos implements the domain repositories against PostgreSQL.
// Write paths that guard engine invariants (award-once, grant-once, streak
// stepping) are single conditional statements so concurrent requests settle
// at the store's atomicity boundary.
package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lusembo/maendeleo/core"
)

// ext returns the executor for ctx: the transaction carried by ctx when
// running under core.Atomic, the bare handle otherwise.
func ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := core.DBTransactorFromContext(ctx); ok {
		if sx, ok := tx.(*sqlx.Tx); ok {
			return sx
		}
	}
	return db
}
