package repository

import (
	"context"
	"database/sql"

	"github.com/oumarfall/procureflow/pkg/database"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getExecutor returns the context's transaction when inside one, otherwise
// the bare connection
func getExecutor(ctx context.Context, db *sql.DB) executor {
	if tx := database.ExtractTx(ctx); tx != nil {
		return tx
	}
	return db
}
