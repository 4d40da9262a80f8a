package repository

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/oumarfall/procureflow/pkg/database"
)

// newTestDB opens a throwaway sqlite database with the full schema applied
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 8,
		MaxIdleConns: 4,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	if err := migrator.RunMigrations(filepath.Join("..", "..", "..", "..", "migrations")); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
