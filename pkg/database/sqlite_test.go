package database

import (
	"path/filepath"
	"testing"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

func TestNewSQLiteDB_MigratesSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feeds.db")

	db, err := NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("unexpected migration error: %v", err)
	}
	if !db.Migrator().HasTable(&models.FeedSnapshot{}) {
		t.Fatalf("expected feed_snapshots table")
	}
}
