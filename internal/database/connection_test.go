package database

import (
	"path/filepath"
	"testing"

	"inquirydesk/internal/config"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	cfg := &config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "test.db")}

	conn, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if !conn.Migrator().HasTable("inquiries") {
		t.Fatalf("inquiries table not created")
	}
	for _, col := range []string{"phone_number", "date_of_birth", "job_guarentee", "cgpa", "created_at"} {
		if !conn.Migrator().HasColumn("inquiries", col) {
			t.Fatalf("column %s missing", col)
		}
	}
	if err := ping(conn); err != nil {
		t.Fatalf("ping: %v", err)
	}

	stats, err := GetStats(conn)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.MaxOpenConnections != 1 {
		t.Fatalf("sqlite pool should be limited to one connection, got %d", stats.MaxOpenConnections)
	}
	PublishStats(conn)
}
