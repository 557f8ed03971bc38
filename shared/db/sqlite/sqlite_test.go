package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/dfryer1193/mediasweep/shared/db"
)

var _ db.Database = (*SQLiteDB)(nil)

func TestNewSQLiteConfig(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     string
	}{
		{
			name:     "env variable",
			envValue: "/tmp/env.sqlite",
			want:     "/tmp/env.sqlite",
		},
		{
			name: "default path",
			want: defaultPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SQLITE_DB_PATH", tt.envValue)

			cfg := NewSQLiteConfig()
			database := NewSQLiteDB(cfg)

			if database.dbPath != tt.want {
				t.Errorf("dbPath = %v, want %v", database.dbPath, tt.want)
			}
			if database.tablePrefix != db.DefaultTablePrefix {
				t.Errorf("tablePrefix = %q, want %q", database.tablePrefix, db.DefaultTablePrefix)
			}
		})
	}
}

func TestSQLiteDB_Connect(t *testing.T) {
	cfg := &SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "test.sqlite"),
		TablePrefix: "wp_",
	}

	database := NewSQLiteDB(cfg)
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	if database.DB() == nil {
		t.Error("DB() returned nil after Connect()")
	}

	if err := database.Connect(); err == nil {
		t.Error("Connect() should return error when already connected")
	}
}

func TestSQLiteDB_ConnectRejectsBadPrefix(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "test.sqlite"),
		TablePrefix: "wp_; --",
	})

	if err := database.Connect(); err == nil {
		database.Close()
		t.Fatal("Connect() should reject an unsafe table prefix")
	}
}

func TestSQLiteDB_WithoutBootstrapLeavesSchemaAlone(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "test.sqlite"),
		TablePrefix: "wp_",
	})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close()

	var count int
	err := database.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count tables: %v", err)
	}
	if count != 0 {
		t.Errorf("found %d tables, want none without bootstrap", count)
	}
}

func TestSQLiteDB_Close(t *testing.T) {
	database := NewSQLiteDB(&SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "test.sqlite"),
	})

	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := database.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if database.DB() != nil {
		t.Error("DB() should return nil after Close()")
	}
}
