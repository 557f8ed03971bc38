package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/dfryer1193/mediasweep/shared/db"
	_ "modernc.org/sqlite"
)

const (
	// defaultPath is where the WordPress SQLite integration keeps its database
	defaultPath = "./wp-content/database/.ht.sqlite"
)

type SQLiteConfig struct {
	Path        string
	TablePrefix string
	// Bootstrap creates the WordPress tables when missing. Meant for fixtures and local testing.
	Bootstrap bool
}

func NewSQLiteConfig() *SQLiteConfig {
	path := os.Getenv("SQLITE_DB_PATH")
	if path == "" {
		path = defaultPath
	}

	return &SQLiteConfig{
		Path:        path,
		TablePrefix: db.DefaultTablePrefix,
	}
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath      string
	tablePrefix string
	bootstrap   bool
	db          *sql.DB
}

// NewSQLiteDB creates a new SQLite database instance
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath:      cfg.Path,
		tablePrefix: cfg.TablePrefix,
		bootstrap:   cfg.Bootstrap,
	}
}

// Connect opens a connection to the SQLite database
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	if err := db.ValidateTablePrefix(s.tablePrefix); err != nil {
		return err
	}

	conn, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if s.dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000", // WordPress may be writing concurrently
		"PRAGMA cache_size=-64000",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s.db = conn

	if s.bootstrap {
		if err := runMigrations(conn, s.tablePrefix); err != nil {
			conn.Close()
			s.db = nil
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}
