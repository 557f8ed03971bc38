package mysql

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dfryer1193/mediasweep/shared/db"
	driver "github.com/go-sql-driver/mysql"
)

const (
	defaultMaxOpenConns    = 4
	defaultConnMaxLifetime = 5 * time.Minute
)

type MySQLConfig struct {
	DSN          string
	TablePrefix  string
	MaxOpenConns int
}

// NewMySQLConfig reads the DSN from WORDPRESS_DB_DSN
func NewMySQLConfig() *MySQLConfig {
	return &MySQLConfig{
		DSN:          os.Getenv("WORDPRESS_DB_DSN"),
		TablePrefix:  db.DefaultTablePrefix,
		MaxOpenConns: defaultMaxOpenConns,
	}
}

// MySQLDB implements the db.Database interface for a WordPress MySQL/MariaDB database
type MySQLDB struct {
	cfg *MySQLConfig
	db  *sql.DB
}

func NewMySQLDB(cfg *MySQLConfig) *MySQLDB {
	return &MySQLDB{cfg: cfg}
}

// normalizeDSN parses dsn and forces the options the repositories rely on
func normalizeDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("mysql DSN cannot be empty")
	}

	parsed, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql DSN: %w", err)
	}

	// post_date columns are DATETIME
	parsed.ParseTime = true
	if parsed.Loc == nil {
		parsed.Loc = time.UTC
	}

	return parsed.FormatDSN(), nil
}

// Connect opens and pings the database
func (m *MySQLDB) Connect() error {
	if m.db != nil {
		return fmt.Errorf("database already connected")
	}

	if err := db.ValidateTablePrefix(m.cfg.TablePrefix); err != nil {
		return err
	}

	dsn, err := normalizeDSN(m.cfg.DSN)
	if err != nil {
		return err
	}

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := m.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxOpen)
	conn.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m.db = conn
	return nil
}

// Close closes the database connection
func (m *MySQLDB) Close() error {
	if m.db == nil {
		return nil
	}

	err := m.db.Close()
	m.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (m *MySQLDB) DB() *sql.DB {
	return m.db
}
