package db

import (
	"database/sql"
	"fmt"
	"regexp"
)

type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}

// DefaultTablePrefix is the table prefix WordPress installs with
const DefaultTablePrefix = "wp_"

var tablePrefixRegex = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// ValidateTablePrefix rejects prefixes that cannot be safely interpolated into a table name
func ValidateTablePrefix(prefix string) error {
	if !tablePrefixRegex.MatchString(prefix) {
		return fmt.Errorf("invalid table prefix %q: only letters, digits and underscores are allowed", prefix)
	}
	return nil
}
