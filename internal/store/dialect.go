package store

import (
	"fmt"
	"regexp"
)

// Dialect abstracts the SQL differences between supported databases.
type Dialect interface {
	// Name is the database/sql driver name.
	Name() string
	// Placeholder returns the bind placeholder for 1-based position n.
	Placeholder(n int) string
}

// PostgresDialect targets PostgreSQL via github.com/lib/pq.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

// SQLiteDialect targets SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) Placeholder(n int) string { return "?" }

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent validates and quotes a table or column identifier. Target
// table and field names come from the registry, not from the uploaded
// document, but identifiers are still checked before interpolation.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}
