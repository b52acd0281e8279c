// Package testsupport provides small test-only helpers shared across the
// engine's package test suites (graph, search index, sync, dataview),
// mirroring the teacher's pkg/testsupport.
package testsupport

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens a shared in-memory SQLite database suitable for a
// single test's lifetime, matching the teacher's dbtest helper.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", "file::memory:?cache=shared")
}
