package testsupport

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// SQLiteMemoryDSN returns a shared-cache in-memory DSN private to name.
func SQLiteMemoryDSN(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", clean)
}

// NewSQLiteMemoryDB opens an in-memory database scoped to the running test
// and closes it on cleanup. A single connection keeps the database alive.
func NewSQLiteMemoryDB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := sql.Open("sqlite3", SQLiteMemoryDSN(tb.Name()))
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

// NewBunDB wraps NewSQLiteMemoryDB with the sqlite dialect.
func NewBunDB(tb testing.TB) *bun.DB {
	tb.Helper()
	return bun.NewDB(NewSQLiteMemoryDB(tb), sqlitedialect.New())
}
