// internal/storage/database_storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3" // Driver registration and constraint error codes

	"github.com/Annany2002/nebula-studio/config"
	"github.com/Annany2002/nebula-studio/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so every repo function can
// run standalone or inside a caller's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// schemaStatements create the schema-of-schemas tables, the EAV value table and widgets.
var schemaStatements = []struct {
	name string
	sql  string
}{
	{"collections", `
	CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		is_system BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (project_id, slug)
	);`},
	{"fields", `
	CREATE TABLE IF NOT EXISTS fields (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		default_value TEXT,
		is_required BOOLEAN NOT NULL DEFAULT 0,
		is_unique BOOLEAN NOT NULL DEFAULT 0,
		is_searchable BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		validation_rules TEXT,
		field_options TEXT,
		related_collection_id INTEGER,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (collection_id, name),
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
		FOREIGN KEY (related_collection_id) REFERENCES collections(id) ON DELETE SET NULL
	);`},
	{"records", `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT UNIQUE NOT NULL,
		collection_id INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);`},
	{"records index", `CREATE INDEX IF NOT EXISTS idx_records_collection ON records (collection_id, created_at);`},
	{"record_values", `
	CREATE TABLE IF NOT EXISTS record_values (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL,
		field_id INTEGER NOT NULL,
		value TEXT NOT NULL,
		unique_key TEXT,
		UNIQUE (record_id, field_id),
		UNIQUE (field_id, unique_key),
		FOREIGN KEY (record_id) REFERENCES records(id) ON DELETE CASCADE,
		FOREIGN KEY (field_id) REFERENCES fields(id) ON DELETE CASCADE
	);`},
	{"record_values index", `CREATE INDEX IF NOT EXISTS idx_record_values_field ON record_values (field_id, value);`},
	{"widgets", `
	CREATE TABLE IF NOT EXISTS widgets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`},
	{"widgets index", `CREATE INDEX IF NOT EXISTS idx_widgets_page ON widgets (page_id, sort_order);`},
}

// ConnectDB initializes the connection pool for the studio SQLite database
// and ensures every table exists.
func ConnectDB(cfg *config.Config) (*sql.DB, error) {
	dbPath := filepath.Join(cfg.DatabaseDir, cfg.DatabaseFile)
	customLog.Printf("Storage: Initializing studio database: %s", dbPath)

	// Ensure the data directory exists
	if err := os.MkdirAll(cfg.DatabaseDir, 0o750); err != nil {
		customLog.Warnf("Storage: Error creating data directory '%s': %v", cfg.DatabaseDir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Foreign keys for cascades, WAL plus busy timeout for concurrent requests,
	// immediate transactions so check-then-write runs hold the write lock.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		customLog.Warnf("Storage: Failed to open studio db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to open studio db: %w", err)
	}

	// Verify connection is working
	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping studio db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to connect to studio db: %w", err)
	}
	customLog.Println("Storage: Studio database connection successful.")

	for _, stmt := range schemaStatements {
		if _, err = db.Exec(stmt.sql); err != nil {
			db.Close()
			customLog.Warnf("Storage: Failed to create %s: %v", stmt.name, err)
			return nil, fmt.Errorf("failed to ensure %s: %w", stmt.name, err)
		}
		customLog.Debugf("Storage: %s ensured.", stmt.name)
	}

	return db, nil
}

// isUniqueViolation reports a UNIQUE constraint failure, optionally restricted to
// a table.column named in the SQLite message.
func isUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code != sqlite3.ErrConstraint || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return column == "" || strings.Contains(sqliteErr.Error(), column)
}

// isForeignKeyViolation reports a FOREIGN KEY constraint failure.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.Code == sqlite3.ErrConstraint &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// escapeLike escapes LIKE wildcards; patterns using it must declare ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
