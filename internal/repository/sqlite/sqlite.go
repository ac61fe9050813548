// Package sqlite implements the repository interfaces on SQLite.
//
// SQLite is an embedded database: no server to run, a single file (or
// ":memory:" in tests), and full transactional semantics — which is all this
// application's storage contract asks for. The modernc.org/sqlite driver is
// a pure-Go translation of SQLite, so there is no CGo and cross-compilation
// stays trivial.
//
// Schema (three tables, mirroring the reference data model):
//
//	user           — identity + bcrypt hash, username UNIQUE
//	interests      — reference categories, seeded at migration time
//	user_interests — the many-to-many join, one row per (user, interest)
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements repository.UserRepository and
// repository.InterestRepository. The server owns the lifecycle: New opens
// and migrates, Close releases the file lock on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, applies pragmas, and runs migrations.
// Use ":memory:" for a throwaway database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time; capping the pool at a single
	// connection serializes writers ahead of the file lock instead of
	// surfacing SQLITE_BUSY errors. It also keeps ":memory:" databases
	// coherent — each new pool connection would otherwise get its own
	// empty in-memory database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the join table relies on
	// them for referential integrity.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema and seeds the category list. CREATE TABLE IF
// NOT EXISTS keeps it idempotent; real migration tooling is out of scope.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user (
			user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL,
			gender        TEXT NOT NULL CHECK (gender IN ('male', 'female')),
			birth_date    TEXT NOT NULL,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS interests (
			interests_id INTEGER PRIMARY KEY AUTOINCREMENT,
			category     TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS user_interests (
			user_interest_id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          INTEGER NOT NULL REFERENCES user(user_id),
			interests_id     INTEGER NOT NULL REFERENCES interests(interests_id),
			UNIQUE (user_id, interests_id)
		);

		CREATE INDEX IF NOT EXISTS idx_user_interests_user_id
			ON user_interests(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return db.seedInterests()
}

// defaultCategories is the fixed reference list of interest categories.
// Seeded once; INSERT OR IGNORE makes restarts harmless.
var defaultCategories = []string{
	"exercise",
	"nutrition",
	"sleep",
	"mental care",
	"chronic disease",
	"weight management",
}

func (db *DB) seedInterests() error {
	for _, category := range defaultCategories {
		if _, err := db.conn.Exec(
			`INSERT OR IGNORE INTO interests (category) VALUES (?)`, category,
		); err != nil {
			return fmt.Errorf("seeding category %q: %w", category, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column (e.g. "user.username"). The driver surfaces constraint
// failures as plain errors whose message names the violated columns.
func isUniqueViolation(err error, column string) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), column)
}

// now returns the current time truncated to the second. SQLite stores
// DATETIME as text; sub-second precision only makes timestamps noisy and
// round-trips inconsistently across drivers.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
