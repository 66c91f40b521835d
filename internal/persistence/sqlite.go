package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/feed"
	"github.com/talgya/cromulant/internal/settings"
)

// DB wraps a SQLite connection for colony persistence.
type DB struct {
	conn *sqlx.DB
}

var _ feed.Log = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created INTEGER NOT NULL,
		updated INTEGER NOT NULL,
		status TEXT NOT NULL,
		method TEXT NOT NULL,
		triumph INTEGER NOT NULL,
		hits INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS colony_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY,
		time INTEGER NOT NULL,
		ant_id TEXT NOT NULL,
		ant TEXT NOT NULL,
		method TEXT NOT NULL,
		message TEXT NOT NULL,
		icon TEXT NOT NULL,
		score INTEGER NOT NULL,
		color TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_time ON entries(time);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// LoadAnts returns every stored ant in insertion order.
func (db *DB) LoadAnts(ctx context.Context) ([]*ants.Ant, error) {
	var list []*ants.Ant
	err := db.conn.SelectContext(ctx, &list,
		"SELECT id, name, created, updated, status, method, triumph, hits FROM ants ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("load ants: %w", err)
	}
	for _, a := range list {
		a.Color = ants.ColorFor(a.Name)
	}
	return list, nil
}

// SaveAnts writes all ants to the database (full replace).
func (db *DB) SaveAnts(ctx context.Context, population []*ants.Ant) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ants"); err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO ants
		(id, name, created, updated, status, method, triumph, hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range population {
		_, err := stmt.ExecContext(ctx,
			a.ID, a.Name, a.Created, a.Updated, a.Status, string(a.Method), a.Triumph, a.Hits,
		)
		if err != nil {
			return fmt.Errorf("insert ant %s: %w", a.Name, err)
		}
	}

	return tx.Commit()
}

// LoadSettings overlays the stored pairs on the defaults.
func (db *DB) LoadSettings(ctx context.Context) (settings.Settings, error) {
	st := settings.Default()
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.SelectContext(ctx, &rows, "SELECT key, value FROM settings"); err != nil {
		return st, fmt.Errorf("load settings: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}
	if err := st.Apply(values); err != nil {
		slog.Warn("ignoring bad stored settings", "error", err)
	}
	return st, nil
}

// SaveSettings stores every setting as a key/value row.
func (db *DB) SaveSettings(ctx context.Context, st settings.Settings) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for k, v := range st.Values() {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", k, v,
		); err != nil {
			return fmt.Errorf("save setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// SaveMeta stores a key-value pair in colony metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO colony_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM colony_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// AppendEntries adds feed entries to the history.
func (db *DB) AppendEntries(ctx context.Context, entries []feed.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO entries
			(id, time, ant_id, ant, method, message, icon, score, color)
			VALUES (:id, :time, :ant_id, :ant, :method, :message, :icon, :score, :color)`, e)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEntries returns the most recent limit entries, oldest first.
func (db *DB) RecentEntries(ctx context.Context, limit int) ([]feed.Entry, error) {
	var entries []feed.Entry
	err := db.conn.SelectContext(ctx, &entries,
		`SELECT id, time, ant_id, ant, method, message, icon, score, color
		FROM entries ORDER BY id DESC LIMIT ?`,
		limit,
	)
	slices.Reverse(entries)
	return entries, err
}
