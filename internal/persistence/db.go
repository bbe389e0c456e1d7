// Package persistence stores city records: SQL save slots (SQLite or
// Postgres) and compressed save files.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/gridcity/internal/engine"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrNotFound is returned when a save slot does not exist.
var ErrNotFound = errors.New("save not found")

// DB wraps a SQL connection holding save slots, the event log and metadata.
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
}

// SaveInfo describes one save slot without its record.
type SaveInfo struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Year       int       `db:"year" json:"year"`
	Population int       `db:"population" json:"population"`
	Money      float64   `db:"money" json:"money"`
	SavedAt    time.Time `db:"-" json:"saved_at"`
	SavedUnix  int64     `db:"saved_at" json:"-"`
}

// Open connects to the database and applies the schema. For SQLite, dsn is
// a file path whose directory is created if needed.
func Open(dialect Dialect, dsn string) (*DB, error) {
	var driver string
	switch Dialect(strings.ToLower(string(dialect))) {
	case DialectSQLite:
		dialect = DialectSQLite
		driver = "sqlite"
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	case DialectPostgres:
		dialect = DialectPostgres
		driver = "pgx"
		if dsn == "" {
			return nil, errors.New("postgres requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dialect == DialectSQLite {
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("database opened", "dialect", dialect)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect reports the backend in use.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) migrate(ctx context.Context) error {
	floatType, serial := "REAL", "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.dialect == DialectPostgres {
		floatType, serial = "DOUBLE PRECISION", "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			year INTEGER NOT NULL,
			population INTEGER NOT NULL,
			money ` + floatType + ` NOT NULL,
			saved_at BIGINT NOT NULL,
			record TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id ` + serial + `,
			city_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS city_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_city ON events(city_id, year)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// SaveCity writes the city into its save slot (keyed by city ID), replacing
// any earlier save, and rewrites the city's event log.
func (db *DB) SaveCity(ctx context.Context, c *engine.City) (SaveInfo, error) {
	rec := c.Snapshot()
	body, err := json.Marshal(rec)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("encode record: %w", err)
	}

	now := time.Now().UTC()
	info := SaveInfo{
		ID:         c.ID,
		Name:       c.Name,
		Year:       c.Year,
		Population: c.Population,
		Money:      c.Ledger.Money,
		SavedAt:    now,
		SavedUnix:  now.Unix(),
	}
	if info.Name == "" {
		info.Name = "City " + c.ID[:8]
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return SaveInfo{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, db.conn.Rebind(`INSERT INTO saves
		(id, name, year, population, money, saved_at, record)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			year = excluded.year,
			population = excluded.population,
			money = excluded.money,
			saved_at = excluded.saved_at,
			record = excluded.record`),
		info.ID, info.Name, info.Year, info.Population, info.Money, info.SavedUnix, string(body),
	)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("upsert save %s: %w", info.ID, err)
	}

	if err := db.replaceEvents(ctx, tx, c.ID, c.EventHistory); err != nil {
		return SaveInfo{}, fmt.Errorf("save events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SaveInfo{}, err
	}
	slog.Info("city saved", "city", info.ID, "name", info.Name, "year", info.Year)
	return info, nil
}

func (db *DB) replaceEvents(ctx context.Context, tx *sqlx.Tx, cityID string, events []engine.EventRecord) error {
	if _, err := tx.ExecContext(ctx, db.conn.Rebind("DELETE FROM events WHERE city_id = ?"), cityID); err != nil {
		return err
	}
	insert := db.conn.Rebind(
		"INSERT INTO events (city_id, year, name, category, description) VALUES (?, ?, ?, ?, ?)")
	for _, e := range events {
		if _, err := tx.ExecContext(ctx, insert, cityID, e.Year, e.Name, string(e.Category), e.Description); err != nil {
			return err
		}
	}
	return nil
}

// LoadCity restores the city saved under id.
func (db *DB) LoadCity(ctx context.Context, id string) (*engine.City, error) {
	var body string
	err := db.conn.GetContext(ctx, &body, db.conn.Rebind("SELECT record FROM saves WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load save %s: %w", id, err)
	}

	rec, err := DecodeRecord([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("load save %s: %w", id, err)
	}
	return engine.Restore(rec), nil
}

// ListSaves returns every save slot, newest first.
func (db *DB) ListSaves(ctx context.Context) ([]SaveInfo, error) {
	var saves []SaveInfo
	err := db.conn.SelectContext(ctx, &saves,
		"SELECT id, name, year, population, money, saved_at FROM saves ORDER BY saved_at DESC, name")
	if err != nil {
		return nil, err
	}
	for i := range saves {
		saves[i].SavedAt = time.Unix(saves[i].SavedUnix, 0).UTC()
	}
	return saves, nil
}

// DeleteSave removes a save slot and its event log.
func (db *DB) DeleteSave(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, db.conn.Rebind("DELETE FROM saves WHERE id = ?"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, db.conn.Rebind("DELETE FROM events WHERE city_id = ?"), id); err != nil {
		return err
	}
	return tx.Commit()
}

// EventRow is one logged event of a saved city.
type EventRow struct {
	Year        int    `db:"year" json:"year"`
	Name        string `db:"name" json:"name"`
	Category    string `db:"category" json:"category"`
	Description string `db:"description" json:"description"`
}

// RecentEvents returns the latest limit events logged for a city, newest first.
func (db *DB) RecentEvents(ctx context.Context, cityID string, limit int) ([]EventRow, error) {
	var events []EventRow
	err := db.conn.SelectContext(ctx, &events, db.conn.Rebind(
		"SELECT year, name, category, description FROM events WHERE city_id = ? ORDER BY id DESC LIMIT ?"),
		cityID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(
		`INSERT INTO city_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`),
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value; ErrNotFound if unset.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, db.conn.Rebind("SELECT value FROM city_meta WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: meta %s", ErrNotFound, key)
	}
	return value, err
}
