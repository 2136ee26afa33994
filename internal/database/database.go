package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"traveler/internal/auth"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const defaultSchemaVersion = 1

// DB owns the users, bookings and sync_queue tables of one SQLite file.
type DB struct {
	*sqlx.DB
	path          string
	schemaVersion int
	hasher        auth.Hasher
	logger        *zerolog.Logger
	now           func() time.Time
}

// Option customises NewDB.
type Option func(*DB)

// WithHasher sets the password hasher. Defaults to bcrypt.
func WithHasher(h auth.Hasher) Option {
	return func(db *DB) {
		if h != nil {
			db.hasher = h
		}
	}
}

// WithSchemaVersion sets the schema version. A stored version that differs
// causes every table to be dropped and recreated.
func WithSchemaVersion(v int) Option {
	return func(db *DB) {
		if v > 0 {
			db.schemaVersion = v
		}
	}
}

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		if now != nil {
			db.now = now
		}
	}
}

func NewDB(path string, logger *zerolog.Logger, opts ...Option) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer and :memory: is per connection.
	conn.SetMaxOpenConns(1)

	db := &DB{
		DB:            conn,
		path:          path,
		schemaVersion: defaultSchemaVersion,
		hasher:        auth.NewBcryptHasher(0),
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	db.logger.Info().Str("path", path).Int("schema_version", db.schemaVersion).Msg("Database initialized")
	return db, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// SchemaVersion returns the version stored in the database file.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := db.GetContext(ctx, &v, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func (db *DB) migrate(ctx context.Context) error {
	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if current != 0 && current != db.schemaVersion {
		db.logger.Warn().
			Int("from", current).
			Int("to", db.schemaVersion).
			Msg("Schema version changed, dropping all tables")
		for _, table := range []string{"users", "bookings", "sync_queue"} {
			if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
	}

	for _, query := range schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", db.schemaVersion)); err != nil {
		return fmt.Errorf("failed to store schema version: %w", err)
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		destination TEXT NOT NULL,
		departure_location TEXT NOT NULL,
		check_in_date TEXT NOT NULL,
		check_out_date TEXT NOT NULL,
		number_of_guests INTEGER NOT NULL,
		accommodation_type TEXT NOT NULL,
		room_type TEXT NOT NULL,
		special_requests TEXT,
		contact_name TEXT NOT NULL,
		contact_email TEXT NOT NULL,
		contact_phone TEXT NOT NULL,
		total_amount REAL DEFAULT 0.0,
		booking_status TEXT DEFAULT 'Pending',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_type TEXT NOT NULL,
		booking_id INTEGER NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at DATETIME NOT NULL,
		processed_at DATETIME,
		next_retry_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_created ON bookings(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
}
