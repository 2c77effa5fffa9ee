package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database connection
	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// schema is additive-only: new columns may be added but url remains
// unique on media_articles.
const schema = `
CREATE TABLE IF NOT EXISTS index_scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	as_of TIMESTAMP NOT NULL,
	composite REAL NOT NULL,
	momentum REAL NOT NULL,
	price_strength REAL NOT NULL,
	volume REAL NOT NULL,
	volatility REAL NOT NULL,
	equity_vs_bonds REAL NOT NULL,
	media_sentiment REAL NOT NULL,
	label TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_index_scores_as_of ON index_scores(as_of);

CREATE TABLE IF NOT EXISTS media_articles (
	url TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	title TEXT NOT NULL,
	summary TEXT,
	content TEXT,
	image_url TEXT,
	author TEXT,
	category TEXT,
	tags TEXT,
	published_at TIMESTAMP,
	sentiment_score REAL,
	sentiment_label TEXT,
	quality_score REAL NOT NULL DEFAULT 0,
	scraped_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_media_articles_published ON media_articles(published_at);
`

// Migrate creates the index_scores and media_articles tables if absent.
func (db *DB) Migrate() error {
	_, err := db.conn.Exec(schema)
	return err
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
