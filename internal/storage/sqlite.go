// Package storage provides persistent storage for parsed NOTAMs: a
// local SQLite store with full-text search, a PostgreSQL airport
// reference database, and a ClickHouse archive for analytics.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"notam_parser/internal/notam"
)

// Record is a stored NOTAM row with its full parsed JSON.
type Record struct {
	ID              int64
	NotamID         string
	Location        string
	FIR             string
	QCode           string
	Category        string
	PrimaryCategory string
	EffectiveFrom   *time.Time
	EffectiveTo     *time.Time
	IsPermanent     bool
	RawText         string
	ParsedJSON      string
	Source          string
	ParsedAt        time.Time
}

// Store wraps a SQLite database for NOTAM storage.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates a SQLite database at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createStoreSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createStoreSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		notam_id TEXT NOT NULL,
		location TEXT NOT NULL,
		fir TEXT,
		qcode TEXT,
		category TEXT,
		primary_category TEXT,
		effective_from TEXT,
		effective_to TEXT,
		is_permanent INTEGER DEFAULT 0,
		raw_text TEXT NOT NULL,
		parsed_json TEXT NOT NULL,
		source TEXT,
		parsed_at TEXT NOT NULL,
		created_at TEXT DEFAULT (datetime('now')),
		UNIQUE(notam_id, location)
	);

	CREATE INDEX IF NOT EXISTS idx_notams_location ON notams(location);
	CREATE INDEX IF NOT EXISTS idx_notams_fir ON notams(fir);
	CREATE INDEX IF NOT EXISTS idx_notams_qcode ON notams(qcode);
	CREATE INDEX IF NOT EXISTS idx_notams_category ON notams(category);
	CREATE INDEX IF NOT EXISTS idx_notams_effective ON notams(effective_from, effective_to);

	-- FTS5 virtual table for full-text search on raw NOTAM text.
	CREATE VIRTUAL TABLE IF NOT EXISTS notams_fts USING fts5(
		raw_text,
		content='notams',
		content_rowid='id'
	);

	-- Triggers to keep FTS index in sync.
	CREATE TRIGGER IF NOT EXISTS notams_ai AFTER INSERT ON notams BEGIN
		INSERT INTO notams_fts(rowid, raw_text) VALUES (new.id, new.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS notams_ad AFTER DELETE ON notams BEGIN
		INSERT INTO notams_fts(notams_fts, rowid, raw_text) VALUES('delete', old.id, old.raw_text);
	END;

	CREATE TRIGGER IF NOT EXISTS notams_au AFTER UPDATE ON notams BEGIN
		INSERT INTO notams_fts(notams_fts, rowid, raw_text) VALUES('delete', old.id, old.raw_text);
		INSERT INTO notams_fts(rowid, raw_text) VALUES (new.id, new.raw_text);
	END;
	`

	_, err := db.Exec(schema)
	return err
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// Insert stores a parsed NOTAM, replacing an existing row with the same
// NOTAM ID and location so re-parsing the same source is idempotent.
func (s *Store) Insert(n *notam.Notam) (int64, error) {
	return insertNotam(s.db, n)
}

func insertNotam(e execer, n *notam.Notam) (int64, error) {
	parsedJSON, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("marshal notam: %w", err)
	}

	result, err := e.Exec(`
		INSERT INTO notams (notam_id, location, fir, qcode, category, primary_category,
			effective_from, effective_to, is_permanent, raw_text, parsed_json, source, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(notam_id, location) DO UPDATE SET
			fir = excluded.fir,
			qcode = excluded.qcode,
			category = excluded.category,
			primary_category = excluded.primary_category,
			effective_from = excluded.effective_from,
			effective_to = excluded.effective_to,
			is_permanent = excluded.is_permanent,
			raw_text = excluded.raw_text,
			parsed_json = excluded.parsed_json,
			source = excluded.source,
			parsed_at = excluded.parsed_at
	`, n.ID, n.Location, n.FIR, n.QCode, string(n.Category), n.PrimaryCategory,
		timeOrNil(n.EffectiveFrom), timeOrNil(n.EffectiveTo), boolToInt(n.IsPermanent),
		n.RawText, string(parsedJSON), n.Source, n.ParsedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert notam: %w", err)
	}

	return result.LastInsertId()
}

// InsertAll stores a batch of NOTAMs in a single transaction.
func (s *Store) InsertAll(ns []*notam.Notam) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, n := range ns {
		if _, err := insertNotam(tx, n); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// StoreQueryParams contains filtering options for querying stored NOTAMs.
type StoreQueryParams struct {
	NotamID   string     // Exact NOTAM ID.
	Location  string     // Exact location match.
	FIR       string     // Exact FIR match.
	QCode     string     // Q-code prefix match.
	Category  string     // Exact category match.
	ActiveAt  *time.Time // Only NOTAMs in effect at this instant.
	FullText  string     // FTS5 full-text search on raw_text.
	Limit     int        // Max results (default 100).
	Offset    int        // Pagination offset.
	OrderBy   string     // Sort field (location, qcode, effective_from).
	OrderDesc bool       // Sort descending.
}

// Query retrieves stored NOTAMs matching the given parameters.
func (s *Store) Query(p StoreQueryParams) ([]Record, error) {
	var conditions []string
	var args []interface{}

	if p.NotamID != "" {
		conditions = append(conditions, "notam_id = ?")
		args = append(args, p.NotamID)
	}
	if p.Location != "" {
		conditions = append(conditions, "location = ?")
		args = append(args, p.Location)
	}
	if p.FIR != "" {
		conditions = append(conditions, "fir = ?")
		args = append(args, p.FIR)
	}
	if p.QCode != "" {
		conditions = append(conditions, "qcode LIKE ?")
		args = append(args, strings.ToUpper(p.QCode)+"%")
	}
	if p.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, p.Category)
	}
	if p.ActiveAt != nil {
		at := p.ActiveAt.UTC().Format(time.RFC3339)
		conditions = append(conditions, "(effective_from IS NULL OR effective_from <= ?)")
		args = append(args, at)
		conditions = append(conditions, "(is_permanent = 1 OR effective_to IS NULL OR effective_to >= ?)")
		args = append(args, at)
	}

	// FTS5 search requires a JOIN with the FTS table.
	var query string
	cols := `n.id, n.notam_id, n.location, n.fir, n.qcode, n.category, n.primary_category,
			n.effective_from, n.effective_to, n.is_permanent, n.raw_text, n.parsed_json, n.source, n.parsed_at`
	if p.FullText != "" {
		query = "SELECT " + cols + ` FROM notams n
				JOIN notams_fts fts ON n.id = fts.rowid
				WHERE notams_fts MATCH ?`
		args = append([]interface{}{p.FullText}, args...)
		if len(conditions) > 0 {
			query += " AND " + strings.Join(conditions, " AND ")
		}
	} else {
		query = "SELECT " + cols + " FROM notams n"
		if len(conditions) > 0 {
			query += " WHERE " + strings.Join(conditions, " AND ")
		}
	}

	orderField := "n.id"
	switch p.OrderBy {
	case "location", "qcode", "effective_from", "parsed_at":
		orderField = "n." + p.OrderBy
	}
	direction := "ASC"
	if p.OrderDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderField, direction)

	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var r Record
	var fir, qcode, category, primary, from, to, source, parsedAt sql.NullString
	var isPermanent sql.NullInt64

	err := rows.Scan(&r.ID, &r.NotamID, &r.Location, &fir, &qcode, &category, &primary,
		&from, &to, &isPermanent, &r.RawText, &r.ParsedJSON, &source, &parsedAt)
	if err != nil {
		return r, err
	}

	r.FIR = fir.String
	r.QCode = qcode.String
	r.Category = category.String
	r.PrimaryCategory = primary.String
	r.Source = source.String
	r.IsPermanent = isPermanent.Int64 == 1
	if from.Valid {
		if t, err := time.Parse(time.RFC3339, from.String); err == nil {
			r.EffectiveFrom = &t
		}
	}
	if to.Valid {
		if t, err := time.Parse(time.RFC3339, to.String); err == nil {
			r.EffectiveTo = &t
		}
	}
	if parsedAt.Valid {
		r.ParsedAt, _ = time.Parse(time.RFC3339, parsedAt.String)
	}
	return r, nil
}

// GetByNotamID retrieves a NOTAM by its ICAO identifier, or nil when
// absent. With duplicate IDs across locations the first row wins.
func (s *Store) GetByNotamID(notamID string) (*Record, error) {
	records, err := s.Query(StoreQueryParams{NotamID: notamID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Notams unmarshals the parsed JSON of each record back into NOTAM
// structs, skipping rows that fail to decode.
func Notams(records []Record) []*notam.Notam {
	var out []*notam.Notam
	for _, r := range records {
		var n notam.Notam
		if err := json.Unmarshal([]byte(r.ParsedJSON), &n); err != nil {
			continue
		}
		out = append(out, &n)
	}
	return out
}

// StoreStats contains aggregate statistics about stored NOTAMs.
type StoreStats struct {
	TotalNotams int
	ByLocation  map[string]int
	ByCategory  map[string]int
	Permanent   int
}

// GetStats returns statistics about the stored NOTAMs.
func (s *Store) GetStats() (*StoreStats, error) {
	stats := &StoreStats{
		ByLocation: make(map[string]int),
		ByCategory: make(map[string]int),
	}

	row := s.db.QueryRow("SELECT COUNT(*) FROM notams")
	if err := row.Scan(&stats.TotalNotams); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT location, COUNT(*) FROM notams GROUP BY location ORDER BY COUNT(*) DESC LIMIT 50")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var loc string
		var count int
		if err := rows.Scan(&loc, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByLocation[loc] = count
	}
	_ = rows.Close()

	rows, err = s.db.Query("SELECT COALESCE(category, ''), COUNT(*) FROM notams GROUP BY category ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var cat string
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByCategory[cat] = count
	}
	_ = rows.Close()

	row = s.db.QueryRow("SELECT COUNT(*) FROM notams WHERE is_permanent = 1")
	if err := row.Scan(&stats.Permanent); err != nil {
		return nil, err
	}

	return stats, nil
}

// Distinct returns distinct values for a given column.
func (s *Store) Distinct(column string) ([]string, error) {
	// Validate column name to prevent SQL injection.
	validColumns := map[string]bool{
		"location": true,
		"fir":      true,
		"qcode":    true,
		"category": true,
		"source":   true,
	}
	if !validColumns[column] {
		return nil, fmt.Errorf("invalid column: %s", column)
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM notams WHERE %s IS NOT NULL AND %s != '' ORDER BY %s", column, column, column, column)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
