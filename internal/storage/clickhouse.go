package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"notam_parser/internal/notam"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// Archive wraps a ClickHouse connection holding the append-only NOTAM
// history used for analytics.
type Archive struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (a *Archive) Conn() driver.Conn {
	return a.conn
}

// OpenArchive opens a connection to ClickHouse.
func OpenArchive(ctx context.Context, cfg ClickHouseConfig) (*Archive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &Archive{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (a *Archive) CreateSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS notams (
		notam_id        String,
		location        LowCardinality(String),
		fir             LowCardinality(String),
		qcode           LowCardinality(String),
		category        LowCardinality(String),
		traffic_type    LowCardinality(String),
		scope           LowCardinality(String),
		effective_from  Nullable(DateTime64(0)),
		effective_to    Nullable(DateTime64(0)),
		is_permanent    UInt8,
		lower_limit_ft  Nullable(Int32),
		upper_limit_ft  Nullable(Int32),
		latitude        Nullable(Float64),
		longitude       Nullable(Float64),
		radius_nm       Nullable(Float64),
		raw_text        String,
		parsed_json     String,
		source          LowCardinality(String),
		parsed_at       DateTime64(3),
		created_at      DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(parsed_at)
	ORDER BY (location, qcode, parsed_at, notam_id)
	SETTINGS index_granularity = 8192`

	if err := a.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// Add bloom filter index for full-text search (ignore error if already exists).
	_ = a.conn.Exec(ctx, `ALTER TABLE notams ADD INDEX IF NOT EXISTS idx_raw_text_bloom raw_text TYPE tokenbf_v1(32768, 3, 0) GRANULARITY 1`)

	return nil
}

// InsertBatch stores a batch of parsed NOTAMs in ClickHouse.
func (a *Archive) InsertBatch(ctx context.Context, ns []*notam.Notam) error {
	if len(ns) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO notams (notam_id, location, fir, qcode, category, traffic_type, scope,
			effective_from, effective_to, is_permanent, lower_limit_ft, upper_limit_ft,
			latitude, longitude, radius_nm, raw_text, parsed_json, source, parsed_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, n := range ns {
		parsedJSON, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal notam: %w", err)
		}

		var lat, lon *float64
		if n.Coordinate != nil {
			lat = &n.Coordinate.Latitude
			lon = &n.Coordinate.Longitude
		}
		var lower, upper *int32
		if n.LowerLimitFt != nil {
			v := int32(*n.LowerLimitFt)
			lower = &v
		}
		if n.UpperLimitFt != nil {
			v := int32(*n.UpperLimitFt)
			upper = &v
		}

		err = batch.Append(n.ID, n.Location, n.FIR, n.QCode, string(n.Category),
			n.TrafficType, n.Scope, n.EffectiveFrom, n.EffectiveTo, uint8(boolToInt(n.IsPermanent)),
			lower, upper, lat, lon, n.RadiusNm, n.RawText, string(parsedJSON), n.Source, n.ParsedAt)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Count returns the total number of archived NOTAMs, optionally filtered
// by location.
func (a *Archive) Count(ctx context.Context, location string) (uint64, error) {
	var count uint64
	var err error
	if location != "" {
		row := a.conn.QueryRow(ctx, "SELECT count() FROM notams WHERE location = ?", location)
		err = row.Scan(&count)
	} else {
		row := a.conn.QueryRow(ctx, "SELECT count() FROM notams")
		err = row.Scan(&count)
	}
	return count, err
}

// ArchiveStats contains aggregate statistics about archived NOTAMs.
type ArchiveStats struct {
	TotalNotams uint64
	ByLocation  map[string]uint64
	ByCategory  map[string]uint64
	ByQCode     map[string]uint64
}

// GetStats returns statistics about archived NOTAMs.
func (a *Archive) GetStats(ctx context.Context) (*ArchiveStats, error) {
	stats := &ArchiveStats{
		ByLocation: make(map[string]uint64),
		ByCategory: make(map[string]uint64),
		ByQCode:    make(map[string]uint64),
	}

	row := a.conn.QueryRow(ctx, "SELECT count() FROM notams")
	if err := row.Scan(&stats.TotalNotams); err != nil {
		return nil, err
	}

	groups := []struct {
		column string
		dest   map[string]uint64
	}{
		{"location", stats.ByLocation},
		{"category", stats.ByCategory},
		{"qcode", stats.ByQCode},
	}
	for _, g := range groups {
		query := fmt.Sprintf("SELECT %s, count() FROM notams GROUP BY %s ORDER BY count() DESC LIMIT 20", g.column, g.column)
		rows, err := a.conn.Query(ctx, query)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var key string
			var count uint64
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s stats: %w", g.column, err)
			}
			g.dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate %s stats: %w", g.column, err)
		}
		rows.Close()
	}

	return stats, nil
}

// Search finds archived NOTAMs whose raw text contains the given term,
// most recent first.
func (a *Archive) Search(ctx context.Context, term string, limit int) ([]*notam.Notam, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT parsed_json FROM notams WHERE positionCaseInsensitive(raw_text, ?) > 0
		ORDER BY parsed_at DESC LIMIT %d`, limit)
	rows, err := a.conn.Query(ctx, query, strings.TrimSpace(term))
	if err != nil {
		return nil, fmt.Errorf("search notams: %w", err)
	}
	defer rows.Close()

	var out []*notam.Notam
	for rows.Next() {
		var parsedJSON string
		if err := rows.Scan(&parsedJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var n notam.Notam
		if err := json.Unmarshal([]byte(parsedJSON), &n); err != nil {
			continue
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
