package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notam_parser/internal/notam"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// AirportDB wraps a PostgreSQL connection pool holding airport reference
// data used for coordinate backfill and route building.
type AirportDB struct {
	pool *pgxpool.Pool
}

// OpenAirportDB opens a connection pool to PostgreSQL.
func OpenAirportDB(ctx context.Context, cfg PostgresConfig) (*AirportDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &AirportDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *AirportDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *AirportDB) CreateSchema(ctx context.Context) error {
	schema := `
	-- Reference data: Airports
	CREATE TABLE IF NOT EXISTS airports (
		icao            TEXT PRIMARY KEY,
		iata            TEXT,
		name            TEXT NOT NULL,
		latitude        DOUBLE PRECISION NOT NULL,
		longitude       DOUBLE PRECISION NOT NULL,
		elevation_ft    INTEGER,
		country         TEXT,
		fir             TEXT,
		first_seen      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_seen       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_airports_iata ON airports(iata);
	CREATE INDEX IF NOT EXISTS idx_airports_country ON airports(country);
	CREATE INDEX IF NOT EXISTS idx_airports_fir ON airports(fir);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// AirportRecord is an airport reference row.
type AirportRecord struct {
	ICAO        string
	IATA        string
	Name        string
	Latitude    float64
	Longitude   float64
	ElevationFt *int
	Country     string
	FIR         string
	FirstSeen   time.Time
	LastSeen    time.Time
}

// UpsertAirport inserts or updates an airport record.
func (d *AirportDB) UpsertAirport(ctx context.Context, a AirportRecord) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO airports (icao, iata, name, latitude, longitude, elevation_ft, country, fir, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (icao) DO UPDATE SET
			iata = COALESCE(NULLIF(EXCLUDED.iata, ''), airports.iata),
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			elevation_ft = COALESCE(EXCLUDED.elevation_ft, airports.elevation_ft),
			country = COALESCE(NULLIF(EXCLUDED.country, ''), airports.country),
			fir = COALESCE(NULLIF(EXCLUDED.fir, ''), airports.fir),
			last_seen = NOW()
	`, a.ICAO, a.IATA, a.Name, a.Latitude, a.Longitude, a.ElevationFt, a.Country, a.FIR)
	return err
}

// GetAirport retrieves an airport by ICAO code, or nil when unknown.
func (d *AirportDB) GetAirport(ctx context.Context, icao string) (*AirportRecord, error) {
	var a AirportRecord
	var iata, country, fir *string
	err := d.pool.QueryRow(ctx, `
		SELECT icao, iata, name, latitude, longitude, elevation_ft, country, fir, first_seen, last_seen
		FROM airports WHERE icao = $1
	`, icao).Scan(&a.ICAO, &iata, &a.Name, &a.Latitude, &a.Longitude, &a.ElevationFt, &country, &fir, &a.FirstSeen, &a.LastSeen)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if iata != nil {
		a.IATA = *iata
	}
	if country != nil {
		a.Country = *country
	}
	if fir != nil {
		a.FIR = *fir
	}
	return &a, nil
}

// ListAirportsInFIR retrieves all airports inside a FIR.
func (d *AirportDB) ListAirportsInFIR(ctx context.Context, fir string) ([]AirportRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT icao, iata, name, latitude, longitude, elevation_ft, country, fir, first_seen, last_seen
		FROM airports WHERE fir = $1 ORDER BY icao
	`, fir)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var airports []AirportRecord
	for rows.Next() {
		var a AirportRecord
		var iata, country, rowFIR *string
		if err := rows.Scan(&a.ICAO, &iata, &a.Name, &a.Latitude, &a.Longitude, &a.ElevationFt, &country, &rowFIR, &a.FirstSeen, &a.LastSeen); err != nil {
			return nil, err
		}
		if iata != nil {
			a.IATA = *iata
		}
		if country != nil {
			a.Country = *country
		}
		if rowFIR != nil {
			a.FIR = *rowFIR
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

// LocateAirport resolves an ICAO code to its reference coordinate,
// returning nil for unknown airports or lookup failures so enrichment
// degrades instead of erroring.
func (d *AirportDB) LocateAirport(icao string) *notam.Coordinate {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, err := d.GetAirport(ctx, icao)
	if err != nil {
		log.Printf("airport lookup %s: %v", icao, err)
		return nil
	}
	if a == nil {
		return nil
	}
	return &notam.Coordinate{Latitude: a.Latitude, Longitude: a.Longitude}
}

// Pool returns the underlying connection pool for advanced operations.
func (d *AirportDB) Pool() *pgxpool.Pool {
	return d.pool
}
