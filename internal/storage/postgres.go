package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of pgxpool.Pool the store needs. The seam exists so
// tests can substitute a pgxmock pool.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// NewDatabase connects to PostgreSQL and verifies the connection with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, dbname string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, dbname)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// PostgresStore persists records in a single leads table.
type PostgresStore struct {
	db  Database
	log *slog.Logger
}

// NewPostgresStore creates a PostgreSQL backed store.
func NewPostgresStore(db Database, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

const schemaQuery = `
	CREATE TABLE IF NOT EXISTS leads (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		phone TEXT,
		email_guess TEXT,
		website TEXT,
		rating DOUBLE PRECISION,
		review_count INTEGER,
		business_status TEXT,
		primary_type TEXT,
		all_types TEXT,
		opening_hours TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		place_id TEXT,
		search_query TEXT,
		search_location TEXT,
		scraped_at TEXT
	);
`

const insertQuery = `
	INSERT INTO leads (
		name, address, phone, email_guess, website, rating, review_count,
		business_status, primary_type, all_types, opening_hours,
		latitude, longitude, place_id, search_query, search_location, scraped_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
	);
`

const selectQuery = `
	SELECT
		name, address, phone, email_guess, website, rating, review_count,
		business_status, primary_type, all_types, opening_hours,
		latitude, longitude, place_id, search_query, search_location, scraped_at
	FROM leads
	ORDER BY id ASC;
`

// EnsureSchema creates the leads table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaQuery); err != nil {
		return fmt.Errorf("failed to create leads table: %w", err)
	}
	return nil
}

// Append inserts the records one by one.
func (s *PostgresStore) Append(ctx context.Context, records []models.BusinessRecord) error {
	for _, rec := range records {
		allTypes := strings.Join(rec.AllTypes, ", ")
		_, err := s.db.Exec(ctx, insertQuery,
			rec.Name, rec.Address, rec.Phone, rec.EmailGuess, rec.Website,
			rec.Rating, rec.ReviewCount, rec.BusinessStatus, rec.PrimaryType,
			allTypes, rec.OpeningHours, rec.Latitude, rec.Longitude,
			rec.PlaceID, rec.SearchQuery, rec.SearchLocation, rec.ScrapedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert lead: %w", err)
		}
	}
	s.log.DebugContext(ctx, "flushed records to postgres", "count", len(records))
	return nil
}

// Load reads the full dataset back in insertion order.
func (s *PostgresStore) Load(ctx context.Context) ([]models.BusinessRecord, error) {
	rows, err := s.db.Query(ctx, selectQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var records []models.BusinessRecord
	for rows.Next() {
		var rec models.BusinessRecord
		var allTypes string
		errScan := rows.Scan(
			&rec.Name, &rec.Address, &rec.Phone, &rec.EmailGuess, &rec.Website,
			&rec.Rating, &rec.ReviewCount, &rec.BusinessStatus, &rec.PrimaryType,
			&allTypes, &rec.OpeningHours, &rec.Latitude, &rec.Longitude,
			&rec.PlaceID, &rec.SearchQuery, &rec.SearchLocation, &rec.ScrapedAt,
		)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", errScan)
		}
		if errTypes := rec.AllTypes.UnmarshalCSV(allTypes); errTypes != nil {
			return nil, fmt.Errorf("failed to parse lead types: %w", errTypes)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return records, nil
}

// Stats summarizes the persisted dataset.
func (s *PostgresStore) Stats(ctx context.Context) (models.Stats, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return ComputeStats(records), nil
}
