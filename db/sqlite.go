// Package db reads training listings from a SQL database.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/sijms/go-ora/v2"

	"houseprice/pipeline"
)

const (
	DriverSQLite = "sqlite3"
	DriverOracle = "oracle"

	// DefaultListingsQuery reads the table created by InitSchema.
	DefaultListingsQuery = "SELECT location, total_sqft, bath, bhk, price FROM listings"
)

// Store is a listings source backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to a listings database. driver is DriverSQLite or DriverOracle.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverOracle:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	database.SetMaxOpenConns(4)
	database.SetConnMaxLifetime(1 * time.Hour)
	return &Store{db: database, driver: driver}, nil
}

// OracleDSN builds a go-ora connection URL with escaped credentials.
func OracleDSN(username, password, host, port, service string) string {
	return (&url.URL{
		Scheme: "oracle",
		User:   url.UserPassword(username, password),
		Host:   host + ":" + port,
		Path:   "/" + service,
	}).String()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the listings table. SQLite only; Oracle datasets are
// expected to exist already.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.driver != DriverSQLite {
		return errors.New("InitSchema is only supported for sqlite3")
	}
	_, err := s.db.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS listings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        location TEXT NOT NULL,
        total_sqft REAL NOT NULL,
        bath REAL,
        bhk REAL NOT NULL,
        price REAL NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(location);
    `)
	return err
}

// InsertListings stages rows into the sqlite listings table in one transaction.
func (s *Store) InsertListings(ctx context.Context, listings []pipeline.Listing) error {
	if s.driver != DriverSQLite {
		return errors.New("InsertListings is only supported for sqlite3")
	}
	if len(listings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO listings (location, total_sqft, bath, bhk, price)
        VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range listings {
		if _, err := stmt.ExecContext(ctx, l.Location, l.TotalSqft, l.Bath, l.BHK, l.Price); err != nil {
			return fmt.Errorf("insert listing %q: %w", l.Location, err)
		}
	}
	return tx.Commit()
}

// QueryListings runs query, which must yield location, total_sqft, bath,
// bhk and price in that order. Rows with NULLs or unusable numbers are
// skipped and counted.
func (s *Store) QueryListings(ctx context.Context, query string) ([]pipeline.Listing, pipeline.ReadStats, error) {
	var stats pipeline.ReadStats
	if query == "" {
		query = DefaultListingsQuery
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, stats, err
	}
	defer rows.Close()

	var listings []pipeline.Listing
	for rows.Next() {
		var (
			location               sql.NullString
			sqft, bath, bhk, price sql.NullFloat64
		)
		if err := rows.Scan(&location, &sqft, &bath, &bhk, &price); err != nil {
			return nil, stats, err
		}
		if !location.Valid || !sqft.Valid || !bath.Valid || !bhk.Valid || !price.Valid {
			stats.Skipped++
			continue
		}
		listing := pipeline.Listing{
			Location:  location.String,
			TotalSqft: sqft.Float64,
			Bath:      bath.Float64,
			BHK:       bhk.Float64,
			Price:     price.Float64,
		}
		if !listing.Valid() {
			stats.Skipped++
			continue
		}
		listings = append(listings, listing)
		stats.Rows++
	}
	if err := rows.Err(); err != nil {
		return nil, stats, err
	}
	if len(listings) == 0 {
		return nil, stats, pipeline.ErrEmptyDataset
	}
	return listings, stats, nil
}
