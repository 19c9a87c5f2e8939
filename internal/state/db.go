// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
// Amount columns are NUMERIC(78,0): big enough for any 256-bit integer, so
// micro amounts round-trip without precision loss.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS harvest_receipts (
			receipt_id SERIAL PRIMARY KEY,
			harvest_id UUID NOT NULL,
			harvest_number INTEGER NOT NULL,
			harvest_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			caller VARCHAR(90) NOT NULL,
			claimed_idle NUMERIC(78, 0) NOT NULL,
			skim_amount NUMERIC(78, 0) NOT NULL,
			aux_obtained NUMERIC(78, 0) NOT NULL,
			call_fee NUMERIC(78, 0) NOT NULL,
			rewards_fee NUMERIC(78, 0) NOT NULL,
			restaked NUMERIC(78, 0) NOT NULL,
			success BOOLEAN NOT NULL,
			message TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_harvest_receipts_timestamp ON harvest_receipts(harvest_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_harvest_receipts_number ON harvest_receipts(harvest_number DESC);
		CREATE INDEX IF NOT EXISTS idx_harvest_receipts_success ON harvest_receipts(success);

		CREATE TABLE IF NOT EXISTS lifecycle_events (
			event_id SERIAL PRIMARY KEY,
			event_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			previous_status VARCHAR(16) NOT NULL,
			new_status VARCHAR(16) NOT NULL,
			actor VARCHAR(90) NOT NULL,
			reason TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_lifecycle_events_timestamp ON lifecycle_events(event_timestamp DESC);

		CREATE TABLE IF NOT EXISTS balance_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			idle_amount NUMERIC(78, 0) NOT NULL,
			staked_amount NUMERIC(78, 0) NOT NULL,
			total_amount NUMERIC(78, 0) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_balance_snapshots_timestamp ON balance_snapshots(snapshot_timestamp DESC);

		-- Harvest counter table for persistent global harvest tracking
		CREATE TABLE IF NOT EXISTS harvest_counter (
			id INTEGER PRIMARY KEY DEFAULT 1,
			current_harvest INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT single_row_check CHECK (id = 1)
		);

		-- Insert initial row if it doesn't exist
		INSERT INTO harvest_counter (id, current_harvest)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
