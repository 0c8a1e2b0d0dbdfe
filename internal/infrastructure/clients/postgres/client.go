package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/glowtrip/procedure-recommender/pkg/config"
	"github.com/glowtrip/procedure-recommender/pkg/retry"
)

// Client represents a PostgreSQL database client
type Client struct {
	db *sqlx.DB
}

// NewClient creates a new PostgreSQL client with exponential backoff retry
func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sqlx.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger := log.With().Str("component", "postgres").Logger()
	err = retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"PostgreSQL",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
		&logger,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after retries: %w", err)
	}

	logger.Info().Msg("connected to PostgreSQL")
	return &Client{db: db}, nil
}

// NewClientWithDB wraps an existing connection. Used by adapter tests to
// substitute a mocked driver.
func NewClientWithDB(db *sql.DB) *Client {
	return &Client{db: sqlx.NewDb(db, "postgres")}
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db.DB
}

// DBX returns the sqlx wrapper used by adapters for struct scanning
func (c *Client) DBX() *sqlx.DB {
	return c.db
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
