package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"

	"github.com/glowtrip/procedure-recommender/pkg/config"
	"github.com/glowtrip/procedure-recommender/pkg/retry"
)

const (
	// ProceduresCollection is the search collection holding catalog records.
	ProceduresCollection = "procedures"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	logger := log.With().Str("component", "typesense").Logger()
	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		&logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	logger.Info().Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}
