package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glowtrip/procedure-recommender/internal/adapters/database"
	"github.com/glowtrip/procedure-recommender/internal/adapters/search"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/postgres"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/typesense"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/observability"
	"github.com/glowtrip/procedure-recommender/pkg/config"
)

func main() {
	var reset bool
	var languagesFlag string
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection before reindexing")
	flag.StringVar(&languagesFlag, "languages", "ko,en,ja,zh", "comma-separated catalog languages to index")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("procedure-indexer", os.Getenv("APP_ENV"))
	logger := observability.GetLogger()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		var err error
		interval, err = time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			logger.Fatal().Str("interval", intervalValue).Msg("interval must be a positive duration")
		}
	}

	languages := []string{}
	for _, lang := range strings.Split(languagesFlag, ",") {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	if len(languages) == 0 {
		logger.Fatal().Msg("at least one language is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset, languages); err != nil {
			logger.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("interval", interval).Msg("reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			logger.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool, languages []string) error {
	logger := observability.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		if _, err := tsClient.Client().Collection(typesense.ProceduresCollection).Delete(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	procedureRepo := database.NewProcedureAdapter(pgClient)

	for _, language := range languages {
		procedures, err := procedureRepo.List(ctx, repositories.ProcedureFilter{
			Language:        language,
			IncludeInactive: true,
		})
		if err != nil {
			logger.Warn().Err(err).Str("language", language).Msg("failed to list procedures")
			continue
		}

		indexed, pruned := 0, 0
		for _, p := range procedures {
			if !p.IsActive {
				// Deactivated records must disappear from search results.
				if err := adapter.Delete(ctx, p.ID); err != nil {
					logger.Debug().Err(err).Str("id", p.ID).Msg("failed to prune procedure")
				} else {
					pruned++
				}
				continue
			}
			if err := adapter.Index(ctx, p); err != nil {
				logger.Warn().Err(err).Str("id", p.ID).Msg("failed to index procedure")
				continue
			}
			indexed++
		}

		logger.Info().
			Str("language", language).
			Int("indexed", indexed).
			Int("pruned", pruned).
			Msg("language catalog indexed")
	}

	return nil
}
