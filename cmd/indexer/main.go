package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/adapters/database"
	"github.com/annuaire-sante/backend/internal/adapters/search"
	"github.com/annuaire-sante/backend/internal/application/services"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/typesense"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
	"github.com/annuaire-sante/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "drop the Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Env)

	var interval time.Duration
	if value := strings.TrimSpace(intervalFlag); value != "" {
		interval, err = time.ParseDuration(value)
		if err != nil {
			log.Fatal().Err(err).Str("interval", value).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Typesense client")
	}

	indexSync := services.NewIndexSyncService(
		database.NewStructureAdapter(pgClient),
		search.NewTypesenseAdapter(tsClient),
		nil,
	)

	for {
		start := time.Now()
		indexed, err := indexSync.ReindexAll(ctx, reset)
		if err != nil {
			log.Error().Err(err).Msg("reindex failed")
		} else {
			log.Info().Int("indexed", indexed).Dur("took", time.Since(start)).Msg("reindex complete")
		}

		if interval <= 0 {
			if err != nil {
				os.Exit(1)
			}
			return
		}

		reset = false
		log.Info().Dur("interval", interval).Msg("next reindex scheduled")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}
