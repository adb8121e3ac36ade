package main

import (
	"context"
	"flag"
	"os"

	"github.com/dkovalev/docximport/internal/logger"
	"github.com/dkovalev/docximport/internal/pipeline"
	"github.com/dkovalev/docximport/internal/store"
)

var (
	driver        = flag.String("driver", envOr("DB_DRIVER", "postgres"), "Database driver: postgres or sqlite")
	dsn           = flag.String("dsn", os.Getenv("DATABASE_URL"), "Database connection string")
	createTargets = flag.Bool("targets", false, "Also create tables for the built-in import targets")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()

	log := logger.New()

	if *dsn == "" {
		log.Fatal().Msg("No database configured - set DATABASE_URL or pass -dsn")
	}

	ctx := context.Background()

	st, err := store.Open(ctx, *driver, *dsn, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Msg("Metadata tables ready")

	if *createTargets {
		registry := pipeline.DefaultRegistry()
		for _, name := range registry.Names() {
			t, _ := registry.Lookup(name)
			if err := st.CreateTargetTable(ctx, t.Schema); err != nil {
				log.Fatal().Err(err).Str("target", name).Msg("Failed to create target table")
			}
		}
	}
}
