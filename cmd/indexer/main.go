package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/adapters/search"
	"github.com/virtuefdn/medbridge/backend/internal/domain/repositories"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/postgres"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/typesense"
	"github.com/virtuefdn/medbridge/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var source repositories.FacilitySource
	switch cfg.Catalog.Source {
	case "postgres":
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return err
		}
		defer pgClient.Close()
		source = catalog.NewPostgresSource(pgClient)
	default:
		source = catalog.NewCSVSource(cfg.Catalog.CSVPath)
	}

	rows, err := source.LoadAll(ctx)
	if err != nil {
		return err
	}
	table := catalog.Build(rows)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Reset requested, deleting facilities collection")
		_, err := tsClient.Client().Collection(typesense.FacilitiesCollection).Delete(ctx)
		if err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	adapter := search.NewVectorAdapter(tsClient)
	if err := adapter.EnsureSchema(ctx); err != nil {
		return err
	}

	facilities := table.Facilities()
	log.Printf("Indexing %d facilities...", len(facilities))

	indexed, failed := 0, 0
	for _, f := range facilities {
		if err := adapter.Index(ctx, f); err != nil {
			failed++
			log.Printf("Failed to index facility %s: %v", f.PKUniqueID, err)
			continue
		}
		indexed++
		if indexed%100 == 0 {
			log.Printf("Indexed %d/%d facilities", indexed, len(facilities))
		}
	}

	log.Printf("Indexing complete: %d indexed, %d failed.", indexed, failed)
	return nil
}
