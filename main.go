package main

import (
	"flag"
	"fmt"
	"os"

	"leadfinder/config"
	"leadfinder/httpapi"
	"leadfinder/models"
	"leadfinder/scraper/gmaps"
	"leadfinder/services"
	"leadfinder/storage"
	"leadfinder/utils"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP API instead of a one-shot harvest")
	niche := flag.String("niche", "", "business niche to search for (one-shot mode)")
	city := flag.String("city", "", "city to search in (one-shot mode)")
	region := flag.String("region", "", "province/state (one-shot mode)")
	target := flag.Int("target", 10, "number of leads to collect (one-shot mode)")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Lead Finder starting ===")
	logger.Info("Config — storage: %s | session retries: %d | stable scrolls: %d | enrich: %v",
		cfg.StorageBackend, cfg.SessionRetries, cfg.StableScrolls, cfg.EnrichEmails)

	store, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to open lead store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	planner, err := services.NewPlanner(cfg.ExpandLocations)
	if err != nil {
		logger.Error("Failed to build query planner: %v", err)
		os.Exit(1)
	}

	sessions := gmaps.NewManager(cfg, logger)
	defer sessions.Shutdown()

	harvester := gmaps.NewHarvester(cfg, logger, sessions, planner, store)
	stats := services.NewStatsService(logger)

	var enricher *services.Enricher
	if cfg.EnrichEmails {
		enricher = services.NewEnricher(logger, cfg.EnrichTimeout, cfg.MaxConcurrency, cfg.RateLimitMs)
	}

	if *serve {
		srv := httpapi.NewServer(logger, harvester, store, stats, enricher)
		if err := srv.ListenAndServe(cfg.HTTPPort); err != nil {
			logger.Error("HTTP server failed: %v", err)
			os.Exit(1)
		}
		return
	}

	job := models.SearchJob{Niche: *niche, City: *city, Region: *region, TargetCount: *target}
	leads, err := harvester.Run(job)
	if err != nil {
		logger.Error("Harvest failed: %v", err)
		flag.Usage()
		os.Exit(1)
	}

	if enricher != nil {
		logger.Info("Enriching %d leads with website contact emails...", len(leads))
		enricher.EnrichAll(leads)
		for _, l := range leads {
			if l.ContactEmail == "" {
				continue
			}
			if err := store.Upsert(l); err != nil {
				logger.Error("Persisting enriched lead %s: %v", l.BusinessName, err)
			}
		}
	}

	if len(leads) > 0 {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
		} else {
			if err := csvWriter.Export(leads); err != nil {
				logger.Error("CSV export failed: %v", err)
			} else {
				logger.Info("Leads exported to %s", cfg.CSVOutputPath)
			}
			_ = csvWriter.Close()
		}
	}

	stats.Print(stats.Compute(leads))

	fmt.Printf("  Done. Collected %d/%d leads → %s (%s backend)\n\n",
		len(leads), job.TargetCount, cfg.CSVOutputPath, cfg.StorageBackend)
}

func openStore(cfg *config.Config) (storage.LeadStore, error) {
	switch cfg.StorageBackend {
	case "postgres":
		return storage.NewPostgresStore(cfg.DSN())
	default:
		return storage.NewSQLiteStore(cfg.SQLitePath)
	}
}
