package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"helmetwatch/internal/config"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/repository/sqlite"
	"helmetwatch/internal/service/storage"
	"helmetwatch/internal/service/violation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	violationsDir := flag.String("violations", cfg.ViolationDirectory, "Directory containing violation clips")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	prune := flag.Bool("prune", false, "Remove index rows whose clip file is missing")
	flag.Parse()

	cfg.ViolationDirectory = *violationsDir
	cfg.DatabasePath = *dbPath

	fmt.Printf("Indexing clips from %s into database %s\n", cfg.ViolationDirectory, cfg.DatabasePath)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store := storage.NewClipStore(cfg, logger.NewWriterLogger(os.Stdout), sqlite.NewClipRepository(db))
	result, err := store.Reindex(violation.FromConfig(cfg).KindForLabel, *prune)
	if err != nil {
		log.Fatalf("Reindex failed: %v", err)
	}

	fmt.Printf("✅ Added %d clips, %d already indexed, %d skipped", result.Added, result.Present, result.Skipped)
	if *prune {
		fmt.Printf(", %d pruned", result.Pruned)
	}
	fmt.Println()
}
