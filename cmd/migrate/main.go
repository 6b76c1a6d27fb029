package main

// Run database migrations:
//   go run ./cmd/migrate            apply pending migrations
//   go run ./cmd/migrate -down      roll back the latest migration
//   go run ./cmd/migrate -status    print the current version

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"resume-reviewer/internal/shared/config"
	"resume-reviewer/internal/shared/storage/db"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	status := flag.Bool("status", false, "print the current schema version")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFor(db.RoleMigrate)
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch {
	case *status:
		version, err := db.MigrationVersion(sqlDB)
		if err != nil {
			log.Printf("failed to read migration version: %v", err)
			os.Exit(1)
		}
		fmt.Printf("schema version %d\n", version)
	case *down:
		if err := db.RollbackMigration(ctx, sqlDB); err != nil {
			log.Printf("failed to roll back migration: %v", err)
			os.Exit(1)
		}
	default:
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Printf("failed to run migrations: %v", err)
			os.Exit(1)
		}
	}
}
