// Command migrate manages the PostgreSQL schema.
//
//	migrate up
//	migrate down
//	migrate steps -n 1
//	migrate force -v 3
//	migrate version
package main

import (
	"flag"
	"fmt"
	"os"

	"trip-finance-ledger/config"
	pgStorage "trip-finance-ledger/internal/adapter/storage/postgres"
	"trip-finance-ledger/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	steps := fs.Int("n", 0, "number of steps (negative rolls back)")
	version := fs.Int("v", -1, "version to force")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	m, err := pgStorage.NewMigrator(cfg.Database.MigrateURL(), cfg.Storage.MigrationsPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close migrator")
		}
	}()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if *steps == 0 {
			log.Fatal().Msg("steps requires -n")
		}
		err = m.Steps(*steps)
	case "force":
		if *version < 0 {
			log.Fatal().Msg("force requires -v")
		}
		err = m.Force(*version)
	case "version":
		v, dirty, verr := m.Version()
		if verr == nil {
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
		}
		err = verr
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", cmd).Msg("Migration failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate <up|down|steps -n N|force -v V|version> [-config path]")
}
