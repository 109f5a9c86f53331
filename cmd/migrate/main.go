package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dafibh/tally/tally-backend/internal/config"
	"github.com/dafibh/tally/tally-backend/internal/repository/postgres"
	"github.com/dafibh/tally/tally-backend/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	server.SetupLogger(os.Getenv("ENV"))

	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("Migration error")
	}
}

func run(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: migrate <budget|ledger> <up|down|version> [N]")
	}

	databaseURL, err := config.DatabaseURL()
	if err != nil {
		return err
	}

	schema := postgres.Schema(args[0])
	m, err := postgres.NewMigrator(databaseURL, schema)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close migrator")
		}
	}()

	switch args[1] {
	case "up":
		if err := m.Up(); err != nil {
			return err
		}
		log.Info().Str("schema", string(schema)).Msg("Migrations applied successfully")

	case "down":
		steps := 1
		if len(args) > 2 {
			steps, err = strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid step count: %w", err)
			}
		}
		if err := m.Down(steps); err != nil {
			return err
		}
		log.Info().Str("schema", string(schema)).Int("steps", steps).Msg("Rolled back migrations")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info().Str("schema", string(schema)).Uint("version", version).Bool("dirty", dirty).Msg("Migration version")

	default:
		return fmt.Errorf("unknown command: %s (use up, down, or version)", args[1])
	}

	return nil
}
