package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/StayPulseHQ/staypulse/internal/platform/config"
	"github.com/StayPulseHQ/staypulse/internal/platform/logger"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command (up, down, force)")
		version = flag.Int("version", 1, "Version for the force command")
		source  = flag.String("source", "file://migrations", "Migration source URL")
	)
	flag.Parse()

	cfg, err := config.Load("migrate")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel).With("service", "migrate")

	pgxCfg, err := pgx.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		log.Error("Failed to parse Postgres DSN", "error", err)
		os.Exit(1)
	}
	db := stdlib.OpenDB(*pgxCfg)
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		log.Error("Failed to create migration driver", "error", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance(*source, "postgres", driver)
	if err != nil {
		log.Error("Failed to create migrator", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		log.Info("Applying migrations...")
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations applied")
	case "down":
		log.Info("Reverting migrations...")
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Error("Failed to revert migrations", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations reverted")
	case "force":
		log.Info("Forcing migration version", "version", *version)
		if err := m.Force(*version); err != nil {
			log.Error("Failed to force migration version", "error", err)
			os.Exit(1)
		}
		log.Info("Migration version forced")
	default:
		log.Error("Unknown command", "command", *command)
		os.Exit(1)
	}
}
