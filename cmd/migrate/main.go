// Package main provides the schema migration tool for the postgres recipe store
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/fusionchef/pkg/logger"
)

// CLIConfig configures the tool
type CLIConfig struct {
	ConfigFile string
	Command    string
	Steps      int
	Version    int
}

func main() {
	cli := parseFlags()
	_ = godotenv.Load()

	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("Migrations only apply to the postgres driver, got %q", cfg.Database.Driver)
	}

	zl, err := logger.New(logger.Config{Level: "info", Format: cfg.App.LogFormat})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	db, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		zl.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	m, err := migrations.New(db, cfg.Database.Database, zl)
	if err != nil {
		zl.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := run(m, cli); err != nil {
		zl.Error("Migration failed", zap.String("command", cli.Command), zap.Error(err))
		os.Exit(1)
	}
}

func parseFlags() CLIConfig {
	cli := CLIConfig{}
	flag.StringVar(&cli.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&cli.Command, "command", "up", "Command to execute (up, down, steps, force, version, reset)")
	flag.IntVar(&cli.Steps, "steps", 1, "Steps for the steps command; negative rolls back")
	flag.IntVar(&cli.Version, "version", -1, "Version for the force command")
	flag.Parse()
	return cli
}

func run(m *migrations.Migrator, cli CLIConfig) error {
	switch cli.Command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "reset":
		return m.Reset()
	case "steps":
		return m.Steps(cli.Steps)
	case "force":
		if cli.Version < 0 {
			return fmt.Errorf("force needs -version")
		}
		return m.Force(cli.Version)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cli.Command)
	}
}
