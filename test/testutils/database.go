//go:build integration

// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/migrations"
)

// TestDatabase provides a test database instance with cleanup
type TestDatabase struct {
	Container testcontainers.Container
	DB        *sql.DB
	GormDB    *gorm.DB
	DSN       string
	name      string
	t         *testing.T
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "fusionchef_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432",
	}
}

// SetupTestDatabase creates a new test database using testcontainers
func SetupTestDatabase(t *testing.T) *TestDatabase {
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig creates a test database with custom configuration
func SetupTestDatabaseWithConfig(t *testing.T, cfg DatabaseConfig) *TestDatabase {
	ctx := context.Background()

	dsnFor := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Username, cfg.Password, host, port.Port(), cfg.Database)
	}

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        cfg.Image,
				ExposedPorts: []string{cfg.Port + "/tcp"},
				Env: map[string]string{
					"POSTGRES_DB":       cfg.Database,
					"POSTGRES_USER":     cfg.Username,
					"POSTGRES_PASSWORD": cfg.Password,
				},
				WaitingFor: wait.ForAll(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(60*time.Second),
					wait.ForSQL(nat.Port(cfg.Port+"/tcp"), "pgx", dsnFor),
				),
				Tmpfs: map[string]string{
					"/var/lib/postgresql/data": "rw,noexec,nosuid,size=256m",
				},
			},
			Started: true,
		})
	require.NoError(t, err, "Failed to start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port(cfg.Port+"/tcp"))
	require.NoError(t, err)
	dsn := dsnFor(host, port)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.Ping(), "Failed to ping test database")

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Suppress logs in tests
	})
	require.NoError(t, err, "Failed to create GORM connection")

	testDB := &TestDatabase{
		Container: container,
		DB:        db,
		GormDB:    gormDB,
		DSN:       dsn,
		name:      cfg.Database,
		t:         t,
	}
	t.Cleanup(testDB.Cleanup)
	return testDB
}

// RunMigrations applies the embedded schema
func (td *TestDatabase) RunMigrations() error {
	m, err := migrations.New(td.DB, td.name, zap.NewNop())
	if err != nil {
		return err
	}
	return m.Up()
}

// TruncateAllTables removes all data from tables while preserving structure
func (td *TestDatabase) TruncateAllTables() error {
	_, err := td.DB.Exec("TRUNCATE TABLE recipe_comments, recipes RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// CountRecords counts records in a table
func (td *TestDatabase) CountRecords(table string) (int, error) {
	var count int
	err := td.DB.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	return count, err
}

// Cleanup closes all connections and stops the container
func (td *TestDatabase) Cleanup() {
	if sqlDB, err := td.GormDB.DB(); err == nil {
		sqlDB.Close()
	}
	if td.DB != nil {
		td.DB.Close()
	}
	if td.Container != nil {
		if err := td.Container.Terminate(context.Background()); err != nil {
			td.t.Logf("Failed to terminate postgres container: %v", err)
		}
	}
}
