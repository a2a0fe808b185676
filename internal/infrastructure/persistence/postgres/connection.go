// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	gormModels "github.com/alchemorsel/fusionchef/internal/infrastructure/persistence/gorm"
)

// ConnectionManager manages the PostgreSQL primary and its read replicas
type ConnectionManager struct {
	config  *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	writeDB *sql.DB
}

// NewConnectionManager opens the primary connection and registers read replicas
func NewConnectionManager(cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	cm := &ConnectionManager{
		config: cfg,
		logger: log.Named("postgres"),
	}

	if err := cm.initializePrimaryConnection(); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if err := cm.initializeReadReplicas(); err != nil {
		cm.logger.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	cm.logger.Info("Database connection manager initialized",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		zap.Duration("conn_max_lifetime", cfg.Database.ConnMaxLifetime),
		zap.Int("read_replicas", len(cfg.Database.ReadReplicas)),
	)

	return cm, nil
}

// initializePrimaryConnection sets up the primary database connection
func (cm *ConnectionManager) initializePrimaryConnection() error {
	dbCfg := cm.config.Database

	db, err := gorm.Open(postgres.Open(cm.config.GetDSN()), &gorm.Config{
		Logger:                 gormModels.NewLogger(cm.logger, dbCfg.LogLevel, dbCfg.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.writeDB = sqlDB
	return nil
}

// initializeReadReplicas routes reads to replicas through the GORM DB resolver
func (cm *ConnectionManager) initializeReadReplicas() error {
	dbCfg := cm.config.Database
	if len(dbCfg.ReadReplicas) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(dbCfg.ReadReplicas))
	for i, host := range dbCfg.ReadReplicas {
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			host,
			dbCfg.Port,
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Database,
			dbCfg.SSLMode,
		)
		replicas[i] = postgres.Open(dsn)
	}

	err := cm.db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(dbCfg.MaxOpenConns).
		SetMaxIdleConns(dbCfg.MaxIdleConns).
		SetConnMaxLifetime(dbCfg.ConnMaxLifetime))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	cm.logger.Info("Read replicas configured", zap.Int("replica_count", len(dbCfg.ReadReplicas)))
	return nil
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// SQLDB returns the primary pool, used for migrations and pool metrics
func (cm *ConnectionManager) SQLDB() *sql.DB {
	return cm.writeDB
}

// HealthCheck pings the primary
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	return nil
}

// Close closes the primary pool
func (cm *ConnectionManager) Close() error {
	if cm.writeDB == nil {
		return nil
	}
	if err := cm.writeDB.Close(); err != nil {
		cm.logger.Error("Failed to close primary database", zap.Error(err))
		return err
	}
	return nil
}
