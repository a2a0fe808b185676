package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/pkg/healthcheck"
)

// AdminServer serves metrics and health endpoints on the monitoring port, away from
// the public API
type AdminServer struct {
	server *http.Server
	engine *gin.Engine
	logger *zap.Logger
}

// NewAdminServer builds the gin engine. metrics may be nil when metrics are disabled.
func NewAdminServer(cfg config.MonitoringConfig, debug bool, metrics *MetricsCollector, health *healthcheck.HealthCheck, logger *zap.Logger) *AdminServer {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthPath := cfg.HealthCheckPath
	if healthPath == "" {
		healthPath = "/health"
	}
	readyPath := cfg.ReadinessPath
	if readyPath == "" {
		readyPath = "/ready"
	}

	engine.GET(healthPath, health.Handler())
	engine.GET(readyPath, health.ReadinessHandler())
	engine.GET("/live", health.LivenessHandler())
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	port := cfg.MetricsPort
	if port == 0 {
		port = 9090
	}
	return &AdminServer{
		engine: engine,
		logger: logger.Named("admin"),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the engine for tests
func (a *AdminServer) Handler() http.Handler {
	return a.engine
}

// Start serves until Shutdown
func (a *AdminServer) Start() error {
	a.logger.Info("Starting admin server", zap.String("address", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the admin server
func (a *AdminServer) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
