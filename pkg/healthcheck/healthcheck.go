// Package healthcheck provides health and readiness check functionality
// Following the Health Check API pattern for cloud-native applications
package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check represents a health check
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ms"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response represents the health check response
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"total_duration_ms"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// HealthCheck manages health checks
type HealthCheck struct {
	version  string
	checkers map[string]Checker
	logger   *zap.Logger
	mu       sync.RWMutex
	cache    *Response
	cacheTTL time.Duration
}

// New creates a new health check instance
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		checkers: make(map[string]Checker),
		logger:   logger,
		cacheTTL: 5 * time.Second,
	}
}

// Register registers a health checker
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// SetCacheTTL sets the cache TTL for health check responses
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// Handler returns the HTTP handler for health checks
func (h *HealthCheck) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := h.Check(c.Request.Context())

		// Determine HTTP status code
		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}

// LivenessHandler returns the HTTP handler for liveness checks
func (h *HealthCheck) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Simple liveness check - if the handler responds, the service is alive
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

// ReadinessHandler returns the HTTP handler for readiness checks
func (h *HealthCheck) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := h.Check(c.Request.Context())

		// Degraded optional backends do not take the service out of rotation
		if response.Status == StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": "Health checks failed",
				"checks": response.Checks,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

// Check performs all health checks
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	// Check cache
	if h.cache != nil && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	h.mu.RUnlock()

	start := time.Now()
	response := Response{
		Version:   h.version,
		Timestamp: start,
		Status:    StatusHealthy,
		Checks:    []Check{},
	}

	// Create context with timeout
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Run checks concurrently
	var wg sync.WaitGroup
	checksChan := make(chan Check, len(h.checkers))

	h.mu.RLock()
	for name, checker := range h.checkers {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			check := c.Check(checkCtx)
			check.Name = n
			checksChan <- check
		}(name, checker)
	}
	h.mu.RUnlock()

	// Wait for all checks to complete
	go func() {
		wg.Wait()
		close(checksChan)
	}()

	// Collect results
	for check := range checksChan {
		response.Checks = append(response.Checks, check)

		// Update overall status
		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	response.TotalDuration = time.Since(start)

	// Update cache
	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// DatabaseChecker checks database health
type DatabaseChecker struct {
	db *sql.DB
}

// NewDatabaseChecker creates a new database checker
func NewDatabaseChecker(db *sql.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

// Check performs database health check
func (d *DatabaseChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        "database",
		LastChecked: start,
	}

	// Perform ping
	err := d.db.PingContext(ctx)
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	// Get pool stats
	stats := d.db.Stats()
	check.Status = StatusHealthy
	check.Metadata = map[string]interface{}{
		"open_conns": stats.OpenConnections,
		"idle_conns": stats.Idle,
		"in_use":     stats.InUse,
		"max_conns":  stats.MaxOpenConnections,
		"wait_count": stats.WaitCount,
	}

	// Check connection pool health
	if stats.MaxOpenConnections > 1 {
		utilizationPercent := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		if utilizationPercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High connection pool utilization"
		}
	}

	return check
}

// RedisChecker checks Redis health
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis checker
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Check performs Redis health check
func (r *RedisChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        "redis",
		LastChecked: start,
	}

	// Perform ping
	pong, err := r.client.Ping(ctx).Result()
	check.Duration = time.Since(start)

	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	if pong != "PONG" {
		check.Status = StatusUnhealthy
		check.Message = "Unexpected ping response"
		return check
	}

	stats := r.client.PoolStats()
	check.Metadata = map[string]interface{}{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"timeouts":    stats.Timeouts,
	}

	check.Status = StatusHealthy
	return check
}

// Pinger is a dependency that can report its reachability
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingChecker checks a Pinger. Failures of optional dependencies degrade the service
// instead of failing it.
type PingChecker struct {
	name     string
	target   Pinger
	critical bool
}

// NewPingChecker creates a checker for the object store or another optional backend
func NewPingChecker(name string, target Pinger, critical bool) *PingChecker {
	return &PingChecker{name: name, target: target, critical: critical}
}

// Check pings the target
func (p *PingChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{
		Name:        p.name,
		LastChecked: start,
		Status:      StatusHealthy,
	}

	err := p.target.HealthCheck(ctx)
	check.Duration = time.Since(start)
	if err != nil {
		check.Message = err.Error()
		check.Status = StatusDegraded
		if p.critical {
			check.Status = StatusUnhealthy
		}
	}
	return check
}

// CustomChecker allows for custom health check logic
type CustomChecker struct {
	name  string
	check func(ctx context.Context) (Status, string, interface{})
}

// NewCustomChecker creates a new custom checker
func NewCustomChecker(name string, check func(ctx context.Context) (Status, string, interface{})) *CustomChecker {
	return &CustomChecker{
		name:  name,
		check: check,
	}
}

// Check performs custom health check
func (c *CustomChecker) Check(ctx context.Context) Check {
	start := time.Now()

	status, message, metadata := c.check(ctx)

	return Check{
		Name:        c.name,
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

// MarshalJSON customizes JSON marshaling for duration
func (c Check) MarshalJSON() ([]byte, error) {
	type Alias Check
	return json.Marshal(&struct {
		Duration float64 `json:"duration_ms"`
		*Alias
	}{
		Duration: float64(c.Duration.Milliseconds()),
		Alias:    (*Alias)(&c),
	})
}

// MarshalJSON customizes JSON marshaling for response
func (r Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal(&struct {
		TotalDuration float64 `json:"total_duration_ms"`
		*Alias
	}{
		TotalDuration: float64(r.TotalDuration.Milliseconds()),
		Alias:         (*Alias)(&r),
	})
}
