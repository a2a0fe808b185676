package security

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
)

// RateLimiter throttles expensive routes per client address with token buckets
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit
	burst    int
	idle     time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing RequestsPerMin with BurstSize per client
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 10
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 3
	}
	idle := cfg.CleanupInterval
	if idle <= 0 {
		idle = 5 * time.Minute
	}

	r := &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(perMin) / 60.0),
		burst:   burst,
		idle:    idle,
		logger:  logger.Named("rate-limit"),
		stop:    make(chan struct{}),
	}
	go r.cleanup()
	return r
}

// Allow reports whether the client may proceed now
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	c, ok := r.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = c
	}
	c.lastSeen = time.Now()
	r.mu.Unlock()
	return c.limiter.Allow()
}

// Middleware rejects requests over the limit with 429
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := clientKey(req)
		if !r.Allow(key) {
			r.logger.Warn("Rate limit exceeded", zap.String("client", key), zap.String("path", req.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(int(1/float64(r.limit))+1))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"TOO_MANY_REQUESTS","message":"Too many requests"}}`))
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Close stops the cleanup loop
func (r *RateLimiter) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(r.idle)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for key, c := range r.clients {
				if now.Sub(c.lastSeen) > r.idle {
					delete(r.clients, key)
				}
			}
			r.mu.Unlock()
		}
	}
}

// clientKey uses the address set by chi's RealIP middleware
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
