// Package main provides a standalone health check command for FusionChef.
// It probes the admin server, or with -local builds the checkers from the config and
// runs them in process. Useful for Docker health checks and debugging.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/container"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/storage"
	"github.com/alchemorsel/fusionchef/pkg/healthcheck"
	"github.com/alchemorsel/fusionchef/pkg/logger"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts := parseFlags()

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts))
	}
	os.Exit(runRemoteHealthCheck(opts))
}

// parseFlags parses command-line flags
func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", "", "Health endpoint URL (default http://localhost:9090/health)")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	flag.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Expected status: healthy or degraded")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", 1*time.Second, "Delay between retries")
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.BoolVar(&opts.LocalCheck, "local", false, "Run the checks in process instead of calling the admin server")

	flag.Parse()

	if opts.URL == "" {
		opts.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:9090/health"
	}
	return opts
}

// runRemoteHealthCheck performs a remote health check via HTTP
func runRemoteHealthCheck(opts Options) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Printf("Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Printf("Request failed: %v\n", err)
			}
			continue
		}
		return handleResponse(resp, opts)
	}

	fmt.Printf("Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck opens the configured dependencies and checks them directly
func runLocalHealthCheck(opts Options) int {
	_ = godotenv.Load()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return exitCodeError
	}

	log, err := logger.New(logger.Config{Level: "warn", Format: "json"})
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		return exitCodeError
	}

	db, err := container.NewDatabase(cfg, log)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return exitCodeFailure
	}
	defer db.Close()

	cache, err := container.NewCache(cfg, log)
	if err != nil {
		fmt.Printf("Failed to connect cache: %v\n", err)
		return exitCodeFailure
	}
	defer cache.Close()

	ai, err := container.NewAI(cfg, log)
	if err != nil {
		fmt.Printf("Failed to create AI client: %v\n", err)
		return exitCodeFailure
	}

	images, err := storage.NewImageStore(cfg.Storage, log)
	if err != nil {
		fmt.Printf("Failed to create image store: %v\n", err)
		return exitCodeFailure
	}

	hc := container.NewHealthCheck(cfg, db, cache, ai, images, log.With(zap.String("mode", "local")))

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	return outputResult(hc.Check(ctx), opts)
}

// handleResponse decodes the admin server's answer
func handleResponse(resp *http.Response, opts Options) int {
	defer resp.Body.Close()

	var response remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Printf("Failed to decode response: %v\n", err)
		return exitCodeError
	}
	return outputResult(response.toResponse(), opts)
}

// remoteResponse mirrors healthcheck.Response with durations in milliseconds
type remoteResponse struct {
	Status        healthcheck.Status `json:"status"`
	Version       string             `json:"version"`
	Timestamp     time.Time          `json:"timestamp"`
	TotalDuration float64            `json:"total_duration_ms"`
	Checks        []struct {
		Name     string             `json:"name"`
		Status   healthcheck.Status `json:"status"`
		Message  string             `json:"message"`
		Duration float64            `json:"duration_ms"`
	} `json:"checks"`
}

func (r remoteResponse) toResponse() healthcheck.Response {
	out := healthcheck.Response{
		Status:        r.Status,
		Version:       r.Version,
		Timestamp:     r.Timestamp,
		TotalDuration: time.Duration(r.TotalDuration) * time.Millisecond,
	}
	for _, c := range r.Checks {
		out.Checks = append(out.Checks, healthcheck.Check{
			Name:     c.Name,
			Status:   c.Status,
			Message:  c.Message,
			Duration: time.Duration(c.Duration) * time.Millisecond,
		})
	}
	return out
}

// outputResult prints the result and maps it to an exit code
func outputResult(result healthcheck.Response, opts Options) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	case "compact":
		data, _ := json.Marshal(result)
		fmt.Println(string(data))
	default:
		outputText(result, opts.Verbose)
	}

	switch result.Status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if healthcheck.Status(opts.ExpectedStatus) == healthcheck.StatusDegraded {
			return exitCodeSuccess
		}
		return exitCodeFailure
	default:
		return exitCodeFailure
	}
}

// outputText outputs the result in text format
func outputText(r healthcheck.Response, verbose bool) {
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Version: %s\n", r.Version)
	fmt.Printf("Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Printf("Duration: %dms\n", r.TotalDuration.Milliseconds())

	if verbose && len(r.Checks) > 0 {
		fmt.Println("\nChecks:")
		for _, check := range r.Checks {
			fmt.Printf("  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Printf(" (%s)", check.Message)
			}
			fmt.Printf(" [%dms]\n", check.Duration.Milliseconds())
		}
	}
}
