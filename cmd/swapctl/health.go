package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/alchemorsel/mealswap/internal/infrastructure/config"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/postgres"
	redisCache "github.com/alchemorsel/mealswap/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/mealswap/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/mealswap/pkg/healthcheck"
)

type healthOptions struct {
	url        string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	format     string
	local      bool
}

// healthReport is the subset of the /health body the command prints
type healthReport struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Checks  []struct {
		Name    string `json:"name"`
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"checks"`
}

func newHealthCommand() *cobra.Command {
	opts := &healthOptions{}

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running server, or the configured dependencies with --local",
		Long: `Queries the server's /health endpoint and exits non-zero unless it reports
healthy or degraded. Suitable as a container health probe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.local {
				return runLocalHealth(cmd, opts)
			}
			return runRemoteHealth(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "health endpoint (default: $HEALTH_CHECK_URL or derived from the server config)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	cmd.Flags().IntVar(&opts.retries, "retry", 0, "number of retries on failure")
	cmd.Flags().DurationVar(&opts.retryDelay, "retry-delay", time.Second, "delay between retries")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "text", "output format: text or json")
	cmd.Flags().BoolVar(&opts.local, "local", false, "probe the configured database and cache directly")
	return cmd
}

func runRemoteHealth(cmd *cobra.Command, opts *healthOptions) error {
	url := opts.url
	if url == "" {
		detected, err := detectHealthURL(configPath(cmd))
		if err != nil {
			return err
		}
		url = detected
	}

	client := &http.Client{Timeout: opts.timeout}
	var lastErr error
	for attempt := 0; attempt <= opts.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(opts.retryDelay):
			}
		}

		report, err := fetchHealth(cmd.Context(), client, url)
		if err != nil {
			lastErr = err
			continue
		}
		return writeHealth(cmd.OutOrStdout(), opts.format, report)
	}

	return fmt.Errorf("health check failed after %d attempts: %w", opts.retries+1, lastErr)
}

func detectHealthURL(path string) (string, error) {
	if url := os.Getenv("HEALTH_CHECK_URL"); url != "" {
		return url, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return "", err
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)) + "/health", nil
}

func fetchHealth(ctx context.Context, client *http.Client, url string) (*healthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var report healthReport
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&report); err != nil {
		return nil, fmt.Errorf("unexpected health response (HTTP %d): %w", resp.StatusCode, err)
	}
	if report.Status == "" {
		return nil, fmt.Errorf("health response without status (HTTP %d)", resp.StatusCode)
	}
	return &report, nil
}

func runLocalHealth(cmd *cobra.Command, opts *healthOptions) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return err
	}
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	health := healthcheck.New(cfg.App.Version, log)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg, log)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		health.Register("database", healthcheck.Database(sqlDB))
	default:
		db, err := sqlite.SetupDatabase(cfg.Database.Path, sqlite.ParseLogLevel("silent"))
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		health.Register("database", healthcheck.Database(sqlDB))
	}

	if cfg.Redis.Enabled {
		client, err := redisCache.NewClient(ctx, cfg)
		if err != nil {
			health.Register("redis", healthcheck.CheckFunc(func(context.Context) (healthcheck.Status, string, map[string]any) {
				return healthcheck.StatusUnhealthy, err.Error(), nil
			}))
		} else {
			defer client.Close()
			health.Register("redis", healthcheck.Redis(client))
		}
	}

	// Round-trip through JSON so local and remote output share one shape
	data, err := json.Marshal(health.Check(ctx))
	if err != nil {
		return err
	}
	var report healthReport
	if err := json.Unmarshal(data, &report); err != nil {
		return err
	}
	return writeHealth(cmd.OutOrStdout(), opts.format, &report)
}

var errUnhealthy = errors.New("service is unhealthy")

func writeHealth(w io.Writer, format string, report *healthReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case "text":
		fmt.Fprintf(w, "%s (version %s)\n", report.Status, report.Version)
		for _, check := range report.Checks {
			line := fmt.Sprintf("  %-10s %s", check.Name, check.Status)
			if check.Message != "" {
				line += ": " + check.Message
			}
			fmt.Fprintln(w, line)
		}
	default:
		return fmt.Errorf("unknown format %q: want text or json", format)
	}

	if report.Status == string(healthcheck.StatusUnhealthy) {
		return errUnhealthy
	}
	return nil
}
