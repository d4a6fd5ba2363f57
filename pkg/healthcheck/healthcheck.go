// Package healthcheck aggregates dependency probes (database, cache) into a
// single status served over HTTP.
package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status is the outcome of a probe
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var severity = map[Status]int{
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

// Worse returns whichever of a and b is more severe
func Worse(a, b Status) Status {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

// Check is the result of one named probe
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"-"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Report is the aggregated result of every registered probe
type Report struct {
	Status    Status        `json:"status"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []Check       `json:"checks"`
	Duration  time.Duration `json:"-"`
}

// Checker probes one dependency
type Checker interface {
	Check(ctx context.Context) Check
}

// CheckFunc adapts a plain function to Checker. The name of the check is
// filled in by HealthCheck at registration.
type CheckFunc func(ctx context.Context) (Status, string, map[string]any)

// Check times f and wraps its result
func (f CheckFunc) Check(ctx context.Context) Check {
	start := time.Now()
	status, message, metadata := f(ctx)
	return Check{
		Status:      status,
		Message:     message,
		Metadata:    metadata,
		LastChecked: start,
		Duration:    time.Since(start),
	}
}

type probe struct {
	name    string
	checker Checker
}

// HealthCheck runs registered probes and caches the last report
type HealthCheck struct {
	version string
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.RWMutex
	probes   []probe
	last     *Report
	cacheTTL time.Duration
}

// New creates a health check reporting version
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		logger:   logger,
		timeout:  10 * time.Second,
		cacheTTL: 5 * time.Second,
	}
}

// Register adds a probe under name, replacing any probe with the same name.
// Probes are reported in name order.
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = nil
	for i := range h.probes {
		if h.probes[i].name == name {
			h.probes[i].checker = checker
			return
		}
	}
	h.probes = append(h.probes, probe{name: name, checker: checker})
	sort.Slice(h.probes, func(i, j int) bool { return h.probes[i].name < h.probes[j].name })
}

// SetCacheTTL sets how long a report is reused. Zero disables reuse.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// Check runs every probe concurrently under a shared timeout. The overall
// status is the worst individual status.
func (h *HealthCheck) Check(ctx context.Context) Report {
	h.mu.RLock()
	if h.last != nil && time.Since(h.last.Timestamp) < h.cacheTTL {
		report := *h.last
		h.mu.RUnlock()
		return report
	}
	probes := append([]probe(nil), h.probes...)
	h.mu.RUnlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := make([]Check, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			check := p.checker.Check(ctx)
			check.Name = p.name
			checks[i] = check
		}()
	}
	wg.Wait()

	report := Report{
		Status:    StatusHealthy,
		Version:   h.version,
		Timestamp: start,
		Checks:    checks,
		Duration:  time.Since(start),
	}
	for _, check := range checks {
		report.Status = Worse(report.Status, check.Status)
		if check.Status == StatusUnhealthy {
			h.logger.Warn("Dependency unhealthy",
				zap.String("check", check.Name),
				zap.String("message", check.Message),
			)
		}
	}

	h.mu.Lock()
	h.last = &report
	h.mu.Unlock()

	return report
}

// Handler serves the full report; 503 when any probe is unhealthy
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		status := http.StatusOK
		if report.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		h.writeJSON(w, status, report)
	}
}

// LivenessHandler answers as long as the process can serve requests
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, probeAnswer{Status: "alive", Timestamp: time.Now()})
	}
}

// ReadinessHandler answers 200 only when every probe is healthy
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		if report.Status != StatusHealthy {
			h.writeJSON(w, http.StatusServiceUnavailable, probeAnswer{
				Status:    "not_ready",
				Timestamp: report.Timestamp,
				Checks:    report.Checks,
			})
			return
		}
		h.writeJSON(w, http.StatusOK, probeAnswer{Status: "ready", Timestamp: report.Timestamp})
	}
}

type probeAnswer struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks,omitempty"`
}

func (h *HealthCheck) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// poolSaturation is the in-use share of a bounded pool above which the
// database reports degraded.
const poolSaturation = 0.9

// Database probes db with a ping and reports pool usage
func Database(db *sql.DB) Checker {
	return CheckFunc(func(ctx context.Context) (Status, string, map[string]any) {
		if err := db.PingContext(ctx); err != nil {
			return StatusUnhealthy, err.Error(), nil
		}

		stats := db.Stats()
		metadata := map[string]any{
			"open_conns":     stats.OpenConnections,
			"in_use_conns":   stats.InUse,
			"idle_conns":     stats.Idle,
			"max_open_conns": stats.MaxOpenConnections,
		}
		if stats.MaxOpenConnections > 1 {
			used := float64(stats.InUse) / float64(stats.MaxOpenConnections)
			if used > poolSaturation {
				return StatusDegraded, fmt.Sprintf("%d of %d connections in use", stats.InUse, stats.MaxOpenConnections), metadata
			}
		}
		return StatusHealthy, "", metadata
	})
}

// Redis probes client with a ping and reports pool usage
func Redis(client redis.UniversalClient) Checker {
	return CheckFunc(func(ctx context.Context) (Status, string, map[string]any) {
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			return StatusUnhealthy, err.Error(), nil
		}
		if pong != "PONG" {
			return StatusUnhealthy, fmt.Sprintf("unexpected ping reply %q", pong), nil
		}

		stats := client.PoolStats()
		return StatusHealthy, "", map[string]any{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"timeouts":    stats.Timeouts,
		}
	})
}

// MarshalJSON reports the duration in milliseconds
func (c Check) MarshalJSON() ([]byte, error) {
	type plain Check
	return json.Marshal(struct {
		plain
		DurationMS float64 `json:"duration_ms"`
	}{plain(c), durationMS(c.Duration)})
}

// MarshalJSON reports the duration in milliseconds
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		DurationMS float64 `json:"total_duration_ms"`
	}{plain(r), durationMS(r.Duration)})
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
