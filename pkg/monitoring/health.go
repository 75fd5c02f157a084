// Package monitoring serves /health and /metrics and pushes batch metrics
// to a Pushgateway.
package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds each check when the caller's context has no
// earlier deadline.
const DefaultCheckTimeout = 5 * time.Second

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthCheck probes one dependency. It must return once ctx is done.
type HealthCheck func(ctx context.Context) CheckResult

// HealthChecker runs its checks concurrently and folds them into one status.
// A failing dependency makes the service unhealthy; a degraded one (missing
// optional configuration, say) does not.
type HealthChecker struct {
	service string
	version string
	timeout time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service: service,
		version: version,
		timeout: DefaultCheckTimeout,
		now:     time.Now,
		checks:  make(map[string]HealthCheck),
	}
}

// AddCheck registers check under name, replacing any earlier one.
func (hc *HealthChecker) AddCheck(name string, check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// CheckHealth runs every check and reports the worst status.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks))
	checks := make([]HealthCheck, 0, len(hc.checks))
	for name, check := range hc.checks {
		names = append(names, name)
		checks = append(checks, check)
	}
	hc.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = runCheck(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	status := HealthStatus{
		Status:    StatusHealthy,
		Service:   hc.service,
		Version:   hc.version,
		Timestamp: hc.now().Unix(),
		Checks:    make(map[string]CheckResult, len(results)),
	}
	for i, res := range results {
		status.Checks[names[i]] = res
		status.Status = worse(status.Status, res.Status)
	}
	return status
}

func runCheck(ctx context.Context, check HealthCheck) (res CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			res = CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("check panicked: %v", r)}
		}
	}()
	if check == nil {
		return CheckResult{Status: StatusUnhealthy, Message: "no check configured"}
	}
	return check(ctx)
}

// worse orders healthy < degraded < unhealthy. Unknown statuses count as
// unhealthy.
func worse(a, b string) string {
	rank := func(s string) int {
		switch s {
		case StatusHealthy:
			return 0
		case StatusDegraded:
			return 1
		default:
			return 2
		}
	}
	if rank(b) > rank(a) {
		if rank(b) == 2 {
			return StatusUnhealthy
		}
		return b
	}
	return a
}

// Handler serves the health status; 503 when unhealthy.
func (hc *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := hc.CheckHealth(c.Request.Context())
		code := http.StatusOK
		if health.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, health)
	}
}

// StaticHealthCheck always reports healthy with message.
func StaticHealthCheck(message string) HealthCheck {
	return func(context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: message}
	}
}

// DatabaseHealthCheck pings db.
func DatabaseHealthCheck(db *sql.DB) HealthCheck {
	if db == nil {
		return PingHealthCheck("Database", nil)
	}
	return PingHealthCheck("Database", db.PingContext)
}

// PingHealthCheck wraps a connectivity probe such as a Redis or MongoDB
// ping.
func PingHealthCheck(component string, ping func(context.Context) error) HealthCheck {
	return func(ctx context.Context) CheckResult {
		if ping == nil {
			return CheckResult{Status: StatusUnhealthy, Message: component + " client is nil"}
		}
		start := time.Now()
		err := ping(ctx)
		latency := time.Since(start).Round(time.Microsecond).String()
		if err != nil {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("%s ping failed: %v", component, err),
				Latency: latency,
			}
		}
		return CheckResult{Status: StatusHealthy, Message: component + " reachable", Latency: latency}
	}
}

// ConfigurationHealthCheck reports degraded when any named setting is empty.
// Values are never echoed.
func ConfigurationHealthCheck(settings map[string]string) HealthCheck {
	return func(context.Context) CheckResult {
		var missing []string
		for key, value := range settings {
			if strings.TrimSpace(value) == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) == 0 {
			return CheckResult{Status: StatusHealthy, Message: "All required configuration present"}
		}
		sort.Strings(missing)
		return CheckResult{Status: StatusDegraded, Message: "Missing configuration: " + strings.Join(missing, ", ")}
	}
}
