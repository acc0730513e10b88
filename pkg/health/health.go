// Package health serves liveness, readiness and dependency checks.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

const checkTimeout = 5 * time.Second

// Check tests one dependency
type Check func(ctx context.Context) error

type Checker struct {
	mu        sync.RWMutex
	checks    map[string]Check
	version   string
	startedAt time.Time
	ready     atomic.Bool
}

func NewChecker(version string) *Checker {
	return &Checker{
		checks:    map[string]Check{},
		version:   version,
		startedAt: time.Now(),
	}
}

// AddCheck registers or replaces a named check. Safe while serving.
func (c *Checker) AddCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// SetReady marks startup complete (or shutdown begun)
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

func (c *Checker) Register(g *echo.Group) {
	g.GET("/health", c.Health)
	g.GET("/health/live", c.Live)
	g.GET("/health/ready", c.Ready)
}

type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// runChecks runs every registered check concurrently under one deadline
func (c *Checker) runChecks(ctx context.Context) (map[string]*CheckResult, bool) {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make([]Check, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		checks = append(checks, c.checks[name])
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make([]*CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			if err := check(ctx); err != nil {
				results[i] = &CheckResult{Status: "unhealthy", Message: err.Error()}
				return
			}
			results[i] = &CheckResult{Status: "healthy", Latency: time.Since(start).String()}
		}()
	}
	wg.Wait()

	healthy := true
	byName := make(map[string]*CheckResult, len(names))
	for i, name := range names {
		byName[name] = results[i]
		if results[i].Status != "healthy" {
			healthy = false
		}
	}
	return byName, healthy
}

// Health reports every check; any failure is a 503
func (c *Checker) Health(ctx echo.Context) error {
	checks, healthy := c.runChecks(ctx.Request().Context())

	status := &HealthStatus{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startedAt).Round(time.Second).String(),
		Checks:     checks,
		ReportedAt: time.Now().UTC(),
	}
	code := http.StatusOK
	if !healthy {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, status)
}

// Live answers as long as the process serves HTTP
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready requires startup to have finished and every check to pass
func (c *Checker) Ready(ctx echo.Context) error {
	if !c.ready.Load() {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "starting"})
	}
	if _, healthy := c.runChecks(ctx.Request().Context()); !healthy {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
