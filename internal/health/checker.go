package health

import (
	"context"
	"sync"
	"time"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Check probes one dependency
type Check struct {
	Name string
	// Critical checks make the service unready when they fail
	Critical bool
	Probe    func(ctx context.Context) error
}

// Report is the outcome of running every check once
type Report struct {
	Ready  bool
	Checks map[string]string
}

// Checker runs dependency probes concurrently under a shared timeout
type Checker struct {
	checks  []Check
	timeout time.Duration
	started time.Time
	version string
}

func NewChecker(version string, timeout time.Duration, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Checker{checks: checks, timeout: timeout, started: time.Now(), version: version}
}

func (c *Checker) Version() string { return c.version }

func (c *Checker) Uptime() time.Duration { return time.Since(c.started) }

// Run probes every dependency and reports readiness. Non-critical failures
// are reported without affecting readiness.
func (c *Checker) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report := Report{Ready: true, Checks: make(map[string]string, len(c.checks))}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, check := range c.checks {
		wg.Add(1)
		go func(check Check) {
			defer wg.Done()
			status := StatusOK
			if err := check.Probe(ctx); err != nil {
				status = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[check.Name] = status
			if status != StatusOK && check.Critical {
				report.Ready = false
			}
		}(check)
	}
	wg.Wait()
	return report
}
