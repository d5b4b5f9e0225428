package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"warden/pkg/logging"
)

// Status is one probe's verdict.
type Status struct {
	Healthy bool
	Detail  string
}

// Probe checks a single subsystem of a platform.
type Probe interface {
	// Name identifies the subsystem ("database", "cache", "web", "task").
	Name() string

	// Check reports the subsystem's health. Implementations must respect
	// the context deadline.
	Check(ctx context.Context) Status
}

// Verdict aggregates every probe result. The platform is healthy only when
// all subsystems are.
type Verdict struct {
	Healthy    bool
	Subsystems map[string]Status
}

// Summary renders unhealthy subsystems for status messages, sorted by name.
func (v Verdict) Summary() string {
	if v.Healthy {
		return "all subsystems healthy"
	}
	names := make([]string, 0, len(v.Subsystems))
	for name, s := range v.Subsystems {
		if !s.Healthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s: %s", name, v.Subsystems[name].Detail)
	}
	return out
}

// Checker runs a set of probes in parallel with a per-probe timeout.
type Checker struct {
	probes  []Probe
	timeout time.Duration
}

// NewChecker bounds every probe by timeout. A probe that misses its
// deadline is reported unhealthy, never waited on past the bound.
func NewChecker(timeout time.Duration, probes ...Probe) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Checker{probes: probes, timeout: timeout}
}

// Check runs every probe and aggregates. Probes run concurrently; one slow
// subsystem does not delay the others beyond the shared timeout.
func (c *Checker) Check(ctx context.Context) Verdict {
	verdict := Verdict{
		Healthy:    true,
		Subsystems: make(map[string]Status, len(c.probes)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, probe := range c.probes {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()

			status := probe.Check(probeCtx)
			if probeCtx.Err() != nil && !status.Healthy && status.Detail == "" {
				status.Detail = "probe timed out"
			}

			mu.Lock()
			verdict.Subsystems[probe.Name()] = status
			if !status.Healthy {
				verdict.Healthy = false
			}
			mu.Unlock()

			if !status.Healthy {
				logging.Debug("Health", "Probe %s unhealthy: %s", probe.Name(), status.Detail)
			}
			return nil
		})
	}

	// Probes report through the verdict, never through errors.
	_ = g.Wait()
	return verdict
}
