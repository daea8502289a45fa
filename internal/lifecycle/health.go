package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// ErrNotReady is reported by Readiness before MarkReady and after MarkDraining.
var ErrNotReady = errors.New("not ready")

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Dependency is checked by the readiness probe.
type Dependency interface {
	Check(ctx context.Context) (map[string]string, bool)
}

// Probes reports liveness unconditionally and readiness once the bot accepts updates and
// its dependencies are healthy.
type Probes struct {
	log   *slog.Logger
	deps  Dependency
	ready atomic.Bool
}

var _ HealthChecker = (*Probes)(nil)

// NewProbes creates a new Probes instance. deps may be nil.
func NewProbes(log *slog.Logger, deps Dependency) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log, deps: deps}
}

// MarkReady flips readiness on.
func (p *Probes) MarkReady() {
	p.ready.Store(true)
}

// MarkDraining flips readiness off during shutdown.
func (p *Probes) MarkDraining() {
	p.ready.Store(false)
}

// Liveness reports that the process is running.
func (p *Probes) Liveness(context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails until MarkReady and whenever a dependency is unhealthy.
func (p *Probes) Readiness(ctx context.Context) error {
	p.log.Debug("readiness probe called")

	if !p.ready.Load() {
		return ErrNotReady
	}
	if p.deps == nil {
		return nil
	}
	if _, healthy := p.deps.Check(ctx); !healthy {
		return ErrNotReady
	}
	return nil
}

// ProbeHandler serves probe as a plain-text endpoint.
func ProbeHandler(probe func(ctx context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := probe(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
}
