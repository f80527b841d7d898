package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/spektr-org/civiclens/engine"
)

// ============================================================================
// LOADER — Load-once holder with in-flight de-duplication
// ============================================================================
// State machine:
//
//	unloaded ──Get──▶ loading ──ok──▶ loaded
//	                     │
//	                     └─fail─▶ fallback? ──yes──▶ loaded (synthetic)
//	                                  └─no───▶ failed ──Get──▶ loading …
//
// Concurrent callers share one provider call. Reload forces a fresh load;
// a failed reload keeps the data already held. While a reload runs the
// loader stays loaded and Get keeps serving the held bundle.
// ============================================================================

// State is the lifecycle stage of a Loader.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Load outcomes passed to a LoadObserver.
const (
	OutcomeLoaded   = "loaded"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
)

// Defaults for NewLoader.
const (
	DefaultLoadTimeout   = 30 * time.Second
	DefaultSyntheticSeed = 42
)

// ErrNoRecords marks a provider load that succeeded with zero records.
var ErrNoRecords = errors.New("provider returned no records")

// LoadObserver is told the outcome and duration of every provider load.
type LoadObserver func(outcome string, duration time.Duration)

// Info is a snapshot of the loader for health endpoints.
type Info struct {
	State     string    `json:"state" yaml:"state"`
	Reloading bool      `json:"reloading,omitempty" yaml:"reloading,omitempty"`
	Records   int       `json:"records" yaml:"records"`
	Synthetic bool      `json:"synthetic" yaml:"synthetic"`
	LoadedAt  time.Time `json:"loadedAt,omitzero" yaml:"loaded_at,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Loader holds the dataset bundle of one Provider.
type Loader struct {
	provider Provider
	fallback Provider
	timeout  time.Duration
	logger   *slog.Logger
	observe  LoadObserver

	group singleflight.Group

	mu        sync.RWMutex
	state     State
	reloading bool
	data      engine.Dataset
	synthetic bool
	loadedAt  time.Time
	err       error
}

// LoaderOption configures a Loader instance.
type LoaderOption func(*Loader)

// WithLoadTimeout bounds each provider call. Zero disables the bound.
func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d >= 0 {
			l.timeout = d
		}
	}
}

// WithFallback replaces the synthetic fallback. nil disables fallback.
func WithFallback(p Provider) LoaderOption {
	return func(l *Loader) {
		l.fallback = p
	}
}

// WithLoaderLogger routes loader logs to logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLoadObserver registers fn for load outcomes.
func WithLoadObserver(fn LoadObserver) LoaderOption {
	return func(l *Loader) {
		l.observe = fn
	}
}

// NewLoader wraps provider with load-once semantics and a synthetic fallback.
func NewLoader(provider Provider, opts ...LoaderOption) *Loader {
	l := &Loader{
		provider: provider,
		fallback: SyntheticProvider{Seed: DefaultSyntheticSeed},
		timeout:  DefaultLoadTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Get returns the bundle, loading it on first use.
func (l *Loader) Get(ctx context.Context) (engine.Dataset, error) {
	l.mu.RLock()
	if l.state == StateLoaded {
		ds := l.data
		l.mu.RUnlock()
		return ds, nil
	}
	l.mu.RUnlock()
	return l.load(ctx)
}

// Reload replaces the bundle with a fresh provider load.
func (l *Loader) Reload(ctx context.Context) (engine.Dataset, error) {
	return l.load(ctx)
}

// Current returns the bundle without loading. ErrNotLoaded until the first
// load completes.
func (l *Loader) Current() (engine.Dataset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != StateLoaded {
		return engine.Dataset{}, ErrNotLoaded
	}
	return l.data, nil
}

// State returns the lifecycle stage.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Info returns a snapshot for health reporting.
func (l *Loader) Info() Info {
	l.mu.RLock()
	defer l.mu.RUnlock()
	info := Info{
		State:     l.state.String(),
		Reloading: l.reloading,
		Records:   l.data.Len(),
		Synthetic: l.synthetic,
		LoadedAt:  l.loadedAt,
	}
	if l.err != nil {
		info.Error = l.err.Error()
	}
	return info
}

// load joins or starts the single in-flight provider call. The call itself
// outlives a cancelled caller so the other waiters still get a result.
func (l *Loader) load(ctx context.Context) (engine.Dataset, error) {
	ch := l.group.DoChan("load", func() (any, error) {
		return l.run(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return engine.Dataset{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return engine.Dataset{}, res.Err
		}
		return res.Val.(engine.Dataset), nil
	}
}

func (l *Loader) run(ctx context.Context) (engine.Dataset, error) {
	start := time.Now()

	l.mu.Lock()
	prev := l.state
	if prev == StateLoaded {
		l.reloading = true
	} else {
		l.state = StateLoading
	}
	l.mu.Unlock()

	ds, err := l.loadProvider(ctx)
	if err == nil {
		l.commit(ds, false)
		l.report(OutcomeLoaded, start)
		l.logger.Info("dataset bundle loaded",
			"records", ds.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return ds, nil
	}

	if prev == StateLoaded {
		l.mu.Lock()
		l.reloading = false
		l.err = err
		kept := l.data
		l.mu.Unlock()
		l.report(OutcomeFailed, start)
		l.logger.Warn("reload failed, keeping current bundle", "error", err)
		return kept, fmt.Errorf("reload: %w", err)
	}

	if l.fallback != nil {
		fds, ferr := l.fallback.Load(ctx)
		if ferr == nil {
			l.commit(fds, true)
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
			l.report(OutcomeFallback, start)
			l.logger.Warn("using synthetic fallback bundle",
				"error", err,
				"records", fds.Len(),
			)
			return fds, nil
		}
		err = errors.Join(err, fmt.Errorf("fallback: %w", ferr))
	}

	l.mu.Lock()
	l.state = StateFailed
	l.err = err
	l.mu.Unlock()
	l.report(OutcomeFailed, start)
	l.logger.Error("dataset bundle load failed", "error", err)
	return engine.Dataset{}, err
}

func (l *Loader) loadProvider(ctx context.Context) (engine.Dataset, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	ds, err := l.provider.Load(ctx)
	if err != nil {
		return engine.Dataset{}, err
	}
	if ds.IsEmpty() {
		return engine.Dataset{}, ErrNoRecords
	}
	return ds, nil
}

func (l *Loader) commit(ds engine.Dataset, synthetic bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateLoaded
	l.reloading = false
	l.data = ds
	l.synthetic = synthetic
	l.loadedAt = time.Now()
	l.err = nil
}

func (l *Loader) report(outcome string, start time.Time) {
	if l.observe != nil {
		l.observe(outcome, time.Since(start))
	}
}
