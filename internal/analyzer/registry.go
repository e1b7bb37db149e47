package analyzer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/proofread/internal/core/logging"
)

// Registry holds the available modules and runs analysis requests against
// them.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
	pool    *WorkerPool
	log     zerolog.Logger
}

// NewRegistry creates an empty registry whose modules share a pool of
// workers slots.
func NewRegistry(workers int, log zerolog.Logger) *Registry {
	return &Registry{
		modules: make(map[string]Module),
		pool:    NewWorkerPool(workers),
		log:     log,
	}
}

// Register adds a module if it is available. Unavailable modules (missing
// configuration or dependencies) are skipped.
func (r *Registry) Register(m Module) {
	if !m.Available() {
		r.log.Debug().Str("module", m.Name()).Msg("module not available, skipping")
		return
	}

	r.mu.Lock()
	r.modules[m.Name()] = m
	r.mu.Unlock()

	r.log.Debug().Str("module", m.Name()).Msg("module registered")
}

// InitAll initializes every registered module. A module that fails to
// initialize is logged and removed so it never shows up in listings.
func (r *Registry) InitAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, m := range r.modules {
		if err := m.Init(ctx); err != nil {
			r.log.Warn().Err(err).Str("module", name).Msg("module initialization failed")
			delete(r.modules, name)
		}
	}
}

// CloseAll closes every registered module.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, m := range r.modules {
		if err := m.Close(); err != nil {
			r.log.Warn().Err(err).Str("module", name).Msg("module close failed")
		}
	}
}

// Get returns a module by name, or nil if it is not registered.
func (r *Registry) Get(name string) Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modules[name]
}

// List returns the registered modules sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.modules))
	for _, m := range r.modules {
		infos = append(infos, Info{Name: m.Name(), Description: m.Description()})
	}
	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

// Modules implements the listing half of a backend.
func (r *Registry) Modules(_ context.Context) ([]Info, error) {
	return r.List(), nil
}

// Process runs the named modules over text concurrently and returns their
// results keyed by module name. Every name is checked before any module
// runs; the first module error cancels the rest.
func (r *Registry) Process(ctx context.Context, text string, names []string) (map[string]Result, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(names) == 0 {
		return nil, ErrNoModules
	}

	selected := make([]Module, 0, len(names))
	seen := make(map[string]bool, len(names))

	r.mu.RLock()
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		m, ok := r.modules[name]
		if !ok {
			r.mu.RUnlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}
		selected = append(selected, m)
	}
	r.mu.RUnlock()

	results := make([]Result, len(selected))
	g, gctx := errgroup.WithContext(ctx)

	for i, m := range selected {
		g.Go(func() error {
			return r.pool.RunContext(gctx, func() error {
				start := time.Now()

				findings, err := m.Analyze(logging.WithModule(gctx, m.Name()), text)
				if err != nil {
					return fmt.Errorf("module %s: %w", m.Name(), err)
				}

				slices.SortStableFunc(findings, func(a, b Finding) int {
					return a.Start - b.Start
				})
				if findings == nil {
					findings = []Finding{}
				}

				results[i] = Result{
					ModuleName:        m.Name(),
					ModuleDescription: m.Description(),
					Results:           findings,
				}

				r.log.Debug().
					Str("module", m.Name()).
					Int("findings", len(findings)).
					Dur("took", time.Since(start)).
					Msg("module finished")
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(results))
	for _, res := range results {
		out[res.ModuleName] = res
	}
	return out, nil
}
