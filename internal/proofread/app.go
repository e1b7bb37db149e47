// Package proofread assembles the application from its configuration: the
// cache database, the LLM client, and the registry of analysis modules.
package proofread

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/core/config"
	"github.com/colonyops/proofread/internal/core/highlight"
	"github.com/colonyops/proofread/internal/data/db"
	"github.com/colonyops/proofread/internal/data/stores"
	"github.com/colonyops/proofread/internal/llm"
	"github.com/colonyops/proofread/internal/modules/pronouns"
	"github.com/colonyops/proofread/internal/modules/transition"
	"github.com/colonyops/proofread/internal/proofread/sweep"
)

//go:embed sample.txt
var builtinSample string

// App is the central entry point for all proofread operations.
// Commands and the server consume App instead of cherry-picking raw dependencies.
type App struct {
	Config   *config.Config
	DB       *db.DB
	Store    *stores.KVStore
	LLM      llm.Client // nil when no service is configured
	Registry *analyzer.Registry

	palette atomic.Pointer[highlight.Palette]
	log     zerolog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds the application. A corrupt database is moved aside and
// recreated once.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{}
	if err := app.Open(ctx, cfg, log); err != nil {
		return nil, err
	}
	return app, nil
}

// Open builds the application into a zero App. Commands are wired to the App
// pointer before the configuration is known, so main populates it in place.
func (a *App) Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a.Config = cfg
	a.log = log
	a.SetPalette(cfg.Palette.Highlight())

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	opts := db.DefaultOpenOptions()
	opts.Logger = log.With().Str("cmp", "db").Logger()

	database, err := db.Open(cfg.DataDir, opts)
	if stores.IsCorruptionError(err) {
		log.Warn().Err(err).Msg("database corrupt, recreating")
		if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
			return fmt.Errorf("recover database: %w", rerr)
		}
		database, err = db.Open(cfg.DataDir, opts)
	}
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.DB = database
	a.Store = stores.NewKVStore(database)

	client, err := llm.New(ctx, cfg.LLM.Client())
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Debug().Msg("llm disabled")
	case err != nil:
		// the transition module stays unavailable; everything else still works
		log.Warn().Err(err).Str("service", cfg.LLM.Service).Msg("llm client unavailable")
	case cfg.Cache.Enabled:
		a.LLM = llm.NewCached(client, a.Store, cfg.Cache.TTL, log.With().Str("cmp", "llm").Logger())
	default:
		a.LLM = client
	}

	a.Registry = analyzer.NewRegistry(cfg.Analysis.Workers, log.With().Str("cmp", "registry").Logger())
	for _, m := range a.modules() {
		a.Registry.Register(m)
	}
	a.Registry.InitAll(ctx)

	return nil
}

func (a *App) modules() []analyzer.Module {
	var mods []analyzer.Module

	if a.Config.Modules.Pronouns.Enabled {
		mods = append(mods, pronouns.New(a.Config.Modules.Pronouns.Words))
	}

	if a.Config.Modules.Transition.Enabled && a.LLM != nil {
		mods = append(mods, transition.New(a.LLM, transition.Options{
			Workers:    a.Config.Modules.Transition.Workers,
			PromptFile: a.Config.Modules.Transition.PromptFile,
			Logger:     a.log.With().Str("cmp", transition.Name).Logger(),
		}))
	}

	return mods
}

// Start launches background work. It returns immediately; Close stops it.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.Config.Cache.Enabled && a.Config.Cache.SweepInterval > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			sweep.Start(ctx, a.Store, a.Config.Cache.SweepInterval, a.log.With().Str("cmp", "sweep").Logger())
		}()
	}
}

// Palette returns the current highlight palette.
func (a *App) Palette() highlight.Palette {
	return *a.palette.Load()
}

// SetPalette replaces the highlight palette; used on config reload.
func (a *App) SetPalette(p highlight.Palette) {
	a.palette.Store(&p)
}

// SampleText returns the configured sample document, or the built-in one.
func (a *App) SampleText() (string, error) {
	if a.Config.SampleText == "" {
		return builtinSample, nil
	}

	data, err := os.ReadFile(a.Config.SampleText)
	if err != nil {
		return "", fmt.Errorf("read sample text: %w", err)
	}
	return string(data), nil
}

// Close stops background work and releases resources.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.Registry != nil {
		a.Registry.CloseAll()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
