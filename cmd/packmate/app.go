package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/packmate/internal/config"
	"github.com/stellarlinkco/packmate/internal/consistency"
	"github.com/stellarlinkco/packmate/internal/llm"
	"github.com/stellarlinkco/packmate/internal/logging"
	"github.com/stellarlinkco/packmate/internal/planner"
	"github.com/stellarlinkco/packmate/internal/speech"
	"github.com/stellarlinkco/packmate/internal/store"
	"github.com/stellarlinkco/packmate/internal/suggest"
)

// App is the composed process: one config, one store, one planner.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   *store.Store
	Planner *planner.Planner
	Parser  *speech.Parser
	Suggest *suggest.Service
}

func NewApp(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := logging.Setup(cfg.Log, opts.LogWriter)

	blobs, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	st, err := store.Load(ctx, blobs)
	if err != nil {
		_ = blobs.Close()
		return nil, fmt.Errorf("load storage: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	p := planner.New(st, consistency.NewEngine(now), logging.Component(logger, "app"))
	if _, err := p.ReconcileStored(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	gen := opts.Generator
	if gen == nil && cfg.HasValidCredential() {
		if gen, err = llm.New(cfg); err != nil {
			logger.Warn().Err(err).Msg("text generation disabled")
			gen = nil
		}
	}

	catalog := suggest.DefaultCatalog()
	if cfg.Suggest.CatalogPath != "" {
		if catalog, err = suggest.LoadCatalog(cfg.Suggest.CatalogPath); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}
	var external suggest.ExternalSource
	if gen != nil {
		external = suggest.NewExternal(gen, cfg.SuggestTimeout(), logger)
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Planner: p,
		Parser:  speech.NewParser(gen, cfg, logger, speech.WithTimeout(cfg.ParseTimeout()), speech.WithClock(now)),
		Suggest: suggest.NewService(suggest.NewScorer(catalog), external, cfg, logger),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
