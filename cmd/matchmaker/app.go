package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/strategic-matchmaker/internal/analysis"
	"github.com/jonathan/strategic-matchmaker/internal/config"
	"github.com/jonathan/strategic-matchmaker/internal/db"
	"github.com/jonathan/strategic-matchmaker/internal/enrichment"
	"github.com/jonathan/strategic-matchmaker/internal/llm"
	"github.com/jonathan/strategic-matchmaker/internal/matching"
	"github.com/jonathan/strategic-matchmaker/internal/memstore"
	"github.com/jonathan/strategic-matchmaker/internal/metrics"
	"github.com/jonathan/strategic-matchmaker/internal/observability"
	"github.com/jonathan/strategic-matchmaker/internal/scoring"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// store is everything the commands need from a backing store.
// Both *db.DB and *memstore.Store satisfy it.
type store interface {
	matching.ProfileStore
	matching.MatchStore
	analysis.Store
	UpsertProfile(ctx context.Context, p *types.Profile) (*types.Profile, error)
}

// storeMode selects how newApp picks the backing store.
type storeMode int

const (
	// storeAuto uses PostgreSQL when database.url is set, memory otherwise.
	storeAuto storeMode = iota
	// storeDatabase requires PostgreSQL.
	storeDatabase
	// storeMemory always uses the in-memory store.
	storeMemory
)

type appOptions struct {
	requireAuth bool
	store       storeMode
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Manager
	store    store
	db       *db.DB
	health   func(ctx context.Context) error
	analyses *analysis.Cache
	service  *matching.Service
	closers  []func()
}

// loadConfig reads defaults, the --config file, the environment and the
// logging flags, then validates the result.
func loadConfig(cmd *cobra.Command, requireAuth bool) (*config.Config, error) {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("log.debug", flags.Lookup("debug")); err != nil {
		return nil, fmt.Errorf("binding debug flag: %w", err)
	}
	if err := v.BindPFlag("log.json", flags.Lookup("json")); err != nil {
		return nil, fmt.Errorf("binding json flag: %w", err)
	}

	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(requireAuth); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp loads the configuration and wires stores, enrichment and the match service.
func newApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig(cmd, opts.requireAuth)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics.NewManager()}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if err := a.openStore(ctx, opts.store); err != nil {
		a.Close()
		return nil, err
	}

	enricher, err := a.newEnricher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.analyses = analysis.NewCache(a.store, cfg.AnalysisPolicy(), logger, a.metrics)
	a.service, err = matching.NewService(matching.Dependencies{
		Profiles: a.store,
		Matches:  a.store,
		Analyses: a.analyses,
		Enricher: enricher,
		Scorer:   scoring.NewScorer(cfg.Matching.Complementarity),
		Logger:   logger,
		Metrics:  a.metrics,
	}, cfg.Matching.Options)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, mode storeMode) error {
	url := a.cfg.Database.URL
	if mode == storeMemory || (mode == storeAuto && url == "") {
		a.logger.Warn("using the in-memory store; data is lost on exit")
		a.store = memstore.New()
		return nil
	}
	if url == "" {
		return errors.New("database.url (or DATABASE_URL) is required")
	}

	database, err := db.ConnectWithConfig(ctx, url, db.PoolConfig{
		MaxConns: a.cfg.Database.MaxConns,
		MinConns: a.cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, database.Close)

	if a.cfg.Database.Migrate {
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		a.logger.Info("database schema applied")
	}

	a.db = database
	a.store = database
	a.health = database.Ping
	return nil
}

// newEnricher returns a model-backed enricher, or enrichment.Disabled when
// enrichment is switched off or no API key is configured.
func (a *app) newEnricher(ctx context.Context) (enrichment.Enricher, error) {
	if !a.cfg.LLM.Enabled {
		a.logger.Info("semantic enrichment disabled by configuration")
		return enrichment.Disabled{}, nil
	}
	if a.cfg.LLM.APIKey == "" {
		a.logger.Warn("no LLM API key configured, semantic enrichment disabled",
			zap.String(observability.FieldProvider, a.cfg.LLM.Provider))
		return enrichment.Disabled{}, nil
	}

	llmConfig := a.cfg.LLMClientConfig()
	client, err := llm.NewClient(ctx, llmConfig, a.cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	a.logger.Info("semantic enrichment enabled",
		zap.String(observability.FieldProvider, string(llmConfig.Provider)),
		zap.String(observability.FieldModel, client.GetModel(llm.TierStandard)),
	)
	return enrichment.NewClient(client, a.cfg.EnrichmentConfig(), a.logger, a.metrics), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
