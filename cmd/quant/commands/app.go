package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wonny/aegis-nse/internal/pipeline"
	"github.com/wonny/aegis-nse/internal/predictions"
	"github.com/wonny/aegis-nse/internal/s0_data/quality"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
	"github.com/wonny/aegis-nse/pkg/config"
	"github.com/wonny/aegis-nse/pkg/database"
	"github.com/wonny/aegis-nse/pkg/logger"
	"github.com/wonny/aegis-nse/pkg/metrics"
	"github.com/wonny/aegis-nse/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	db       *database.DB // nil without DATABASE_URL
	redis    *redis.Client
	cache    *redis.Cache
	metrics  *metrics.Recorder
	pipeline *pipeline.Pipeline
}

// newApp loads config, logger and strategy, connects the optional stores and builds the pipeline
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Strategy config
	strategy, strategyYAML, err := strategyconfig.LoadOrDefault(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, strategy: strategy, metrics: metrics.New()}

	// 4. Database (optional)
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		log.Info("Connected to database")
	}

	// 5. Redis (no-op client when disabled)
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	if rc.Enabled() {
		a.cache = redis.NewCache(rc, "aegis-nse")
		log.Info("Connected to redis")
	}

	// 6. Pipeline
	p, err := pipeline.New(cfg, strategy, pipeline.Deps{
		DB:           a.db,
		Cache:        a.cache,
		Metrics:      a.metrics,
		StrategyYAML: strategyYAML,
	}, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.pipeline = p

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.db.Close()
}

func (a *app) runOptions(force bool, top int) pipeline.RunOptions {
	return pipeline.RunOptions{PanelFile: panelFile, Force: force, TopN: top}
}

// predictionRepo returns nil without a database
func (a *app) predictionRepo() *predictions.Repository {
	if a.db == nil {
		return nil
	}
	return predictions.NewRepository(a.db.Pool)
}

// qualityRepo returns nil without a database
func (a *app) qualityRepo() *quality.Repository {
	if a.db == nil {
		return nil
	}
	return quality.NewRepository(a.db.Pool)
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
