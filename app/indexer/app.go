package indexer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/canopy-network/suinsx/app/indexer/controller"
	"github.com/canopy-network/suinsx/pkg/config"
	"github.com/canopy-network/suinsx/pkg/db/postgres"
	indexerstore "github.com/canopy-network/suinsx/pkg/db/postgres/indexer"
	"github.com/canopy-network/suinsx/pkg/indexer/events"
	"github.com/canopy-network/suinsx/pkg/indexer/pipeline"
	"github.com/canopy-network/suinsx/pkg/logging"
	"github.com/canopy-network/suinsx/pkg/redis"
	"github.com/canopy-network/suinsx/pkg/retry"
	"github.com/canopy-network/suinsx/pkg/rpc"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type App struct {
	Config *config.Config

	// Postgres store shared by every pipeline
	DB *indexerstore.DB

	// Checkpoint source, cached across pipelines
	Source *rpc.CachedSource

	// Redis client for commit notifications (nil when disabled)
	RedisClient *redis.Client

	Progress *pipeline.Progress
	Workers  []*pipeline.Worker

	// Cron runs the periodic progress report
	Cron *cron.Cron

	Server *http.Server
	Logger *zap.Logger
}

// Initialize builds the application from the environment. Configuration and connection errors
// are fatal.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	indexerDb, err := indexerstore.NewWithPoolConfig(ctx, logger, cfg.PostgresURL, postgres.GetPoolConfigForComponent("indexer"))
	if err != nil {
		logger.Fatal("Unable to initialize indexer database", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = redis.NewClient(ctx, logger, cfg.Redis)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - commit notifications will be disabled", zap.Error(err))
			redisClient = nil
		}
	} else {
		logger.Info("Redis disabled - commit notifications will not be published")
	}

	app := &App{
		Config:      cfg,
		DB:          indexerDb,
		Source:      rpc.NewCachedSource(newSource(logger, cfg), cfg.CacheSize),
		RedisClient: redisClient,
		Progress:    pipeline.NewProgress(),
		Logger:      logger,
	}

	if err := app.SetupWorkers(); err != nil {
		logger.Fatal("Unable to set up pipelines", zap.Error(err))
	}
	if err := app.SetupScheduler(cron.DefaultLogger, cfg.ProgressReportSchedule); err != nil {
		logger.Fatal("Unable to set up progress report", zap.Error(err))
	}
	app.SetupServer()

	return app
}

func newSource(logger *zap.Logger, cfg *config.Config) rpc.Source {
	if cfg.LocalIngestionPath != "" {
		logger.Info("Reading checkpoints from local directory", zap.String("path", cfg.LocalIngestionPath))
		return rpc.NewLocalSource(cfg.LocalIngestionPath)
	}
	logger.Info("Reading checkpoints from remote store", zap.Strings("endpoints", cfg.RemoteStoreURLs))
	return rpc.NewHTTPWithOpts(rpc.Opts{
		Endpoints:       cfg.RemoteStoreURLs,
		RPS:             cfg.RPS,
		Burst:           cfg.Burst,
		BreakerFailures: 5,
		BreakerCooldown: 10 * time.Second,
	})
}

// SetupWorkers creates one worker per enabled pipeline.
func (a *App) SetupWorkers() error {
	extractor := events.NewExtractor(a.Config.PackageID)

	var notifier pipeline.Notifier
	if a.RedisClient != nil {
		notifier = a.RedisClient
	}

	workerCfg := pipeline.WorkerConfig{
		FirstCheckpoint: a.Config.FirstCheckpoint,
		LastCheckpoint:  a.Config.LastCheckpoint,
		PollInterval:    a.Config.PollInterval,
		BidRetryLimit:   a.Config.BidRetryLimit,
		MaxFailures:     a.Config.MaxFailures,
		Retry:           retry.CheckpointConfig(),
	}

	for _, name := range a.Config.Pipelines {
		handler, err := pipeline.NewHandler(name)
		if err != nil {
			return err
		}
		processor := pipeline.NewProcessor(a.Logger, a.DB, extractor, handler)
		a.Workers = append(a.Workers, pipeline.NewWorker(a.Logger, processor, a.DB, a.Source, a.Progress, notifier, workerCfg))
	}
	return nil
}

// SetupScheduler registers the periodic progress report.
func (a *App) SetupScheduler(logger cron.Logger, cronSpec string) error {
	a.Cron = cron.New(cron.WithChain(cron.Recover(logger)))

	_, err := a.Cron.AddFunc(cronSpec, a.ReportProgress)
	return err
}

// ReportProgress logs one line per pipeline.
func (a *App) ReportProgress() {
	for _, s := range a.Progress.Snapshot() {
		a.Logger.Info("Pipeline progress",
			zap.String("pipeline", s.Pipeline),
			zap.Bool("running", s.Running),
			zap.Int64("checkpoint_hi_inclusive", s.CheckpointHiInclusive),
			zap.Int64("epoch_hi_inclusive", s.EpochHiInclusive),
			zap.Uint64("committed", s.Committed),
			zap.Time("last_commit_at", s.LastCommitAt),
			zap.String("last_error", s.LastError),
			zap.Int("cached_checkpoints", a.Source.Len()))
	}
}

// SetupServer sets up the HTTP server.
func (a *App) SetupServer() {
	checks := map[string]controller.Check{
		"postgres": a.DB.Ping,
	}
	if a.RedisClient != nil {
		checks["redis"] = a.RedisClient.Health
	}
	ctler := controller.NewController(a.Logger, a.Progress, checks)

	a.Server = &http.Server{
		Addr:              a.Config.Addr,
		Handler:           ctler.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Start runs every pipeline and blocks until they all stop. A pipeline failing with a
// non-retryable error stops the others and is fatal.
func (a *App) Start(ctx context.Context) {
	go func() {
		a.Logger.Info("Starting server", zap.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()

	a.Cron.Start()
	a.Logger.Info("Cron started", zap.String("cronSpec", a.Config.ProgressReportSchedule))

	err := a.RunWorkers(ctx)

	a.Stop()
	if err != nil {
		a.Logger.Fatal("Pipeline failed", zap.Error(err))
	}
}

// RunWorkers runs every worker in its own task and waits for all of them.
func (a *App) RunWorkers(ctx context.Context) error {
	pool := pond.NewPool(len(a.Workers))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for _, w := range a.Workers {
		group.SubmitErr(func() error {
			return w.Run(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return err
	}
	return nil
}

// Stop releases every resource.
func (a *App) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.Server.Shutdown(shutdownCtx)

	<-a.Cron.Stop().Done()
	a.ReportProgress()

	if a.RedisClient != nil {
		_ = a.RedisClient.Close()
	}
	_ = a.DB.Close()
	a.Logger.Info("さようなら!")
	_ = a.Logger.Sync()
}
