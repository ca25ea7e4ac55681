package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseward/evidence-intake/internal/config"
	"github.com/caseward/evidence-intake/internal/core/intake"
	"github.com/caseward/evidence-intake/internal/core/ports"
	"github.com/caseward/evidence-intake/internal/infrastructure/classifier/keyword"
	natsevents "github.com/caseward/evidence-intake/internal/infrastructure/events/nats"
	"github.com/caseward/evidence-intake/internal/infrastructure/extractor/structural"
	"github.com/caseward/evidence-intake/internal/infrastructure/repository/postgres"
	"github.com/caseward/evidence-intake/internal/infrastructure/resilience"
	"github.com/caseward/evidence-intake/internal/infrastructure/sampler"
	"github.com/caseward/evidence-intake/internal/infrastructure/storage/localfs"
	s3storage "github.com/caseward/evidence-intake/internal/infrastructure/storage/s3"
	"github.com/caseward/evidence-intake/internal/infrastructure/summarizer/heuristic"
	"github.com/caseward/evidence-intake/internal/infrastructure/summarizer/ollama"
	"github.com/caseward/evidence-intake/internal/infrastructure/taxonomy"
	"github.com/caseward/evidence-intake/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Queue   *intake.Queue
	Metrics *metrics.IntakeMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	table, err := loadTaxonomy(cfg)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	intakeMetrics := metrics.NewIntakeMetrics("evidence-intake")

	deps := intake.Dependencies{
		Sampler:    sampler.New(cfg.SampleMaxBytes),
		Classifier: keyword.New(table),
		Extractor:  structural.New(cfg.MetadataScanCap),
		Summarizer: buildSummarizer(cfg, executor),
		Observer:   intakeMetrics,
		Logger:     logger,
	}

	var closers []func()

	storage, err := buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.Storage = storage

	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewEvidenceRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Sink = repo
		closers = append(closers, func() { _ = db.Close() })
	}

	if cfg.NATSURL != "" {
		publisher, err := natsevents.New(cfg.NATSURL, cfg.NATSSubject, natsevents.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init nats publisher: %w", err)
		}
		deps.Events = append(deps.Events, publisher)
		closers = append(closers, publisher.Close)
	}

	queue := intake.New(intake.Config{
		Workers:                cfg.IntakeWorkers,
		SummarizerTimeout:      time.Duration(cfg.SummarizerTimeoutSec) * time.Second,
		PersistTimeout:         time.Duration(cfg.PersistTimeoutSec) * time.Second,
		StageRetryBackoff:      time.Duration(cfg.StageRetryBackoffMs) * time.Millisecond,
		SummaryMaxChars:        cfg.SummaryMaxChars,
		LowConfidenceThreshold: cfg.LowConfidenceThreshold,
		ResolveCategory:        func(string) string { return cfg.DefaultCaseCategory },
	}, deps)

	return &App{
		Config:  cfg,
		Queue:   queue,
		Metrics: intakeMetrics,
		closeFn: func() {
			for _, closeFn := range closers {
				closeFn()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadTaxonomy(cfg config.Config) (ports.TaxonomySource, error) {
	if cfg.TaxonomyPath == "" {
		return taxonomy.Default(), nil
	}
	table, err := taxonomy.LoadFile(cfg.TaxonomyPath)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	return table, nil
}

func buildSummarizer(cfg config.Config, executor *resilience.Executor) ports.Summarizer {
	if cfg.SummarizerBackend == "ollama" {
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, executor)
	}
	return heuristic.New()
}

func buildStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageBackend {
	case "s3":
		storage, err := s3storage.New(ctx, s3storage.Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return storage, nil
	case "none":
		return nil, nil
	default:
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return storage, nil
	}
}
