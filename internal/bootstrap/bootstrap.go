package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/security-plan-auditor/internal/config"
	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
	"github.com/kirillkom/security-plan-auditor/internal/core/session"
	"github.com/kirillkom/security-plan-auditor/internal/core/usecase"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/llm/openai"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/resilience"
	"github.com/kirillkom/security-plan-auditor/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/security-plan-auditor/internal/observability/metrics"
)

// App is the API process. Runs and Queue are nil when their backing
// services are not configured.
type App struct {
	Config config.Config

	Auditor     ports.Auditor
	Sessions    *session.Store
	Runs        ports.AuditRunRepository
	HTTPMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	generator, err := NewGenerator(cfg, resilience.NewExecutor(BreakerConfig(cfg)))
	if err != nil {
		return nil, err
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	opts := []usecase.AuditOption{usecase.WithObserver(httpMetrics)}

	var runs ports.AuditRunRepository
	if cfg.PostgresDSN != "" {
		repo, closeDB, err := openRunRepository(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		closers = append(closers, closeDB)
		runs = repo
		opts = append(opts, usecase.WithRunRepository(repo))
	}

	if cfg.NATSURL != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		closers = append(closers, queue.Close)
		opts = append(opts, usecase.WithEventPublisher(queue))
	}

	auditor := usecase.NewAuditUseCase(generator, opts...)
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute

	slog.Info("audit_provider_configured",
		"provider", generator.Name(),
		"model", generator.Model(),
		"run_log", runs != nil,
		"events", cfg.NATSURL != "",
	)

	return &App{
		Config:      cfg,
		Auditor:     auditor,
		Sessions:    session.NewStore(auditor, ttl),
		Runs:        runs,
		HTTPMetrics: httpMetrics,
		closeFn:     closeAll,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker is the run-log consumer process.
type Worker struct {
	Config config.Config

	Events   ports.AuditEventSubscriber
	Recorder ports.AuditEventHandler
	Metrics  *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	if cfg.NATSURL == "" || cfg.PostgresDSN == "" {
		return nil, domain.WrapError(domain.ErrConfigurationMissing, "init worker",
			errors.New("NATS_URL and POSTGRES_DSN are required"))
	}

	repo, closeDB, err := openRunRepository(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	archive, err := localfs.New(cfg.ReportArchiveDir)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("init report archive: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	return &Worker{
		Config:   cfg,
		Events:   queue,
		Recorder: usecase.NewRecordAuditUseCase(repo, archive),
		Metrics:  metrics.NewWorkerMetrics("worker"),
		closeFn: func() {
			queue.Close()
			closeDB()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// NewGenerator selects the report generator named by AUDIT_PROVIDER.
func NewGenerator(cfg config.Config, executor *resilience.Executor) (ports.ReportGenerator, error) {
	switch cfg.AuditProvider {
	case "", gemini.ProviderName:
		return gemini.New(gemini.Options{
			APIKey:   cfg.AuditAPIKey,
			Model:    cfg.AuditModel,
			Executor: executor,
		}), nil
	case openai.ProviderName:
		return openai.New(openai.Options{
			APIKey:    cfg.AuditAPIKey,
			Model:     cfg.AuditModel,
			BaseURL:   cfg.OpenAIBaseURL,
			Executor:  executor,
			Extractor: pdftext.NewExtractor(0),
		}), nil
	case ollama.ProviderName:
		client, err := ollama.New(cfg.OllamaURL, cfg.AuditModel, executor, pdftext.NewExtractor(0))
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, domain.WrapError(domain.ErrConfigurationInvalid, "select audit provider",
			fmt.Errorf("unknown AUDIT_PROVIDER %q", cfg.AuditProvider))
	}
}

func BreakerConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		BreakerEnabled:          cfg.AuditBreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.AuditBreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.AuditBreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.AuditBreakerOpenTimeoutMS) * time.Millisecond,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.AuditBreakerHalfOpenMaxCall, 0)),
	}
}

func openRunRepository(ctx context.Context, dsn string) (*postgres.AuditRunRepository, func(), error) {
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewAuditRunRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, func() { _ = db.Close() }, nil
}
