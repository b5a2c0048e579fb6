package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
	"github.com/kirillkom/security-plan-auditor/internal/core/reportschema"
)

// AuditObserver receives the outcome of every analysis attempt.
type AuditObserver interface {
	ObserveAudit(provider string, status domain.RunStatus, errorKind string, duration time.Duration)
}

type AuditUseCase struct {
	generator ports.ReportGenerator
	runs      ports.AuditRunRepository
	events    ports.AuditEventPublisher
	observer  AuditObserver
	now       func() time.Time
}

type AuditOption func(*AuditUseCase)

// WithRunRepository records runs directly. It is used when no event
// publisher is configured.
func WithRunRepository(runs ports.AuditRunRepository) AuditOption {
	return func(uc *AuditUseCase) { uc.runs = runs }
}

func WithEventPublisher(events ports.AuditEventPublisher) AuditOption {
	return func(uc *AuditUseCase) { uc.events = events }
}

func WithObserver(observer AuditObserver) AuditOption {
	return func(uc *AuditUseCase) { uc.observer = observer }
}

func NewAuditUseCase(generator ports.ReportGenerator, opts ...AuditOption) *AuditUseCase {
	uc := &AuditUseCase{
		generator: generator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Analyze issues exactly one provider request for input and returns the
// validated report. Failures are returned as domain error kinds.
func (uc *AuditUseCase) Analyze(ctx context.Context, input domain.AuditInput) (*domain.AuditReport, error) {
	if err := domain.ValidateInput(input); err != nil {
		return nil, err
	}

	start := uc.now()
	report, err := uc.generate(ctx, input)
	uc.finish(ctx, input, start, report, err)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (uc *AuditUseCase) generate(ctx context.Context, input domain.AuditInput) (*domain.AuditReport, error) {
	raw, err := uc.generator.GenerateReport(ctx, input)
	if err != nil {
		return nil, err
	}
	return reportschema.Decode(raw)
}

func (uc *AuditUseCase) finish(ctx context.Context, input domain.AuditInput, start time.Time, report *domain.AuditReport, runErr error) {
	duration := uc.now().Sub(start)
	run := domain.AuditRun{
		ID:         uuid.NewString(),
		RequestID:  domain.RequestIDFromContext(ctx),
		InputKind:  input.Kind(),
		InputBytes: input.Size(),
		Provider:   uc.generator.Name(),
		Model:      uc.generator.Model(),
		Status:     domain.RunComplete,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if runErr != nil {
		run.Status = domain.RunError
		run.ErrorKind = domain.Kind(runErr)
	} else {
		run.OverallScore = report.OverallScore
		run.RiskLevel = report.RiskLevel
	}

	if uc.observer != nil {
		uc.observer.ObserveAudit(run.Provider, run.Status, run.ErrorKind, duration)
	}

	// The run log is best-effort and must never change the audit outcome.
	ctx = context.WithoutCancel(ctx)
	switch {
	case uc.events != nil:
		event := domain.AuditEvent{Run: run}
		if runErr == nil {
			event.Report = report
		}
		if err := uc.events.PublishAuditCompleted(ctx, event); err != nil {
			slog.Warn("audit_event_publish_failed", "run_id", run.ID, "error", err)
		}
	case uc.runs != nil:
		if err := uc.runs.Record(ctx, run); err != nil {
			slog.Warn("audit_run_record_failed", "run_id", run.ID, "error", err)
		}
	}
}
