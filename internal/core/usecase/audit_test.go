package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

const validReportJSON = `{
  "overallScore": 42,
  "riskLevel": "ALTO",
  "executiveSummary": "Resumen.",
  "complianceAlignment": "ISO 27001 parcial.",
  "detailedAnalysis": [
    {"category": "Análisis de Riesgos", "score": 60, "status": "Aceptable", "observation": "a"},
    {"category": "Análisis de Impacto (BIA)", "score": 20, "status": "Crítico", "observation": "b"},
    {"category": "Plan de Contingencia", "score": 45, "status": "Deficiente", "observation": "c"},
    {"category": "Políticas de Seguridad", "score": 80, "status": "Optimizado", "observation": "d"}
  ],
  "strengths": [],
  "weaknesses": [],
  "recommendations": ["Definir RTO"]
}`

type generatorFake struct {
	raw   string
	err   error
	calls int
	input domain.AuditInput
	// apiKey is checked like a real provider when checkKey is set.
	apiKey   string
	checkKey bool
}

func (f *generatorFake) GenerateReport(_ context.Context, input domain.AuditInput) (string, error) {
	if f.checkKey {
		if err := domain.ValidateAPIKey(f.apiKey); err != nil {
			return "", err
		}
	}
	f.calls++
	f.input = input
	return f.raw, f.err
}
func (f *generatorFake) Name() string  { return "fake" }
func (f *generatorFake) Model() string { return "fake-model" }

type runRepoFake struct {
	runs []domain.AuditRun
	err  error
}

func (f *runRepoFake) Record(_ context.Context, run domain.AuditRun) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *runRepoFake) ListRecent(context.Context, int) ([]domain.AuditRun, error) {
	return f.runs, nil
}

type publisherFake struct {
	events []domain.AuditEvent
	err    error
}

func (f *publisherFake) PublishAuditCompleted(_ context.Context, event domain.AuditEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type observerFake struct {
	statuses []domain.RunStatus
	kinds    []string
}

func (f *observerFake) ObserveAudit(_ string, status domain.RunStatus, kind string, _ time.Duration) {
	f.statuses = append(f.statuses, status)
	f.kinds = append(f.kinds, kind)
}

var samplePlan = domain.TextInput{Content: "Plan de seguridad con backups diarios y política de contraseñas."}

func TestAnalyzeReturnsValidatedReport(t *testing.T) {
	gen := &generatorFake{raw: validReportJSON}
	runs := &runRepoFake{}
	observer := &observerFake{}
	uc := NewAuditUseCase(gen, WithRunRepository(runs), WithObserver(observer))

	ctx := domain.ContextWithRequestID(context.Background(), "req-1")
	report, err := uc.Analyze(ctx, samplePlan)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.OverallScore != 42 || report.RiskLevel != domain.RiskHigh {
		t.Fatalf("unexpected report %+v", report)
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", gen.calls)
	}
	if len(runs.runs) != 1 {
		t.Fatalf("expected recorded run, got %d", len(runs.runs))
	}
	run := runs.runs[0]
	if run.Status != domain.RunComplete || run.RequestID != "req-1" || run.Provider != "fake" || run.OverallScore != 42 {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.InputKind != domain.InputText || run.InputBytes != len(samplePlan.Content) {
		t.Fatalf("unexpected run input %+v", run)
	}
	if len(observer.statuses) != 1 || observer.statuses[0] != domain.RunComplete {
		t.Fatalf("unexpected observations %v", observer.statuses)
	}
}

func TestAnalyzeSendsShortTextToProvider(t *testing.T) {
	gen := &generatorFake{raw: validReportJSON, apiKey: "AIzaSyTestKey0123456789", checkKey: true}
	uc := NewAuditUseCase(gen)

	report, err := uc.Analyze(context.Background(), domain.TextInput{Content: "plan corto"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report == nil || gen.calls != 1 {
		t.Fatalf("expected one provider call, got calls=%d", gen.calls)
	}
	if in, ok := gen.input.(domain.TextInput); !ok || in.Content != "plan corto" {
		t.Fatalf("unexpected provider input %#v", gen.input)
	}
}

func TestAnalyzeMissingKeyWinsOverShortText(t *testing.T) {
	gen := &generatorFake{raw: validReportJSON, checkKey: true}
	uc := NewAuditUseCase(gen)

	_, err := uc.Analyze(context.Background(), domain.TextInput{Content: "plan corto"})
	if !domain.IsKind(err, domain.ErrConfigurationMissing) {
		t.Fatalf("expected missing configuration, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no provider request, got %d", gen.calls)
	}
}

func TestAnalyzeRejectsMalformedPDFWithoutProviderCall(t *testing.T) {
	gen := &generatorFake{raw: validReportJSON}
	runs := &runRepoFake{}
	uc := NewAuditUseCase(gen, WithRunRepository(runs))

	_, err := uc.Analyze(context.Background(), domain.PDFInput{Data: "not base64!"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if gen.calls != 0 || len(runs.runs) != 0 {
		t.Fatalf("expected no provider call and no run, got calls=%d runs=%d", gen.calls, len(runs.runs))
	}
}

func TestAnalyzeMapsResponseFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "empty", raw: "", want: domain.ErrEmptyResponse},
		{name: "not json", raw: "Lo siento, no puedo ayudar.", want: domain.ErrParseFailure},
		{name: "three pillars", raw: strings.Replace(validReportJSON, `,
    {"category": "Políticas de Seguridad", "score": 80, "status": "Optimizado", "observation": "d"}`, "", 1), want: domain.ErrParseFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			runs := &runRepoFake{}
			uc := NewAuditUseCase(&generatorFake{raw: tc.raw}, WithRunRepository(runs))
			report, err := uc.Analyze(context.Background(), samplePlan)
			if report != nil || !domain.IsKind(err, tc.want) {
				t.Fatalf("expected %v, got report=%v err=%v", tc.want, report, err)
			}
			if len(runs.runs) != 1 || runs.runs[0].Status != domain.RunError || runs.runs[0].ErrorKind != domain.Kind(err) {
				t.Fatalf("unexpected run log %+v", runs.runs)
			}
		})
	}
}

func TestAnalyzePassesProviderErrorsThrough(t *testing.T) {
	providerErr := domain.WrapError(domain.ErrQuotaExceeded, "gemini.generate_content", errors.New("429"))
	gen := &generatorFake{err: providerErr}
	uc := NewAuditUseCase(gen)

	_, err := uc.Analyze(context.Background(), samplePlan)
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("provider errors must not be retried, got %d calls", gen.calls)
	}
}

func TestAnalyzePublishesEventInsteadOfRecording(t *testing.T) {
	runs := &runRepoFake{}
	events := &publisherFake{}
	uc := NewAuditUseCase(&generatorFake{raw: validReportJSON}, WithRunRepository(runs), WithEventPublisher(events))

	if _, err := uc.Analyze(context.Background(), samplePlan); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(events.events) != 1 || len(runs.runs) != 0 {
		t.Fatalf("expected one event and no direct record, got events=%d runs=%d", len(events.events), len(runs.runs))
	}
	if events.events[0].Report == nil || events.events[0].Run.Status != domain.RunComplete {
		t.Fatalf("unexpected event %+v", events.events[0])
	}
}

func TestAnalyzeIgnoresRunLogFailures(t *testing.T) {
	events := &publisherFake{err: errors.New("nats down")}
	uc := NewAuditUseCase(&generatorFake{raw: validReportJSON}, WithEventPublisher(events))
	if _, err := uc.Analyze(context.Background(), samplePlan); err != nil {
		t.Fatalf("run log failure must not fail the audit: %v", err)
	}

	runs := &runRepoFake{err: errors.New("db down")}
	uc = NewAuditUseCase(&generatorFake{raw: validReportJSON}, WithRunRepository(runs))
	if _, err := uc.Analyze(context.Background(), samplePlan); err != nil {
		t.Fatalf("run log failure must not fail the audit: %v", err)
	}
}
