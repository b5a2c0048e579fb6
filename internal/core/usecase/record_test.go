package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

type archiveFake struct {
	saved map[string]string
	err   error
}

func (f *archiveFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *archiveFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.saved[key])), nil
}

func TestHandleAuditEventArchivesAndRecords(t *testing.T) {
	runs := &runRepoFake{}
	archive := &archiveFake{}
	uc := NewRecordAuditUseCase(runs, archive)

	report := &domain.AuditReport{OverallScore: 90, RiskLevel: domain.RiskSafe}
	event := domain.AuditEvent{Run: domain.AuditRun{ID: "run-1", Status: domain.RunComplete}, Report: report}
	if err := uc.HandleAuditEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleAuditEvent() error = %v", err)
	}

	var archived domain.AuditReport
	if err := json.Unmarshal([]byte(archive.saved["run-1.json"]), &archived); err != nil {
		t.Fatalf("decode archived report: %v", err)
	}
	if archived.OverallScore != 90 {
		t.Fatalf("unexpected archived report %+v", archived)
	}
	if len(runs.runs) != 1 || runs.runs[0].ID != "run-1" {
		t.Fatalf("unexpected runs %+v", runs.runs)
	}
}

func TestHandleAuditEventSkipsArchiveForFailedRuns(t *testing.T) {
	runs := &runRepoFake{}
	archive := &archiveFake{}
	uc := NewRecordAuditUseCase(runs, archive)

	event := domain.AuditEvent{Run: domain.AuditRun{ID: "run-2", Status: domain.RunError, ErrorKind: "quota_exceeded"}}
	if err := uc.HandleAuditEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleAuditEvent() error = %v", err)
	}
	if len(archive.saved) != 0 || len(runs.runs) != 1 {
		t.Fatalf("unexpected state archive=%v runs=%v", archive.saved, runs.runs)
	}
}

func TestHandleAuditEventFailures(t *testing.T) {
	uc := NewRecordAuditUseCase(&runRepoFake{}, &archiveFake{})
	if err := uc.HandleAuditEvent(context.Background(), domain.AuditEvent{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	runs := &runRepoFake{}
	uc = NewRecordAuditUseCase(runs, &archiveFake{err: errors.New("disk full")})
	event := domain.AuditEvent{Run: domain.AuditRun{ID: "run-3"}, Report: &domain.AuditReport{}}
	if err := uc.HandleAuditEvent(context.Background(), event); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected archive error, got %v", err)
	}
	if len(runs.runs) != 0 {
		t.Fatalf("run must not be recorded when archiving fails")
	}
}
