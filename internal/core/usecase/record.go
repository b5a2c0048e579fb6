package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
	"github.com/kirillkom/security-plan-auditor/internal/core/ports"
)

// RecordAuditUseCase stores finished runs delivered by the event queue.
type RecordAuditUseCase struct {
	runs    ports.AuditRunRepository
	archive ports.ObjectStorage
}

func NewRecordAuditUseCase(runs ports.AuditRunRepository, archive ports.ObjectStorage) *RecordAuditUseCase {
	return &RecordAuditUseCase{runs: runs, archive: archive}
}

func (uc *RecordAuditUseCase) HandleAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	if strings.TrimSpace(event.Run.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "handle audit event", errors.New("run id is required"))
	}

	if event.Report != nil && uc.archive != nil {
		if err := uc.archiveReport(ctx, event.Run.ID, event.Report); err != nil {
			return err
		}
	}

	if err := uc.runs.Record(ctx, event.Run); err != nil {
		return fmt.Errorf("record audit run: %w", err)
	}
	return nil
}

// ArchiveKey names the archived report of a run.
func ArchiveKey(runID string) string {
	return runID + ".json"
}

func (uc *RecordAuditUseCase) archiveReport(ctx context.Context, runID string, report *domain.AuditReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := uc.archive.Save(ctx, ArchiveKey(runID), bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return nil
}
