package ports

import (
	"context"
	"io"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

// ReportGenerator issues one request to an AI provider and returns the raw
// response text.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, input domain.AuditInput) (string, error)
	Name() string
	Model() string
}

// PDFTextExtractor turns PDF bytes into plain text for text-only providers.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// AuditRunRepository persists the operational run log.
type AuditRunRepository interface {
	Record(ctx context.Context, run domain.AuditRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditRun, error)
}

// AuditEventPublisher announces finished runs.
type AuditEventPublisher interface {
	PublishAuditCompleted(ctx context.Context, event domain.AuditEvent) error
}

// AuditEventSubscriber consumes finished-run events.
type AuditEventSubscriber interface {
	SubscribeAuditCompleted(ctx context.Context, handler func(context.Context, domain.AuditEvent) error) error
}

// ObjectStorage stores archived reports.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
