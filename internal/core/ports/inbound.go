package ports

import (
	"context"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

// Auditor is the inbound contract for analysing one security plan.
type Auditor interface {
	Analyze(ctx context.Context, input domain.AuditInput) (*domain.AuditReport, error)
}

// AuditEventHandler is the inbound contract for the worker side of the run log.
type AuditEventHandler interface {
	HandleAuditEvent(ctx context.Context, event domain.AuditEvent) error
}
