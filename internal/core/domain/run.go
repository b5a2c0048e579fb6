package domain

import "time"

type RunStatus string

const (
	RunComplete RunStatus = "complete"
	RunError    RunStatus = "error"
)

// AuditRun is the operational record of one analysis attempt. It never holds
// the submitted document or the report body.
type AuditRun struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id,omitempty"`
	InputKind    InputKind `json:"input_kind"`
	InputBytes   int       `json:"input_bytes"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Status       RunStatus `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	OverallScore float64   `json:"overall_score,omitempty"`
	RiskLevel    RiskLevel `json:"risk_level,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditEvent announces a finished run. Report is set only for complete runs.
type AuditEvent struct {
	Run    AuditRun     `json:"run"`
	Report *AuditReport `json:"report,omitempty"`
}
