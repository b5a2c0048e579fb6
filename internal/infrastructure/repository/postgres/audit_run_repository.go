package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/security-plan-auditor/internal/core/domain"
)

const (
	schemaLockID     = int64(2026101801)
	defaultListLimit = 50
	maxListLimit     = 500
)

type AuditRunRepository struct {
	db *sql.DB
}

func NewAuditRunRepository(db *sql.DB) *AuditRunRepository {
	return &AuditRunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AuditRunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL DEFAULT '',
	input_kind TEXT NOT NULL,
	input_bytes INTEGER NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	status TEXT NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	overall_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	risk_level TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_runs_created_at ON audit_runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_runs_status ON audit_runs(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Record inserts a run. Redelivered runs are ignored.
func (r *AuditRunRepository) Record(ctx context.Context, run domain.AuditRun) error {
	if run.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record audit run", errors.New("run id is required"))
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_runs (
	id, request_id, input_kind, input_bytes, provider, model, status, error_kind, overall_score, risk_level, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO NOTHING
`,
		run.ID, run.RequestID, string(run.InputKind), run.InputBytes, run.Provider, run.Model,
		string(run.Status), run.ErrorKind, run.OverallScore, string(run.RiskLevel), run.DurationMS, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit run: %w", err)
	}
	return nil
}

// ListRecent returns the newest runs first.
func (r *AuditRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, request_id, input_kind, input_bytes, provider, model, status, error_kind, overall_score, risk_level, duration_ms, created_at
FROM audit_runs
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.AuditRun, 0, limit)
	for rows.Next() {
		var run domain.AuditRun
		var inputKind, status, riskLevel string
		if err := rows.Scan(
			&run.ID, &run.RequestID, &inputKind, &run.InputBytes, &run.Provider, &run.Model,
			&status, &run.ErrorKind, &run.OverallScore, &riskLevel, &run.DurationMS, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit run: %w", err)
		}
		run.InputKind = domain.InputKind(inputKind)
		run.Status = domain.RunStatus(status)
		run.RiskLevel = domain.RiskLevel(riskLevel)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit runs: %w", err)
	}
	return runs, nil
}
