package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082602)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS query_audit (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	confidence INTEGER NOT NULL,
	success BOOLEAN NOT NULL,
	source TEXT NOT NULL,
	asked_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_audit_tenant ON query_audit(tenant_id, asked_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AuditRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO query_audit (
	id, tenant_id, question, answer, confidence, success, source, asked_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`,
		entry.ID, entry.TenantID, entry.Question, entry.Answer,
		entry.Confidence, entry.Success, string(entry.Source), entry.AskedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
