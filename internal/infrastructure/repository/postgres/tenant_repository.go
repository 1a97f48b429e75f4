package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
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

func (r *TenantRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS tenant_settings (
	tenant_id TEXT PRIMARY KEY,
	fallback_message TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// FallbackMessage returns the tenant's configured fallback text.
// domain.ErrTenantNotFound is returned when no row or no message exists;
// callers degrade to the fixed default.
func (r *TenantRepository) FallbackMessage(ctx context.Context, tenantID string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT fallback_message
FROM tenant_settings
WHERE tenant_id = $1
`, tenantID)

	var message sql.NullString
	if err := row.Scan(&message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.WrapError(domain.ErrTenantNotFound, "fallback message", err)
		}
		return "", fmt.Errorf("scan fallback message: %w", err)
	}
	if !message.Valid || message.String == "" {
		return "", fmt.Errorf("fallback message: %w", domain.ErrTenantNotFound)
	}
	return message.String, nil
}
