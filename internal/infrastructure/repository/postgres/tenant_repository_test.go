package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

func TestFallbackMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"fallback_message"}).AddRow("Call us at 555-0100.")
	mock.ExpectQuery(`SELECT fallback_message`).
		WithArgs("tenant-1").
		WillReturnRows(rows)

	repo := NewTenantRepository(db)
	got, err := repo.FallbackMessage(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("FallbackMessage: %v", err)
	}
	if got != "Call us at 555-0100." {
		t.Fatalf("message = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFallbackMessageNoRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT fallback_message`).
		WithArgs("tenant-unknown").
		WillReturnRows(sqlmock.NewRows([]string{"fallback_message"}))

	repo := NewTenantRepository(db)
	_, err = repo.FallbackMessage(context.Background(), "tenant-unknown")
	if !domain.IsKind(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestFallbackMessageNullTreatedAsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"fallback_message"}).AddRow(nil)
	mock.ExpectQuery(`SELECT fallback_message`).
		WithArgs("tenant-1").
		WillReturnRows(rows)

	repo := NewTenantRepository(db)
	_, err = repo.FallbackMessage(context.Background(), "tenant-1")
	if !domain.IsKind(err, domain.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound for NULL message, got %v", err)
	}
}

func TestFallbackMessageQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT fallback_message`).
		WithArgs("tenant-1").
		WillReturnError(errors.New("connection reset"))

	repo := NewTenantRepository(db)
	_, err = repo.FallbackMessage(context.Background(), "tenant-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsKind(err, domain.ErrTenantNotFound) {
		t.Fatalf("infrastructure failure must not masquerade as not-found: %v", err)
	}
}

func TestTenantEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(int64(2026082601)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS tenant_settings`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewTenantRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
