package db_test

import (
	"context"
	"errors"
	"io"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"winterbot/internal/db"
	"winterbot/internal/db/dbtest"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

var appliedQuery = regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")

func expectApplied(mock pgxmock.PgxPoolIface, version int, applied bool) {
	mock.ExpectQuery(appliedQuery).
		WithArgs(version).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(applied))
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard)

	t.Run("AppliesPendingSkipsApplied", func(t *testing.T) {
		mock := newMock(t)
		pool := &dbtest.Pool{Querier: mock}

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		expectApplied(mock, 1, false)
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS eightball").
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS eightball_id_weight_idx").
			WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
			WithArgs(1).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
		// pgx.BeginFunc always rolls back in a defer; after Commit that is a no-op.
		mock.ExpectRollback()
		expectApplied(mock, 2, true)

		if err := db.Migrate(ctx, pool, logger); err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}

		want := []string{"conn1.Exec", "conn1.QueryRow", "conn1.Begin", "conn1.QueryRow"}
		if got := pool.Calls(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected every statement on one connection %v, got %v", want, got)
		}
		if pool.Acquired() != 1 || pool.Outstanding() != 0 {
			t.Errorf("expected 1 acquire and nothing outstanding, got %d and %d", pool.Acquired(), pool.Outstanding())
		}
	})

	t.Run("NothingPending", func(t *testing.T) {
		mock := newMock(t)
		pool := &dbtest.Pool{Querier: mock}

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		expectApplied(mock, 1, true)
		expectApplied(mock, 2, true)

		if err := db.Migrate(ctx, pool, logger); err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}
		if pool.Outstanding() != 0 {
			t.Errorf("expected nothing outstanding, got %d", pool.Outstanding())
		}
	})

	t.Run("FailingStatementRollsBack", func(t *testing.T) {
		mock := newMock(t)
		pool := &dbtest.Pool{Querier: mock}
		pgErr := &pgconn.PgError{Code: "42601", Message: "syntax error"}

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		expectApplied(mock, 1, false)
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS eightball").WillReturnError(pgErr)
		// Once explicitly after the error, once more from the deferred cleanup.
		mock.ExpectRollback()
		mock.ExpectRollback()

		err := db.Migrate(ctx, pool, logger)
		if err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(err.Error(), "0001_create_eightball.sql") {
			t.Errorf("expected the migration name in %q", err)
		}
		var got *pgconn.PgError
		if !errors.As(err, &got) || got.Code != "42601" {
			t.Errorf("expected the driver error wrapped, got %v", err)
		}
		if pool.Acquired() != 1 || pool.Outstanding() != 0 {
			t.Errorf("expected 1 acquire and nothing outstanding, got %d and %d", pool.Acquired(), pool.Outstanding())
		}
	})

	t.Run("AcquireFails", func(t *testing.T) {
		pool := &dbtest.Pool{AcquireErr: errors.New("too many clients")}

		if err := db.Migrate(ctx, pool, logger); err == nil || !strings.Contains(err.Error(), "too many clients") {
			t.Errorf("expected the acquire error, got %v", err)
		}
		if len(pool.Calls()) != 0 {
			t.Errorf("expected no statements, got %v", pool.Calls())
		}
	})
}
