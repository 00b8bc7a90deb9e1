package db_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"winterbot/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

var answerColumns = []string{"id", "response", "weight"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func TestQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("RandomResponse", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT response FROM eightball ORDER BY random()*weight LIMIT 1")).
			WillReturnRows(pgxmock.NewRows([]string{"response"}).AddRow("Ask again later."))

		got, err := db.RandomResponse(ctx, mock)
		if err != nil {
			t.Fatalf("RandomResponse failed: %v", err)
		}
		if got != "Ask again later." {
			t.Errorf("expected 'Ask again later.', got %q", got)
		}
	})

	t.Run("RandomResponseEmptyTable", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT response FROM eightball").
			WillReturnRows(pgxmock.NewRows([]string{"response"}))

		if _, err := db.RandomResponse(ctx, mock); !errors.Is(err, db.ErrAnswerNotFound) {
			t.Fatalf("expected ErrAnswerNotFound, got %v", err)
		}
	})

	t.Run("ListAnswers", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT id, response, weight FROM eightball ORDER BY id").
			WillReturnRows(pgxmock.NewRows(answerColumns).
				AddRow(int16(1), "yes", int16(2)).
				AddRow(int16(2), "no", int16(1)))

		answers, err := db.ListAnswers(ctx, mock)
		if err != nil {
			t.Fatalf("ListAnswers failed: %v", err)
		}
		if len(answers) != 2 {
			t.Fatalf("expected 2 answers, got %d", len(answers))
		}
		if answers[0].Response != "yes" || answers[0].Weight != 2 {
			t.Errorf("unexpected first answer %+v", answers[0])
		}
	})

	t.Run("ListAnswersEmpty", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("SELECT id, response, weight FROM eightball").
			WillReturnRows(pgxmock.NewRows(answerColumns))

		answers, err := db.ListAnswers(ctx, mock)
		if err != nil {
			t.Fatalf("ListAnswers failed: %v", err)
		}
		if answers == nil || len(answers) != 0 {
			t.Errorf("expected an empty non-nil slice, got %#v", answers)
		}
	})

	t.Run("UpdateKeepsOmittedFields", func(t *testing.T) {
		mock := newMock(t)
		weight := int16(5)
		mock.ExpectQuery("UPDATE eightball SET").
			WithArgs(int16(1), (*string)(nil), &weight).
			WillReturnRows(pgxmock.NewRows(answerColumns).AddRow(int16(1), "maybe", int16(5)))

		a, err := db.UpdateAnswer(ctx, mock, 1, nil, &weight)
		if err != nil {
			t.Fatalf("UpdateAnswer failed: %v", err)
		}
		if a.ID != 1 || a.Response != "maybe" || a.Weight != 5 {
			t.Errorf("unexpected answer %+v", a)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("UPDATE eightball SET").
			WithArgs(int16(9), (*string)(nil), (*int16)(nil)).
			WillReturnRows(pgxmock.NewRows(answerColumns))

		if _, err := db.UpdateAnswer(ctx, mock, 9, nil, nil); !errors.Is(err, db.ErrAnswerNotFound) {
			t.Fatalf("expected ErrAnswerNotFound, got %v", err)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM eightball WHERE id = $1 RETURNING id, response, weight")).
			WithArgs(int16(42)).
			WillReturnRows(pgxmock.NewRows(answerColumns))

		if _, err := db.DeleteAnswer(ctx, mock, 42); !errors.Is(err, db.ErrAnswerNotFound) {
			t.Fatalf("expected ErrAnswerNotFound, got %v", err)
		}
	})

	t.Run("CreatePropagatesDataErrors", func(t *testing.T) {
		mock := newMock(t)
		pgErr := &pgconn.PgError{Code: "23514", Message: "check constraint"}
		mock.ExpectQuery("INSERT INTO eightball").
			WithArgs("yes", int16(0)).
			WillReturnError(pgErr)

		_, err := db.CreateAnswer(ctx, mock, "yes", 0)
		var got *pgconn.PgError
		if !errors.As(err, &got) || got.Code != "23514" {
			t.Fatalf("expected the raw PgError, got %v", err)
		}
	})
}
