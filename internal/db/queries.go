package db

import (
	"context"
	"errors"

	"winterbot/internal/models"

	"github.com/jackc/pgx/v5"
)

// ErrAnswerNotFound is returned when no 8ball answer matches.
var ErrAnswerNotFound = errors.New("answer not found")

// DefaultWeight is stored when an answer is created without a weight.
const DefaultWeight int16 = 1

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAnswerNotFound
	}
	return err
}

// RandomResponse picks one response ordered by random()*weight.
// That ordering is an approximation of weighted sampling, kept as-is.
func RandomResponse(ctx context.Context, q Querier) (string, error) {
	var response string
	err := q.QueryRow(ctx, "SELECT response FROM eightball ORDER BY random()*weight LIMIT 1").Scan(&response)
	if err != nil {
		return "", notFound(err)
	}
	return response, nil
}

// ListAnswers fetches all answers
func ListAnswers(ctx context.Context, q Querier) ([]models.Answer, error) {
	rows, err := q.Query(ctx, "SELECT id, response, weight FROM eightball ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.Response, &a.Weight); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// GetAnswer fetches an answer by ID
func GetAnswer(ctx context.Context, q Querier, id int16) (*models.Answer, error) {
	var a models.Answer
	err := q.QueryRow(ctx, "SELECT id, response, weight FROM eightball WHERE id = $1", id).
		Scan(&a.ID, &a.Response, &a.Weight)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// CreateAnswer inserts an answer and returns the stored row
func CreateAnswer(ctx context.Context, q Querier, response string, weight int16) (*models.Answer, error) {
	var a models.Answer
	err := q.QueryRow(ctx,
		"INSERT INTO eightball (response, weight) VALUES ($1, $2) RETURNING id, response, weight",
		response, weight).
		Scan(&a.ID, &a.Response, &a.Weight)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAnswer changes only the non-nil fields and returns the updated row
func UpdateAnswer(ctx context.Context, q Querier, id int16, response *string, weight *int16) (*models.Answer, error) {
	var a models.Answer
	err := q.QueryRow(ctx, `
		UPDATE eightball SET
			response = COALESCE($2, response),
			weight = COALESCE($3, weight)
		WHERE id = $1 RETURNING id, response, weight`,
		id, response, weight).
		Scan(&a.ID, &a.Response, &a.Weight)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// DeleteAnswer removes an answer and returns the deleted row
func DeleteAnswer(ctx context.Context, q Querier, id int16) (*models.Answer, error) {
	var a models.Answer
	err := q.QueryRow(ctx, "DELETE FROM eightball WHERE id = $1 RETURNING id, response, weight", id).
		Scan(&a.ID, &a.Response, &a.Weight)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}
