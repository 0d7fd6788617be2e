package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"quiz-maker/internal/quiz"
)

type resultRow struct {
	ResultID      string `db:"result_id"`
	UserID        string `db:"user_id"`
	QuizID        string `db:"quiz_id"`
	QuizTitle     string `db:"quiz_title"`
	Score         int    `db:"score"`
	Total         int    `db:"total"`
	AnswersJSON   string `db:"answers_json"`
	CreatedAtUnix int64  `db:"created_at_unix"`
}

type historyRow struct {
	UserID         string `db:"user_id"`
	ResultID       string `db:"result_id"`
	QuizID         string `db:"quiz_id"`
	QuizTitle      string `db:"quiz_title"`
	Score          int    `db:"score"`
	TotalQuestions int    `db:"total_questions"`
	TakenAtUnix    int64  `db:"taken_at_unix"`
}

// RecordResult inserts the result and appends the user's history entry in a
// single transaction: either both rows land or neither does.
func (s *Store) RecordResult(ctx context.Context, result quiz.Result) error {
	if result.ID == "" {
		return errors.New("result id is required")
	}

	answersJSON, err := json.Marshal(result.Answers)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := toUnix(result.CreatedAt)
	if _, err := tx.NamedExecContext(
		ctx,
		`INSERT INTO results (result_id, user_id, quiz_id, quiz_title, score, total, answers_json, created_at_unix)
		 VALUES (:result_id, :user_id, :quiz_id, :quiz_title, :score, :total, :answers_json, :created_at_unix)`,
		resultRow{
			ResultID:      result.ID,
			UserID:        result.UserID,
			QuizID:        result.QuizID,
			QuizTitle:     result.QuizTitle,
			Score:         result.Score,
			Total:         result.Total,
			AnswersJSON:   string(answersJSON),
			CreatedAtUnix: createdAt,
		},
	); err != nil {
		return err
	}

	if _, err := tx.NamedExecContext(
		ctx,
		`INSERT INTO user_tests (user_id, result_id, quiz_id, quiz_title, score, total_questions, taken_at_unix)
		 VALUES (:user_id, :result_id, :quiz_id, :quiz_title, :score, :total_questions, :taken_at_unix)`,
		historyRow{
			UserID:         result.UserID,
			ResultID:       result.ID,
			QuizID:         result.QuizID,
			QuizTitle:      result.QuizTitle,
			Score:          result.Score,
			TotalQuestions: result.Total,
			TakenAtUnix:    createdAt,
		},
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) GetResult(ctx context.Context, resultID string) (quiz.Result, error) {
	var row resultRow
	err := s.db.GetContext(
		ctx,
		&row,
		`SELECT result_id, user_id, quiz_id, quiz_title, score, total, answers_json, created_at_unix
		 FROM results WHERE result_id = ?`,
		resultID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Result{}, quiz.ErrResultNotFound
		}
		return quiz.Result{}, err
	}
	return row.toResult()
}

func (s *Store) ListResults(ctx context.Context, userID string) ([]quiz.Result, error) {
	var rows []resultRow
	if err := s.db.SelectContext(
		ctx,
		&rows,
		`SELECT result_id, user_id, quiz_id, quiz_title, score, total, answers_json, created_at_unix
		 FROM results
		 WHERE user_id = ?
		 ORDER BY created_at_unix DESC, result_id ASC`,
		userID,
	); err != nil {
		return nil, err
	}

	results := make([]quiz.Result, 0, len(rows))
	for _, row := range rows {
		result, err := row.toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ListHistory returns entries in append order; sorting for display belongs to
// the dashboard aggregator.
func (s *Store) ListHistory(ctx context.Context, userID string) ([]quiz.HistoryEntry, error) {
	var rows []historyRow
	if err := s.db.SelectContext(
		ctx,
		&rows,
		`SELECT user_id, result_id, quiz_id, quiz_title, score, total_questions, taken_at_unix
		 FROM user_tests
		 WHERE user_id = ?
		 ORDER BY id ASC`,
		userID,
	); err != nil {
		return nil, err
	}

	entries := make([]quiz.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, quiz.HistoryEntry{
			QuizID:         row.QuizID,
			QuizTitle:      row.QuizTitle,
			Score:          row.Score,
			TotalQuestions: row.TotalQuestions,
			Date:           fromUnix(row.TakenAtUnix),
		})
	}
	return entries, nil
}

func (r resultRow) toResult() (quiz.Result, error) {
	var answers []*int
	if err := json.Unmarshal([]byte(r.AnswersJSON), &answers); err != nil {
		return quiz.Result{}, err
	}
	return quiz.Result{
		ID:        r.ResultID,
		UserID:    r.UserID,
		QuizID:    r.QuizID,
		QuizTitle: r.QuizTitle,
		Score:     r.Score,
		Total:     r.Total,
		Answers:   answers,
		CreatedAt: fromUnix(r.CreatedAtUnix),
	}, nil
}
