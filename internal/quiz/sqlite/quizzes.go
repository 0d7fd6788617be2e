package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"quiz-maker/internal/quiz"
)

type quizRow struct {
	QuizID        string `db:"quiz_id"`
	Title         string `db:"title"`
	QuestionCount int    `db:"question_count"`
	CreatedAtUnix int64  `db:"created_at_unix"`
}

type questionRow struct {
	QuizID       string `db:"quiz_id"`
	Position     int    `db:"position"`
	Prompt       string `db:"prompt"`
	OptionsJSON  string `db:"options_json"`
	CorrectIndex int    `db:"correct_index"`
}

// CreateQuiz writes the quiz header and every question in one transaction.
// Quizzes are never updated, so an existing id is a conflict.
func (s *Store) CreateQuiz(ctx context.Context, q quiz.Quiz) error {
	if q.ID == "" {
		return errors.New("quiz id is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	header := quizRow{
		QuizID:        q.ID,
		Title:         q.Title,
		QuestionCount: len(q.Questions),
		CreatedAtUnix: toUnix(q.CreatedAt),
	}
	if _, err := tx.NamedExecContext(
		ctx,
		`INSERT INTO quizzes (quiz_id, title, question_count, created_at_unix)
		 VALUES (:quiz_id, :title, :question_count, :created_at_unix)`,
		header,
	); err != nil {
		return err
	}

	for idx, question := range q.Questions {
		optionsJSON, err := json.Marshal(question.Options)
		if err != nil {
			return err
		}

		row := questionRow{
			QuizID:       q.ID,
			Position:     idx,
			Prompt:       question.Question,
			OptionsJSON:  string(optionsJSON),
			CorrectIndex: question.CorrectIndex,
		}
		if _, err := tx.NamedExecContext(
			ctx,
			`INSERT INTO quiz_questions (quiz_id, position, prompt, options_json, correct_index)
			 VALUES (:quiz_id, :position, :prompt, :options_json, :correct_index)`,
			row,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error) {
	var header quizRow
	err := s.db.GetContext(
		ctx,
		&header,
		`SELECT quiz_id, title, question_count, created_at_unix FROM quizzes WHERE quiz_id = ?`,
		quizID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Quiz{}, quiz.ErrQuizNotFound
		}
		return quiz.Quiz{}, err
	}

	var rows []questionRow
	if err := s.db.SelectContext(
		ctx,
		&rows,
		`SELECT quiz_id, position, prompt, options_json, correct_index
		 FROM quiz_questions
		 WHERE quiz_id = ?
		 ORDER BY position ASC`,
		quizID,
	); err != nil {
		return quiz.Quiz{}, err
	}

	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		var options []string
		if err := json.Unmarshal([]byte(row.OptionsJSON), &options); err != nil {
			return quiz.Quiz{}, err
		}
		questions = append(questions, quiz.Question{
			Question:     row.Prompt,
			Options:      options,
			CorrectIndex: row.CorrectIndex,
		})
	}

	return quiz.Quiz{
		ID:        header.QuizID,
		Title:     header.Title,
		Questions: questions,
		CreatedAt: fromUnix(header.CreatedAtUnix),
	}, nil
}

func (s *Store) ListQuizzes(ctx context.Context, limit int) ([]quiz.QuizSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []quizRow
	if err := s.db.SelectContext(
		ctx,
		&rows,
		`SELECT quiz_id, title, question_count, created_at_unix
		 FROM quizzes
		 ORDER BY created_at_unix DESC
		 LIMIT ?`,
		limit,
	); err != nil {
		return nil, err
	}

	summaries := make([]quiz.QuizSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, quiz.QuizSummary{
			ID:            row.QuizID,
			Title:         row.Title,
			QuestionCount: row.QuestionCount,
			CreatedAt:     fromUnix(row.CreatedAtUnix),
		})
	}
	return summaries, nil
}
