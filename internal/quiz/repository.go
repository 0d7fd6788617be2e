package quiz

import (
	"context"
	"errors"
)

var (
	ErrQuizNotFound   = errors.New("quiz not found")
	ErrResultNotFound = errors.New("result not found")
	ErrInvalidQuizID  = errors.New("invalid quiz id")
	ErrInvalidUser    = errors.New("invalid user")
)

type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz Quiz) error
	GetQuiz(ctx context.Context, quizID string) (Quiz, error)
	ListQuizzes(ctx context.Context, limit int) ([]QuizSummary, error)
}

// ResultRepository persists scored attempts. RecordResult must insert the
// Result and append the matching HistoryEntry atomically.
type ResultRepository interface {
	RecordResult(ctx context.Context, result Result) error
	GetResult(ctx context.Context, resultID string) (Result, error)
	ListResults(ctx context.Context, userID string) ([]Result, error)
	ListHistory(ctx context.Context, userID string) ([]HistoryEntry, error)
}
