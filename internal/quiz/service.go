package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultListLimit = 50

type Service struct {
	quizzes QuizRepository
	results ResultRepository
	now     func() time.Time
	newID   func() string

	mu        sync.RWMutex
	quizCache map[string]Quiz
}

type Option func(*Service)

// WithClock overrides the time source used for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func NewService(quizzes QuizRepository, results ResultRepository, opts ...Option) *Service {
	s := &Service{
		quizzes:   quizzes,
		results:   results,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		quizCache: make(map[string]Quiz),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateQuiz(ctx context.Context, input CreateQuizInput) (Quiz, error) {
	input.Normalize()
	if err := ValidateQuiz(input); err != nil {
		return Quiz{}, err
	}

	created := Quiz{
		ID:        s.newID(),
		Title:     input.Title,
		Questions: input.toQuestions(),
		CreatedAt: s.now(),
	}
	if err := s.quizzes.CreateQuiz(ctx, created); err != nil {
		return Quiz{}, fmt.Errorf("create quiz: %w", err)
	}

	s.setCachedQuiz(created)
	return created, nil
}

func (s *Service) GetQuiz(ctx context.Context, quizID string) (Quiz, error) {
	quizID, err := parseQuizID(quizID)
	if err != nil {
		return Quiz{}, err
	}

	if cached, ok := s.getCachedQuiz(quizID); ok {
		return cached, nil
	}

	found, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	s.setCachedQuiz(found)
	return found, nil
}

func (s *Service) ListQuizzes(ctx context.Context, limit int) ([]QuizSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.quizzes.ListQuizzes(ctx, limit)
}

// Submit scores one attempt and records it. Every call creates a new Result and
// a new history entry; repeated submissions are not deduplicated.
func (s *Service) Submit(ctx context.Context, userID, quizID string, answers []*int) (Submission, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Submission{}, ErrInvalidUser
	}

	target, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return Submission{}, err
	}

	if err := ValidateAnswers(answers, len(target.Questions)); err != nil {
		return Submission{}, err
	}

	padded := PadAnswers(answers, len(target.Questions))
	score := Score(target.Questions, padded)

	result := Result{
		ID:        s.newID(),
		UserID:    userID,
		QuizID:    target.ID,
		QuizTitle: target.Title,
		Score:     score,
		Total:     len(target.Questions),
		Answers:   padded,
		CreatedAt: s.now(),
	}
	if err := s.results.RecordResult(ctx, result); err != nil {
		log.Printf("record result quiz=%s user=%s: %v", target.ID, userID, err)
		return Submission{}, fmt.Errorf("record result: %w", err)
	}

	return Submission{
		ResultID: result.ID,
		Title:    target.Title,
		Total:    result.Total,
		Score:    score,
		Details:  BuildDetails(target.Questions, padded),
	}, nil
}

// GetResult returns a result only to the user who produced it; anyone else
// sees ErrResultNotFound.
func (s *Service) GetResult(ctx context.Context, userID, resultID string) (Result, error) {
	resultID = strings.TrimSpace(resultID)
	if _, err := uuid.Parse(resultID); err != nil {
		return Result{}, ErrResultNotFound
	}

	found, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return Result{}, err
	}
	if found.UserID != userID {
		return Result{}, ErrResultNotFound
	}
	return found, nil
}

func (s *Service) ListResults(ctx context.Context, userID string) ([]Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	return s.results.ListResults(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	return s.results.ListHistory(ctx, userID)
}

func parseQuizID(quizID string) (string, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" {
		return "", ErrInvalidQuizID
	}
	parsed, err := uuid.Parse(quizID)
	if err != nil {
		return "", errors.Join(ErrInvalidQuizID, err)
	}
	return parsed.String(), nil
}
