package httpapi

import (
	"context"

	"quiz-maker/internal/auth"
	"quiz-maker/internal/quiz"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type API struct {
	quizzes *quiz.Service
	auth    *auth.Service
	health  HealthChecker
}

func NewAPI(quizzes *quiz.Service, authService *auth.Service, health HealthChecker) *API {
	return &API{
		quizzes: quizzes,
		auth:    authService,
		health:  health,
	}
}
