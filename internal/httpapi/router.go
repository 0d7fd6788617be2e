package httpapi

import (
	"net/http"

	"quiz-maker/internal/auth"
	"quiz-maker/internal/quiz"
)

// NewRouter serves the JSON API under /api plus a plain-text /health probe.
// health may be nil.
func NewRouter(quizzes *quiz.Service, authService *auth.Service, health HealthChecker) http.Handler {
	api := NewAPI(quizzes, authService, health)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", api.HandleHealth)

	mux.HandleFunc("/api/quizzes", api.HandleQuizzes)
	mux.HandleFunc("GET /api/quizzes/{id}", api.requireUser(api.HandleGetQuiz))
	mux.HandleFunc("POST /api/quizzes/{id}/submit", api.requireUser(api.HandleSubmit))

	mux.HandleFunc("POST /api/auth/register", api.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", api.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", api.requireUser(api.HandleLogout))
	mux.HandleFunc("GET /api/auth/dashboard", api.requireUser(api.HandleDashboard))

	mux.HandleFunc("GET /api/results", api.requireUser(api.HandleListResults))
	mux.HandleFunc("GET /api/results/{id}", api.requireUser(api.HandleGetResult))

	mux.HandleFunc("/", handleNotFound)

	return withRequestID(logRequests(recoverPanics(mux)))
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Message: "Route not found"})
}
