package httpapi

import (
	"time"

	"quiz-maker/internal/auth"
	"quiz-maker/internal/dashboard"
	"quiz-maker/internal/quiz"
)

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// errorResponse always reports success=false, with either a single message or
// a list of field problems.
type errorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type submitRequest struct {
	Answers []*int `json:"answers"`
}

type submitResponse struct {
	Success bool `json:"success"`
	quiz.Submission
}

type userResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	IsAdmin   bool                `json:"isAdmin"`
	CreatedAt time.Time           `json:"createdAt"`
	Tests     []quiz.HistoryEntry `json:"tests,omitempty"`
}

type registerResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type dashboardResponse struct {
	Success bool                `json:"success"`
	Tests   []quiz.HistoryEntry `json:"tests"`
	Summary dashboard.Summary   `json:"summary"`
}

func toUserResponse(user auth.User, tests []quiz.HistoryEntry) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		Tests:     tests,
	}
}
