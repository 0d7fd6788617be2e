package httpapi

import (
	"context"
	"net/http"
	"time"

	"quiz-maker/internal/auth"
	"quiz-maker/internal/dashboard"
	"quiz-maker/internal/quiz"
)

const (
	defaultListLimit = 50
	healthTimeout    = 2 * time.Second
)

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := a.health.Ping(ctx); err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// HandleQuizzes lists quizzes to anyone and creates them for admins.
func (a *API) HandleQuizzes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleListQuizzes(w, r)
	case http.MethodPost:
		a.requireAdmin(a.handleCreateQuiz)(w, r)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultListLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items, err := a.quizzes.ListQuizzes(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: items})
}

func (a *API) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var input quiz.CreateQuizInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, r, err)
		return
	}

	created, err := a.quizzes.CreateQuiz(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: created})
}

// HandleGetQuiz returns the full definition including correctIndex; the
// taker client shows per-question feedback from it.
func (a *API) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
	found, err := a.quizzes.GetQuiz(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: found})
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var request submitRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeServiceError(w, r, err)
		return
	}

	submission, err := a.quizzes.Submit(r.Context(), identity.UserID, r.PathValue("id"), request.Answers)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, Submission: submission})
}

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, r, err)
		return
	}

	session, err := a.auth.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		User:    toUserResponse(session.User, nil),
		Token:   session.Token,
	})
}

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, r, err)
		return
	}

	session, err := a.auth.Login(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tests, err := a.quizzes.History(r.Context(), session.User.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token: session.Token,
		User:  toUserResponse(session.User, tests),
	})
}

func (a *API) HandleLogout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	if err := a.auth.Logout(r.Context(), identity); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logged out"})
}

// HandleDashboard returns the raw history plus the aggregated view; title,
// date and status query parameters filter the aggregated entries only.
func (a *API) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	query := r.URL.Query()
	filter, err := dashboard.ParseFilter(query.Get("title"), query.Get("date"), query.Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tests, err := a.quizzes.History(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		Success: true,
		Tests:   tests,
		Summary: dashboard.Summarize(tests, filter),
	})
}

func (a *API) HandleListResults(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	results, err := a.quizzes.ListResults(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []quiz.Result{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: results})
}

func (a *API) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	result, err := a.quizzes.GetResult(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: result})
}
