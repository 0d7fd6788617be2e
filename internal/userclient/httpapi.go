package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"quiz-maker/internal/dashboard"
	"quiz-maker/internal/quiz"
)

var (
	ErrServiceUnavailable = errors.New("quiz service unavailable")
	ErrNotLoggedIn        = errors.New("not logged in")
)

type APIError struct {
	StatusCode int
	Message    string
	Problems   []string
}

func (e *APIError) Error() string {
	if len(e.Problems) > 0 {
		return strings.Join(e.Problems, "; ")
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

type User struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	IsAdmin   bool                `json:"isAdmin"`
	CreatedAt time.Time           `json:"createdAt"`
	Tests     []quiz.HistoryEntry `json:"tests,omitempty"`
}

type DashboardQuery struct {
	Title  string
	Date   string
	Status string
}

// HTTPClient talks to the quiz service and keeps the bearer token of the
// logged-in taker. It satisfies session.QuizSource and session.Submitter.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type dashboardResponse struct {
	Tests   []quiz.HistoryEntry `json:"tests"`
	Summary dashboard.Summary   `json:"summary"`
}

type submitRequest struct {
	Answers []*int `json:"answers"`
}

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (User, error) {
	request := map[string]string{"name": name, "email": email, "password": password}

	var payload authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", request, &payload); err != nil {
		return User{}, err
	}
	c.SetToken(payload.Token)
	return payload.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (User, error) {
	request := map[string]string{"email": email, "password": password}

	var payload authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", request, &payload); err != nil {
		return User{}, err
	}
	c.SetToken(payload.Token)
	return payload.User, nil
}

// Logout revokes the token server side and forgets it locally even when the
// server call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return ErrNotLoggedIn
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *HTTPClient) ListQuizzes(ctx context.Context, limit int) ([]quiz.QuizSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var payload dataEnvelope[[]quiz.QuizSummary]
	if err := c.doJSON(ctx, http.MethodGet, "/api/quizzes?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (c *HTTPClient) GetQuiz(ctx context.Context, quizID string) (quiz.Quiz, error) {
	if strings.TrimSpace(quizID) == "" {
		return quiz.Quiz{}, errors.New("quiz id is required")
	}

	var payload dataEnvelope[quiz.Quiz]
	if err := c.doJSON(ctx, http.MethodGet, "/api/quizzes/"+url.PathEscape(quizID), nil, &payload); err != nil {
		return quiz.Quiz{}, err
	}
	return payload.Data, nil
}

func (c *HTTPClient) Submit(ctx context.Context, quizID string, answers []*int) (quiz.Submission, error) {
	var submission quiz.Submission
	path := "/api/quizzes/" + url.PathEscape(quizID) + "/submit"
	if err := c.doJSON(ctx, http.MethodPost, path, submitRequest{Answers: answers}, &submission); err != nil {
		return quiz.Submission{}, err
	}
	return submission, nil
}

func (c *HTTPClient) Dashboard(ctx context.Context, filter DashboardQuery) (dashboard.Summary, error) {
	query := url.Values{}
	if filter.Title != "" {
		query.Set("title", filter.Title)
	}
	if filter.Date != "" {
		query.Set("date", filter.Date)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}

	path := "/api/auth/dashboard"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var payload dashboardResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return dashboard.Summary{}, err
	}
	return payload.Summary, nil
}

func (c *HTTPClient) GetResult(ctx context.Context, resultID string) (quiz.Result, error) {
	if strings.TrimSpace(resultID) == "" {
		return quiz.Result{}, errors.New("result id is required")
	}

	var payload dataEnvelope[quiz.Result]
	if err := c.doJSON(ctx, http.MethodGet, "/api/results/"+url.PathEscape(resultID), nil, &payload); err != nil {
		return quiz.Result{}, err
	}
	return payload.Data, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = strings.TrimSpace(payload.Message)
			apiErr.Problems = payload.Errors
		}
		if apiErr.Message == "" && len(apiErr.Problems) == 0 {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
