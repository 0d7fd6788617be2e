package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"quiz-maker/internal/auth"
	"quiz-maker/internal/quiz"
	"quiz-maker/internal/validation"
)

const maxBodyBytes = 1 << 20

var errInvalidJSON = errors.New("invalid JSON body")

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Errors: validationErr.Problems})
	case errors.Is(err, errInvalidJSON):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON body"})
	case errors.Is(err, quiz.ErrInvalidQuizID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid quiz ID"})
	case errors.Is(err, quiz.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Quiz not found"})
	case errors.Is(err, quiz.ErrResultNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Result not found"})
	case errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Email already in use"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid credentials"})
	case errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "User not found"})
	case isUnauthorized(err):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
	case errors.Is(err, auth.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "Forbidden: Admins only"})
	default:
		log.Printf("request failed id=%s %s %s: %v", RequestIDFrom(r.Context()), r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server error"})
	}
}

func isUnauthorized(err error) bool {
	return errors.Is(err, auth.ErrUnauthorized) || errors.Is(err, quiz.ErrInvalidUser)
}

// decodeJSON reads one JSON object into dst. An empty body leaves dst at its
// zero value so field validation reports what is missing. Type mismatches
// become validation errors naming the field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := decoder.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return validation.New(fmt.Sprintf("%s must be %s", field, describeJSONType(typeErr.Type.String())))
	}
	return errors.Join(errInvalidJSON, err)
}

func describeJSONType(goType string) string {
	switch strings.TrimLeft(goType, "*[]") {
	case "int":
		return "an integer or null"
	case "string":
		return "a string"
	default:
		return "a valid " + strings.TrimLeft(goType, "*[]")
	}
}

func parseIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, validation.New(key + " must be a positive integer")
	}
	return parsed, nil
}

func writeMethodNotAllowed(w http.ResponseWriter, allowedMethods ...string) {
	w.Header().Set("Allow", strings.Join(allowedMethods, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
