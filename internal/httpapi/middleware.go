package httpapi

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-maker/internal/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	maxLogBytes     = 512
)

type requestIDKey struct{}

// RequestIDFrom returns the id assigned to the request by the router.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID keeps a caller supplied X-Request-ID or generates one, and
// echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// statusRecorder captures what a handler wrote so it can be logged. Only the
// first maxLogBytes of the body are kept.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	maxLogBytes  int
	logBody      bytes.Buffer
	truncated    bool
	wroteHeader  bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	written, err := r.ResponseWriter.Write(p)
	r.bytesWritten += written

	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		chunk := p[:written]
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
			r.truncated = true
		}
		r.logBody.Write(chunk)
	} else if written > 0 {
		r.truncated = true
	}
	return written, err
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLogBytes,
		}

		next.ServeHTTP(recorder, r)

		id := RequestIDFrom(r.Context())
		dur := time.Since(start)
		if recorder.statusCode < http.StatusBadRequest {
			log.Printf("[REQ] id=%s %s %s status=%d bytes=%d dur=%s",
				id, r.Method, r.URL.RequestURI(), recorder.statusCode, recorder.bytesWritten, dur)
			return
		}

		body := strings.TrimSpace(recorder.logBody.String())
		if recorder.truncated {
			body += "..."
		}
		log.Printf("[REQ] id=%s %s %s status=%d bytes=%d dur=%s body=%q",
			id, r.Method, r.URL.RequestURI(), recorder.statusCode, recorder.bytesWritten, dur, body)
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				log.Printf("panic id=%s %s %s: %v\n%s",
					RequestIDFrom(r.Context()), r.Method, r.URL.Path, recovered, debug.Stack())
				writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal Server Error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the bearer token into an identity on the request
// context. Handlers behind it never look at credentials themselves.
func (a *API) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Unauthorized: No token provided"})
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if !isUnauthorized(err) {
				log.Printf("authenticate id=%s: %v", RequestIDFrom(r.Context()), err)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server error"})
				return
			}
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Unauthorized: Invalid token"})
			return
		}

		next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	}
}

func (a *API) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.requireUser(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		if !identity.IsAdmin {
			writeServiceError(w, r, auth.ErrForbidden)
			return
		}
		next(w, r)
	})
}
