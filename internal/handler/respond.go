package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/wardenlink/internal/security/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError responds with {message}. Unexpected errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusFor(err)
	msg := domain.ErrorText(err)
	if status == http.StatusInternalServerError || msg == "" {
		if status == http.StatusInternalServerError {
			log.Error("request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", logger.RequestID(r.Context())),
				slog.String("error", err.Error()),
			)
		}
		msg = http.StatusText(status)
	}
	middleware.WriteError(w, status, msg)
}

// decodeJSON reads a single JSON object into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Invalid("request body too large")
		}
		return domain.Invalid("invalid request body: " + err.Error())
	}
	return nil
}

// caller returns the user the guard stored on the request.
func caller(r *http.Request) *domain.User {
	u, _ := middleware.UserFromContext(r.Context())
	return u
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

// envelope names the top-level key of a response body.
type envelope map[string]any

type messageResponse struct {
	Message string `json:"message"`
}
