package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"product-catalog/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	problemContentType = "application/problem+json"

	detailInvalidArgument = "Invalid argument"
	detailInternal        = "Internal server error"
)

// Problem is the uniform error payload returned by the API
type Problem struct {
	Title     string   `json:"title"`
	Detail    string   `json:"detail"`
	Timestamp string   `json:"timestamp"`
	Errors    []string `json:"errors,omitempty"`
}

// StatusTitle turns a status code into its upper snake case name, e.g. 404 -> NOT_FOUND
func StatusTitle(statusCode int) string {
	text := http.StatusText(statusCode)
	if text == "" {
		text = "Unknown"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}

// RespondWithProblem sends a problem response without field errors
func RespondWithProblem(w http.ResponseWriter, statusCode int, detail string) {
	respondWithProblemDetails(w, statusCode, detail, nil)
}

func respondWithProblemDetails(w http.ResponseWriter, statusCode int, detail string, fieldErrors []string) {
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(statusCode)

	response := Problem{
		Title:     StatusTitle(statusCode),
		Detail:    detail,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Errors:    fieldErrors,
	}

	json.NewEncoder(w).Encode(response)
}

// RespondWithValidationErrors sends a 400 listing "field: message" strings
func RespondWithValidationErrors(w http.ResponseWriter, fieldErrors []string) {
	respondWithProblemDetails(w, http.StatusBadRequest, detailInvalidArgument, fieldErrors)
}

// RespondWithError maps an error returned by the service layer to a problem response.
// Unclassified errors are logged with request context and hidden behind a generic message.
func RespondWithError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		logger.Debug("Request rejected by validation", fields...)
		RespondWithValidationErrors(w, validationErr.Fields)
		return
	}

	statusCode, ok := statusFor(err)
	if !ok {
		logger.Error("Unhandled error", fields...)
		RespondWithProblem(w, http.StatusInternalServerError, detailInternal)
		return
	}

	logger.Debug("Request failed", append(fields, zap.Int("status", statusCode))...)
	RespondWithProblem(w, statusCode, clientMessage(err))
}

func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, true
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, true
	}
	return 0, false
}

// clientMessage prefers the message of a domain.Error over wrapping context
func clientMessage(err error) string {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("request_id", middleware.GetReqID(r.Context())),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Stack("stack"),
					)

					RespondWithProblem(w, http.StatusInternalServerError, detailInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// NotFoundHandler answers unknown routes with a problem payload
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	RespondWithProblem(w, http.StatusNotFound, "No handler found for "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowedHandler answers unsupported methods with a problem payload
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	RespondWithProblem(w, http.StatusMethodNotAllowed, "Method "+r.Method+" is not supported")
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
