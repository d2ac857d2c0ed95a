package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"product-catalog/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProperty_ProblemsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	standardCodes := []int{
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusConflict,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
	}

	properties.Property("all problem responses share one structure", prop.ForAll(
		func(idx int, detail string) bool {
			statusCode := standardCodes[idx]

			w := httptest.NewRecorder()
			RespondWithProblem(w, statusCode, detail)

			if w.Code != statusCode {
				return false
			}
			if w.Header().Get("Content-Type") != "application/problem+json" {
				return false
			}

			var response Problem
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			if response.Title != StatusTitle(statusCode) || response.Detail != detail {
				return false
			}
			if response.Errors != nil {
				return false
			}
			_, err := time.Parse(time.RFC3339, response.Timestamp)
			return err == nil
		},
		gen.IntRange(0, len(standardCodes)-1),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestStatusTitle(t *testing.T) {
	cases := map[int]string{
		http.StatusBadRequest:          "BAD_REQUEST",
		http.StatusNotFound:            "NOT_FOUND",
		http.StatusConflict:            "CONFLICT",
		http.StatusInternalServerError: "INTERNAL_SERVER_ERROR",
		http.StatusTooManyRequests:     "TOO_MANY_REQUESTS",
		http.StatusMethodNotAllowed:    "METHOD_NOT_ALLOWED",
	}
	for code, want := range cases {
		if got := StatusTitle(code); got != want {
			t.Errorf("StatusTitle(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []string{"name: Name is required", "price: Price is required"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}

	var response Problem
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Detail != "Invalid argument" || len(response.Errors) != 2 {
		t.Errorf("unexpected problem %+v", response)
	}
}

func TestRespondWithError_MapsDomainKinds(t *testing.T) {
	notFound := &domain.Error{Kind: domain.ErrNotFound, Message: "Product not found"}
	conflict := &domain.Error{Kind: domain.ErrConflict, Message: "Product with this name already exists"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantErrors []string
	}{
		{"not found", notFound, http.StatusNotFound, "Product not found", nil},
		{"wrapped not found", fmt.Errorf("get: %w", notFound), http.StatusNotFound, "Product not found", nil},
		{"conflict", conflict, http.StatusConflict, "Product with this name already exists", nil},
		{"validation", domain.NewValidationError("price: Price must be a positive value"), http.StatusBadRequest, "Invalid argument", []string{"price: Price must be a positive value"}},
		{"internal", errors.New("pq: connection reset by peer"), http.StatusInternalServerError, "Internal server error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/products/1", nil)
			w := httptest.NewRecorder()

			RespondWithError(w, r, zap.NewNop(), tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d", w.Code, tt.wantStatus)
			}

			var response Problem
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if response.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", response.Detail, tt.wantDetail)
			}
			if fmt.Sprint(response.Errors) != fmt.Sprint(tt.wantErrors) {
				t.Errorf("errors = %v, want %v", response.Errors, tt.wantErrors)
			}
		})
	}
}

func TestRespondWithError_LogsInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	r := httptest.NewRequest(http.MethodDelete, "/products/7", nil)
	RespondWithError(httptest.NewRecorder(), r, logger, errors.New("disk full"))

	entries := logs.FilterMessage("Unhandled error").All()
	if len(entries) != 1 {
		t.Fatalf("expected one error log, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["error"] != "disk full" || ctx["path"] != "/products/7" || ctx["method"] != http.MethodDelete {
		t.Errorf("missing context in log entry: %v", ctx)
	}
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map write")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}

	var response Problem
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Detail != "Internal server error" {
		t.Errorf("panic value leaked into response: %q", response.Detail)
	}
}

func TestProperty_JSONResponsesAreValid(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("JSON responses are valid and parseable", prop.ForAll(
		func(data map[string]string) bool {
			w := httptest.NewRecorder()
			RespondWithJSON(w, http.StatusOK, data)

			if w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var result map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				return false
			}

			for k, v := range data {
				if result[k] != v {
					return false
				}
			}
			return true
		},
		gen.MapOf(gen.AlphaString(), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
