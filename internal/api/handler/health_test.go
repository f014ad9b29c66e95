package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler(nil).Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name       string
		checks     map[string]Check
		wantCode   int
		wantStatus map[string]string
	}{
		{
			name:       "all healthy",
			checks:     map[string]Check{"mongodb": ok, "redis": ok},
			wantCode:   http.StatusOK,
			wantStatus: map[string]string{"mongodb": "ok", "redis": "ok"},
		},
		{
			name:       "redis disabled",
			checks:     map[string]Check{"mongodb": ok, "redis": nil},
			wantCode:   http.StatusOK,
			wantStatus: map[string]string{"mongodb": "ok", "redis": "disabled"},
		},
		{
			name:       "mongo down",
			checks:     map[string]Check{"mongodb": down, "redis": ok},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: map[string]string{"mongodb": "unhealthy", "redis": "ok"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			if err := NewHealthHandler(tc.checks).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			for dep, want := range tc.wantStatus {
				if got := resp.Dependencies[dep].Status; got != want {
					t.Errorf("%s: expected %q, got %q", dep, want, got)
				}
			}
		})
	}
}
