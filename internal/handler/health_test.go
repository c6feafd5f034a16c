package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newHealthApp(checks ...HealthCheck) *fiber.App {
	h := NewHealthHandler(checks...)
	app := fiber.New()
	app.Get("/health", h.Check)
	app.Get("/health/live", h.Liveness)
	app.Get("/health/ready", h.Readiness)
	return app
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name        string
		checks      []HealthCheck
		wantStatus  string
		wantCode    int
		wantReadyOK bool
	}{
		{"no checks", nil, "healthy", http.StatusOK, true},
		{"all healthy", []HealthCheck{{Name: "database", Critical: true, Ping: ok}, {Name: "redis", Ping: ok}}, "healthy", http.StatusOK, true},
		{"optional down", []HealthCheck{{Name: "database", Critical: true, Ping: ok}, {Name: "redis", Ping: fail}}, "degraded", http.StatusOK, true},
		{"critical down", []HealthCheck{{Name: "database", Critical: true, Ping: fail}, {Name: "redis", Ping: ok}}, "unhealthy", http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newHealthApp(tt.checks...)

			var out HealthResponse
			resp := request(t, app, http.MethodGet, "/health", nil, &out)
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status code = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if out.Status != tt.wantStatus {
				t.Fatalf("status = %q, want %q", out.Status, tt.wantStatus)
			}
			if len(out.Checks) != len(tt.checks) {
				t.Fatalf("checks = %d, want %d", len(out.Checks), len(tt.checks))
			}

			resp = request(t, app, http.MethodGet, "/health/ready", nil, nil)
			if got := resp.StatusCode == http.StatusOK; got != tt.wantReadyOK {
				t.Fatalf("ready = %v, want %v", got, tt.wantReadyOK)
			}

			resp = request(t, app, http.MethodGet, "/health/live", nil, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("live = %d, want 200", resp.StatusCode)
			}
		})
	}
}

func TestHealthHandler_Details(t *testing.T) {
	sessions := 0
	h := NewHealthHandler().WithDetail("websocketSessions", func() any { return sessions })
	app := fiber.New()
	app.Get("/health", h.Check)

	for _, want := range []int{0, 3} {
		sessions = want
		var out HealthResponse
		request(t, app, http.MethodGet, "/health", nil, &out)
		// JSON 숫자는 float64 로 디코딩된다
		if got, ok := out.Details["websocketSessions"].(float64); !ok || int(got) != want {
			t.Fatalf("websocketSessions = %v, want %d", out.Details["websocketSessions"], want)
		}
	}
}
