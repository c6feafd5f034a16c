package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"virtual-office-backend/internal/config"
	"virtual-office-backend/internal/handler"
	"virtual-office-backend/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:         ":0",
			ServerID:     "test",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			IdleTimeout:  time.Second,
		},
		WebSocket: config.WebSocketConfig{
			ReadBufferSize:    1024,
			WriteBufferSize:   1024,
			BroadcastInterval: time.Second,
		},
		CORS: config.CORSConfig{
			AllowOrigins: "*",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		},
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Timeline: config.TimelineConfig{
			TickInterval:      100 * time.Millisecond,
			DefaultSpeed:      1,
			DimensionMaxDepth: 64,
			SeedSamples:       true,
		},
	}
}

func TestServer_RoutesWithoutOptionalBackends(t *testing.T) {
	srv, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv.SetupMiddleware()
	srv.SetupRoutes()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/api/timeline", http.StatusOK},
		{http.MethodGet, "/api/dimensions", http.StatusOK},
		{http.MethodGet, "/api/dimensions/open-plan", http.StatusOK},
		{http.MethodGet, "/api/dimensions/nope", http.StatusNotFound},
		{http.MethodGet, "/api/office", http.StatusOK},
		{http.MethodGet, "/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/office/presence", http.StatusNotFound}, // Redis 비활성
		{http.MethodGet, "/api/employees", http.StatusNotFound},       // DB 비활성
		{http.MethodGet, "/ws/office", http.StatusUpgradeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := srv.App().Test(httptest.NewRequest(tt.method, tt.path, nil), -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestServer_SampleUsersFollowSeedFlag(t *testing.T) {
	tests := []struct {
		name string
		seed bool
		want int
	}{
		{"seeded", true, 6},
		{"empty", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Timeline.SeedSamples = tt.seed
			srv, err := New(cfg, nil)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			srv.SetupRoutes()

			resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/office/users", nil), -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			var out struct {
				Users []model.User `json:"users"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(out.Users) != tt.want {
				t.Fatalf("users = %d, want %d", len(out.Users), tt.want)
			}
		})
	}
}

func TestServer_HealthReportsSessions(t *testing.T) {
	srv, err := New(testConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv.SetupRoutes()

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var out handler.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, ok := out.Details["websocketSessions"].(float64); !ok || got != 0 {
		t.Fatalf("websocketSessions = %v, want 0", out.Details["websocketSessions"])
	}
	if _, ok := out.Checks["presence"]; ok {
		t.Fatal("presence check registered without Redis")
	}
}
