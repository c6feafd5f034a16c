package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/auth"
	"virtual-office-backend/internal/model"
	"virtual-office-backend/internal/office"
)

func newOfficeApp(t *testing.T, jwtManager *auth.JWTManager) (*fiber.App, *office.Office) {
	t.Helper()
	o := newTestOffice(t)
	h := NewOfficeHandler(o)

	app := fiber.New()
	group := app.Group("/api/office")
	if jwtManager != nil {
		group.Use(auth.OptionalAuthMiddleware(jwtManager))
	}
	group.Get("", h.GetView)
	group.Get("/users", h.ListUsers)
	group.Post("/users", h.Connect)
	group.Delete("/users/:id", h.Disconnect)
	group.Put("/users/:id/position", h.Move)
	group.Put("/users/:id/status", h.SetStatus)
	group.Post("/users/:id/step", h.Step)
	return app, o
}

func TestOfficeHandler_ConnectMoveStep(t *testing.T) {
	app, o := newOfficeApp(t, nil)
	o.Engine().ToggleRecording()

	var user model.User
	resp := request(t, app, http.MethodPost, "/api/office/users", ConnectRequest{ID: "u1", Name: "Alice"}, &user)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("connect: status = %d, want 201", resp.StatusCode)
	}
	if !user.IsActive || user.Status != model.UserStatusOnline.String() {
		t.Fatalf("user = %+v", user)
	}

	resp = request(t, app, http.MethodPut, "/api/office/users/u1/position", model.Position{X: 100, Y: 50}, &user)
	if resp.StatusCode != http.StatusOK || user.Position != (model.Position{X: 100, Y: 50}) {
		t.Fatalf("move: status = %d user = %+v", resp.StatusCode, user)
	}

	resp = request(t, app, http.MethodPost, "/api/office/users/u1/step", StepRequest{Direction: "UP"}, &user)
	if resp.StatusCode != http.StatusOK || user.Position != (model.Position{X: 100, Y: 30}) {
		t.Fatalf("step: status = %d user = %+v", resp.StatusCode, user)
	}

	resp = request(t, app, http.MethodPut, "/api/office/users/u1/status", StatusRequest{Status: "In a meeting"}, &user)
	if resp.StatusCode != http.StatusOK || user.Status != "In a meeting" {
		t.Fatalf("status: status = %d user = %+v", resp.StatusCode, user)
	}

	var view office.View
	request(t, app, http.MethodGet, "/api/office?events=true", nil, &view)
	if len(view.Users) != 1 || view.Users[0].Position != (model.Position{X: 100, Y: 30}) {
		t.Fatalf("view users = %+v", view.Users)
	}
	// join + move + step + status
	if len(view.Events) != 4 {
		t.Fatalf("view events = %d, want 4", len(view.Events))
	}
}

func TestOfficeHandler_Errors(t *testing.T) {
	app, o := newOfficeApp(t, nil)
	request(t, app, http.MethodPost, "/api/office/users", ConnectRequest{ID: "u1"}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"connect without id", http.MethodPost, "/api/office/users", ConnectRequest{Name: "anon"}, http.StatusBadRequest},
		{"move unknown user", http.MethodPut, "/api/office/users/ghost/position", model.Position{X: 1}, http.StatusNotFound},
		{"bad direction", http.MethodPost, "/api/office/users/u1/step", StepRequest{Direction: "north"}, http.StatusBadRequest},
		{"disconnect unknown", http.MethodDelete, "/api/office/users/ghost", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := request(t, app, tt.method, tt.path, tt.body, nil)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}

	o.Engine().TogglePause()
	resp := request(t, app, http.MethodPost, "/api/office/users/u1/step", StepRequest{Direction: "left"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("step while paused: status = %d, want 409", resp.StatusCode)
	}
}

func TestOfficeHandler_ConnectUsesToken(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	token, err := jwtManager.GenerateAccessToken("7", "demo@example.com", "Demo User")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	app, _ := newOfficeApp(t, jwtManager)

	var user model.User
	resp := request(t, app, http.MethodPost, "/api/office/users", ConnectRequest{}, &user, "Authorization", "Bearer "+token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if user.ID != "7" || user.Name != "Demo User" {
		t.Fatalf("user = %+v", user)
	}

	var users struct {
		Users []model.User `json:"users"`
	}
	request(t, app, http.MethodGet, "/api/office/users", nil, &users)
	if len(users.Users) != 1 {
		t.Fatalf("users = %+v", users.Users)
	}

	resp = request(t, app, http.MethodDelete, "/api/office/users/7", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("disconnect: status = %d, want 204", resp.StatusCode)
	}
}
