package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck 컴포넌트 상태 확인 함수
type HealthCheck struct {
	Name     string
	Critical bool // 실패 시 unhealthy (아니면 degraded)
	Ping     func(ctx context.Context) error
}

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	checks  []HealthCheck
	details map[string]func() any
	timeout time.Duration
}

// NewHealthHandler HealthHandler 생성
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		details: make(map[string]func() any),
		timeout: 2 * time.Second,
	}
}

// WithDetail 응답 details 에 실시간 지표 추가 (연결 수 등)
func (h *HealthHandler) WithDetail(name string, value func() any) *HealthHandler {
	h.details[name] = value
	return h
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Checks    map[string]ComponentCheck `json:"checks"`
	Details   map[string]any            `json:"details,omitempty"`
}

func (h *HealthHandler) run(ctx context.Context) HealthResponse {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentCheck, len(h.checks)),
	}
	if len(h.details) > 0 {
		response.Details = make(map[string]any, len(h.details))
		for name, value := range h.details {
			response.Details[name] = value()
		}
	}

	for _, check := range h.checks {
		start := time.Now()
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := check.Ping(cctx)
		cancel()

		if err == nil {
			response.Checks[check.Name] = ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(start).String(),
			}
			continue
		}

		status := "degraded"
		if check.Critical {
			status = "unhealthy"
			response.Status = "unhealthy"
		} else if response.Status == "healthy" {
			response.Status = "degraded"
		}
		response.Checks[check.Name] = ComponentCheck{
			Status: status,
			Error:  err.Error(),
		}
	}
	return response
}

// Check 전체 상태 확인
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := h.run(c.UserContext())

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}
	return c.Status(statusCode).JSON(response)
}

// Liveness K8s liveness probe용 (단순 체크)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness K8s readiness probe용 (필수 컴포넌트 체크)
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	if h.run(c.UserContext()).Status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
