package handler

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/auth"
	"virtual-office-backend/internal/model"
	"virtual-office-backend/internal/service"
)

// EmployeeStore 사원 디렉터리 저장소 (service.DirectoryService)
type EmployeeStore interface {
	List(ctx context.Context) ([]model.Employee, error)
	Upsert(ctx context.Context, in service.EmployeeInput) (model.Employee, error)
}

// EmployeeHandler 사원 디렉터리 핸들러
type EmployeeHandler struct {
	store EmployeeStore
}

// NewEmployeeHandler EmployeeHandler 생성
func NewEmployeeHandler(store EmployeeStore) *EmployeeHandler {
	return &EmployeeHandler{store: store}
}

// EmployeeRequest 등록/수정 요청
type EmployeeRequest struct {
	Name         string      `json:"name"`
	Department   string      `json:"department"`
	Role         string      `json:"role"`
	Position     *[3]float64 `json:"position,omitempty"`
	PhotoURL     string      `json:"photoUrl"`
	Introduction string      `json:"introduction"`
	CreatedBy    string      `json:"createdBy"`
	Status       string      `json:"status"`
}

// EmployeeResponse 디렉터리 항목 응답
type EmployeeResponse struct {
	model.Employee
	Position [3]float64 `json:"position"`
}

func toEmployeeResponse(e model.Employee) EmployeeResponse {
	return EmployeeResponse{Employee: e, Position: e.Coordinates()}
}

// List 전체 디렉터리
func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	employees, err := h.store.List(c.UserContext())
	if err != nil {
		log.Printf("[Directory] ❌ List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch employees",
		})
	}

	resp := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		resp = append(resp, toEmployeeResponse(e))
	}
	return c.JSON(fiber.Map{
		"employees": resp,
	})
}

// Upsert 인증된 사용자의 디렉터리 항목 등록/수정
func (h *EmployeeHandler) Upsert(c *fiber.Ctx) error {
	var req EmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = auth.UserID(c)
	}

	employee, err := h.store.Upsert(c.UserContext(), service.EmployeeInput{
		Name:         req.Name,
		Department:   req.Department,
		Role:         req.Role,
		Position:     req.Position,
		PhotoURL:     req.PhotoURL,
		Introduction: req.Introduction,
		CreatedBy:    createdBy,
		Status:       req.Status,
	})
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Name and department are required",
			})
		}
		log.Printf("[Directory] ❌ Upsert failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"employee": toEmployeeResponse(employee),
	})
}
