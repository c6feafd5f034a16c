package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/auth"
	"virtual-office-backend/internal/model"
	"virtual-office-backend/internal/office"
)

// OfficeHandler 오피스 뷰/라이브 사용자 핸들러
type OfficeHandler struct {
	office *office.Office
}

// NewOfficeHandler OfficeHandler 생성
func NewOfficeHandler(o *office.Office) *OfficeHandler {
	return &OfficeHandler{office: o}
}

// ConnectRequest 입장 요청
type ConnectRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Role           string          `json:"role"`
	Status         string          `json:"status"`
	IsMicrophoneOn bool            `json:"isMicrophoneOn"`
	IsVideoOn      *bool           `json:"isVideoOn,omitempty"`
	PhotoURL       *string         `json:"photoUrl,omitempty"`
	Color          *string         `json:"color,omitempty"`
	Position       *model.Position `json:"position,omitempty"`
}

// StatusRequest 상태 변경 요청
type StatusRequest struct {
	Status string `json:"status"`
}

// StepRequest 키보드 이동 요청
type StepRequest struct {
	Direction model.Direction `json:"direction"`
}

// officeError 도메인 에러를 HTTP 상태로 변환
func officeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, office.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, office.ErrInvalidUser), errors.Is(err, office.ErrInvalidStatus), errors.Is(err, office.ErrInvalidDirection):
		status = fiber.StatusBadRequest
	case errors.Is(err, office.ErrPaused):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// GetView 현재 가상 시간 기준 렌더링 상태 (?events=true 면 이벤트 로그 포함)
func (h *OfficeHandler) GetView(c *fiber.Ctx) error {
	return c.JSON(h.office.View(c.QueryBool("events", false)))
}

// ListUsers 라이브 사용자 목록
func (h *OfficeHandler) ListUsers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"users": h.office.LiveUsers(),
	})
}

// Connect 라이브 집합에 입장. ID 가 없으면 인증된 사용자 ID 를 사용한다.
func (h *OfficeHandler) Connect(c *fiber.Ctx) error {
	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = auth.UserID(c)
	}
	name := req.Name
	if name == "" {
		if n, ok := c.Locals("name").(string); ok {
			name = n
		}
	}

	user := model.User{
		ID:             id,
		Name:           name,
		Role:           req.Role,
		Status:         req.Status,
		IsMicrophoneOn: req.IsMicrophoneOn,
		IsVideoOn:      req.IsVideoOn,
		PhotoURL:       req.PhotoURL,
		Color:          req.Color,
	}
	if req.Position != nil {
		user.Position = *req.Position
	}

	connected, err := h.office.Connect(c.UserContext(), user)
	if err != nil {
		return officeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(connected)
}

// Disconnect 라이브 집합에서 퇴장
func (h *OfficeHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.office.Disconnect(c.UserContext(), c.Params("id")); err != nil {
		return officeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Move 위치 변경
func (h *OfficeHandler) Move(c *fiber.Ctx) error {
	var pos model.Position
	if err := c.BodyParser(&pos); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid position",
		})
	}

	user, err := h.office.Move(c.UserContext(), c.Params("id"), pos)
	if err != nil {
		return officeError(c, err)
	}
	return c.JSON(user)
}

// SetStatus 상태 메시지 변경
func (h *OfficeHandler) SetStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	user, err := h.office.SetStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return officeError(c, err)
	}
	return c.JSON(user)
}

// Step 키보드 방향 이동
func (h *OfficeHandler) Step(c *fiber.Ctx) error {
	var req StepRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	user, err := h.office.Step(c.UserContext(), c.Params("id"), model.Direction(strings.ToLower(string(req.Direction))))
	if err != nil {
		return officeError(c, err)
	}
	return c.JSON(user)
}
