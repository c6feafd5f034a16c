package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/model"
	"virtual-office-backend/internal/office"
	"virtual-office-backend/internal/timeline"
)

// TimelineHandler 가상 시계/이벤트 로그 핸들러
type TimelineHandler struct {
	office *office.Office
}

// NewTimelineHandler TimelineHandler 생성
func NewTimelineHandler(o *office.Office) *TimelineHandler {
	return &TimelineHandler{office: o}
}

// SetSpeedRequest 재생 속도 변경 요청
type SetSpeedRequest struct {
	Speed *float64 `json:"speed"`
}

// SetTimeRequest 가상 시간 설정 요청
type SetTimeRequest struct {
	Time time.Time `json:"time"`
}

// ProjectRequest 임의 기준 집합 투영 요청
type ProjectRequest struct {
	At          time.Time    `json:"at"`
	Users       []model.User `json:"users"`
	DimensionID string       `json:"dimensionId,omitempty"`
}

// GetState 시계 상태 조회
func (h *TimelineHandler) GetState(c *fiber.Ctx) error {
	return c.JSON(h.office.Engine().State())
}

// SetSpeed 재생 속도 변경 (음수 허용, NaN/Inf 거부)
func (h *TimelineHandler) SetSpeed(c *fiber.Ctx) error {
	var req SetSpeedRequest
	if err := c.BodyParser(&req); err != nil || req.Speed == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "speed is required",
		})
	}

	if err := h.office.Engine().SetSpeed(*req.Speed); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(h.office.Engine().State())
}

// TogglePause 일시정지 토글
func (h *TimelineHandler) TogglePause(c *fiber.Ctx) error {
	h.office.Engine().TogglePause()
	return c.JSON(h.office.Engine().State())
}

// ToggleRecording 녹화 토글
func (h *TimelineHandler) ToggleRecording(c *fiber.Ctx) error {
	h.office.Engine().ToggleRecording()
	return c.JSON(h.office.Engine().State())
}

// SetTime 가상 시간 이동 (일시정지 상태 유지)
func (h *TimelineHandler) SetTime(c *fiber.Ctx) error {
	var req SetTimeRequest
	if err := c.BodyParser(&req); err != nil || req.Time.IsZero() {
		return badTimeRequest(c)
	}
	h.office.Engine().SetCurrentTime(req.Time)
	return c.JSON(h.office.Engine().State())
}

// Jump 가상 시간 이동 + 일시정지
func (h *TimelineHandler) Jump(c *fiber.Ctx) error {
	var req SetTimeRequest
	if err := c.BodyParser(&req); err != nil || req.Time.IsZero() {
		return badTimeRequest(c)
	}
	h.office.Engine().JumpToTime(req.Time)
	return c.JSON(h.office.Engine().State())
}

func badTimeRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "time is required (RFC3339)",
	})
}

// ListEvents 이벤트 로그 (삽입 순서)
func (h *TimelineHandler) ListEvents(c *fiber.Ctx) error {
	events := h.office.Engine().Events()
	return c.JSON(fiber.Map{
		"events": events,
		"total":  len(events),
	})
}

// AddEvent 이벤트 직접 추가 (녹화 여부와 무관)
func (h *TimelineHandler) AddEvent(c *fiber.Ctx) error {
	var tp timeline.TimePoint
	if err := c.BodyParser(&tp); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid event",
		})
	}
	if tp.UserID == "" || tp.Timestamp.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "timestamp and userId are required",
		})
	}

	h.office.Engine().AddEvent(tp)
	return c.Status(fiber.StatusCreated).JSON(tp)
}

// Project 임의 시점/기준 집합으로 투영 (상태 변경 없음)
func (h *TimelineHandler) Project(c *fiber.Ctx) error {
	var req ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	at := req.At
	if at.IsZero() {
		at = h.office.Engine().CurrentTime()
	}

	opts := timeline.ProjectOptions{}
	if req.DimensionID != "" {
		opts = timeline.ForDimension(req.DimensionID)
	}

	users := h.office.Engine().ProjectWith(at, req.Users, opts)
	return c.JSON(fiber.Map{
		"at":    at,
		"users": users,
	})
}
