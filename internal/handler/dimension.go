package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/dimension"
	"virtual-office-backend/internal/middleware"
	"virtual-office-backend/internal/office"
)

// DimensionHandler 차원 트리 핸들러
type DimensionHandler struct {
	office *office.Office
}

// NewDimensionHandler DimensionHandler 생성
func NewDimensionHandler(o *office.Office) *DimensionHandler {
	return &DimensionHandler{office: o}
}

// CreateDimensionRequest 분기 요청
type CreateDimensionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MergeDimensionRequest 병합 요청
type MergeDimensionRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// dimensionError 도메인 에러를 HTTP 상태로 변환
func dimensionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, dimension.ErrNotFound), errors.Is(err, dimension.ErrParentNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, dimension.ErrSameDimension), errors.Is(err, dimension.ErrEmptyName):
		status = fiber.StatusBadRequest
	case errors.Is(err, dimension.ErrDuplicateID), errors.Is(err, dimension.ErrCycle), errors.Is(err, dimension.ErrAncestryTooDeep):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// List 전체 차원 목록 + 활성 ID
func (h *DimensionHandler) List(c *fiber.Ctx) error {
	dims := h.office.Dimensions()
	return c.JSON(fiber.Map{
		"dimensions": dims.List(),
		"activeId":   dims.ActiveID(),
	})
}

// Active 활성 차원
func (h *DimensionHandler) Active(c *fiber.Ctx) error {
	return c.JSON(h.office.Dimensions().Active())
}

// Create 활성 차원에서 분기 (현재 라이브 집합 + 가상 시간)
func (h *DimensionHandler) Create(c *fiber.Ctx) error {
	var req CreateDimensionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	dim, err := h.office.Fork(strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		return dimensionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dim)
}

// Merge 두 차원 병합 (target 우선)
func (h *DimensionHandler) Merge(c *fiber.Ctx) error {
	var req MergeDimensionRequest
	if err := c.BodyParser(&req); err != nil || req.SourceID == "" || req.TargetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sourceId and targetId are required",
		})
	}

	dim, err := h.office.Merge(req.SourceID, req.TargetID)
	if err != nil {
		return dimensionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dim)
}

// Get 차원 조회 (RequireDimension 이후)
func (h *DimensionHandler) Get(c *fiber.Ctx) error {
	dim, _ := middleware.GetDimension(c)
	return c.JSON(dim)
}

// Update 표시용 메타데이터 수정
func (h *DimensionHandler) Update(c *fiber.Ctx) error {
	var req dimension.Update
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	dim, err := h.office.Dimensions().Update(c.Params("id"), req)
	if err != nil {
		return dimensionError(c, err)
	}
	return c.JSON(dim)
}

// Switch 활성 차원 변경
func (h *DimensionHandler) Switch(c *fiber.Ctx) error {
	if !h.office.Switch(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "dimension not found",
		})
	}
	return c.JSON(h.office.Dimensions().Active())
}

// History 루트부터의 조상 경로
func (h *DimensionHandler) History(c *fiber.Ctx) error {
	history, err := h.office.Dimensions().History(c.Params("id"))
	if err != nil {
		return dimensionError(c, err)
	}
	return c.JSON(fiber.Map{
		"history": history,
	})
}

// Children 직계 자식 차원
func (h *DimensionHandler) Children(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"children": h.office.Dimensions().Children(c.Params("id")),
	})
}

// Snapshot 차원이 보관한 사용자 스냅샷
func (h *DimensionHandler) Snapshot(c *fiber.Ctx) error {
	users, ok := h.office.Dimensions().Snapshot(c.Params("id"))
	return c.JSON(fiber.Map{
		"users":    users,
		"hasOwned": ok,
	})
}
