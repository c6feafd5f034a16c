package handler

import (
	"context"
	"log"
	"sort"

	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/office"
	"virtual-office-backend/internal/presence"
)

// PresenceLister 차원별 Presence 조회 대상 (presence.Manager)
type PresenceLister interface {
	ListUsers(ctx context.Context, dimensionID string) ([]presence.Entry, error)
}

// PresenceHandler 서버 인스턴스 전체의 Presence 조회 핸들러
type PresenceHandler struct {
	office *office.Office
	lister PresenceLister
}

// NewPresenceHandler PresenceHandler 생성
func NewPresenceHandler(o *office.Office, lister PresenceLister) *PresenceHandler {
	return &PresenceHandler{office: o, lister: lister}
}

// List 차원에 기록된 Presence 목록 (?dimension= 없으면 활성 차원)
func (h *PresenceHandler) List(c *fiber.Ctx) error {
	dimensionID := c.Query("dimension", h.office.Dimensions().ActiveID())

	entries, err := h.lister.ListUsers(c.UserContext(), dimensionID)
	if err != nil {
		log.Printf("[Presence] ❌ 조회 실패: dimension=%s err=%v", dimensionID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "presence unavailable",
		})
	}

	// Redis 해시 순서는 보장되지 않는다
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].User.ID < entries[j].User.ID
	})
	return c.JSON(fiber.Map{
		"dimensionId": dimensionID,
		"entries":     entries,
	})
}
