package middleware

import (
	"github.com/gofiber/fiber/v2"

	"virtual-office-backend/internal/dimension"
	"virtual-office-backend/internal/model"
)

// DimensionMiddleware 차원 경로 파라미터 검증 미들웨어
type DimensionMiddleware struct {
	dims *dimension.Manager
}

// NewDimensionMiddleware DimensionMiddleware 생성
func NewDimensionMiddleware(dims *dimension.Manager) *DimensionMiddleware {
	return &DimensionMiddleware{dims: dims}
}

// getDimensionIDFromContext URL에서 차원 ID 추출
func getDimensionIDFromContext(c *fiber.Ctx) string {
	// 우선순위: :dimensionId > :id
	if id := c.Params("dimensionId"); id != "" {
		return id
	}
	return c.Params("id")
}

// RequireDimension 존재하는 차원만 통과
func (m *DimensionMiddleware) RequireDimension() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := getDimensionIDFromContext(c)
		if id == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "dimension ID is required",
			})
		}

		dim, ok := m.dims.Get(id)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "dimension not found",
			})
		}

		// 조회한 차원을 컨텍스트에 저장
		c.Locals("dimension", dim)
		return c.Next()
	}
}

// GetDimension RequireDimension 이 저장한 차원 조회
func GetDimension(c *fiber.Ctx) (model.Dimension, bool) {
	dim, ok := c.Locals("dimension").(model.Dimension)
	return dim, ok
}
