package middleware

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AuthMiddleware는 'ViewerMiddleware' *다음에* 실행되어야 하며,
// 로그인한 조회자(익명이 아닌)만 통과시킵니다.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer := CurrentViewer(c)
		if viewer.IsAnonymous() {
			log.Warnf("미들웨어: 로그인되지 않은 접근 (%s)", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "로그인이 필요합니다."})
		}
		return c.Next()
	}
}
