package middleware

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AdminOnlyMiddleware는 'ViewerMiddleware' *다음에* 실행되어야 하며,
// 조회자의 역할이 admin인지 확인합니다.
func AdminOnlyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer := CurrentViewer(c)
		if !viewer.IsAdmin() {
			log.Warnf("[Admin] 권한 없는 접근 (Viewer: %s, Role: %s, Path: %s)", viewer.ID, viewer.Role, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "관리자만 접근할 수 있습니다."})
		}
		log.Debugf("[Admin] 관리자 접근 허용 (Path: %s)", c.Path())
		return c.Next()
	}
}
