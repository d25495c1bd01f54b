package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
)

// StatusOf는 서비스 에러를 HTTP 상태 코드로 변환합니다.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrPermissionDenied):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateName):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrArchivedLocked):
		return fiber.StatusLocked
	case errors.Is(err, apperr.ErrStoreFailure):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// RespondError는 에러를 {"error": ...} JSON 응답으로 보냅니다.
// 저장소 실패는 원인을 로그에만 남기고, 화면을 새로고침하라는 안내를 돌려줍니다.
func RespondError(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	msg := err.Error()

	switch {
	case status >= fiber.StatusInternalServerError:
		log.Errorf("요청 처리 실패 (%s %s): %v", c.Method(), c.Path(), err)
		msg = apperr.ErrStoreFailure.Error() + " 새로고침 후 다시 시도해 주세요."
	default:
		log.Warnf("요청 거부 (%s %s): %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
