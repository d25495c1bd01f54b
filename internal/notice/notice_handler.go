package notice

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
	"shiftboard/internal/middleware"
)

// NoticeHandler는 공지 관련 핸들러입니다.
type NoticeHandler struct {
	service *Service
}

// NewNoticeHandler는 새 핸들러를 생성합니다.
func NewNoticeHandler(service *Service) *NoticeHandler {
	return &NoticeHandler{service: service}
}

// HandleList는 'GET /api/notices' 요청을 처리합니다.
func (h *NoticeHandler) HandleList(c *fiber.Ctx) error {
	notices, err := h.service.List(c.UserContext())
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"notices": notices})
}

// HandleCreate는 'POST /api/admin/notices' 요청을 처리합니다.
func (h *NoticeHandler) HandleCreate(c *fiber.Ctx) error {
	// 1. 요청 파싱
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warnf("공지 생성 요청 파싱 실패: %v", err)
		return middleware.RespondError(c, apperr.Invalid("공지 입력이 잘못되었습니다"))
	}

	// 2. 서비스 호출
	n, err := h.service.Create(c.UserContext(), req, middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"notice": View{Notice: *n, ColorName: n.Color.Name()}})
}

// HandleDelete는 'DELETE /api/admin/notices/:id' 요청을 처리합니다.
func (h *NoticeHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return middleware.RespondError(c, apperr.Invalid("유효하지 않은 ID입니다"))
	}
	if err := h.service.Delete(c.UserContext(), uint64(id), middleware.CurrentViewer(c)); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"result": "ok"})
}
