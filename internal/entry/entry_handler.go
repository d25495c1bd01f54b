package entry

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
	"shiftboard/internal/middleware"
)

// EntryHandler는 슬롯 항목 관련 핸들러입니다.
type EntryHandler struct {
	service *Service
}

// NewEntryHandler는 새 핸들러를 생성합니다.
func NewEntryHandler(service *Service) *EntryHandler {
	return &EntryHandler{service: service}
}

func paramID(c *fiber.Ctx) (uint64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("유효하지 않은 ID입니다: %q", c.Params("id"))
	}
	return uint64(id), nil
}

// HandleCalendar는 'GET /api/instances/:id/calendar?month=YYYY-MM' 요청을 처리합니다.
func (h *EntryHandler) HandleCalendar(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	board, err := h.service.CalendarBoard(c.UserContext(), id, c.Query("month"), middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(board)
}

// HandleSchedule은 'GET /api/instances/:id/schedule' 요청을 처리합니다.
func (h *EntryHandler) HandleSchedule(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	board, err := h.service.ScheduleBoard(c.UserContext(), id, middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(board)
}

// HandleExportICS는 'GET /api/instances/:id/calendar.ics' 요청을 처리합니다.
func (h *EntryHandler) HandleExportICS(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	viewer := middleware.CurrentViewer(c)
	filename, body, err := h.service.ExportICS(c.UserContext(), id, viewer)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	log.Debugf("ICS 내보내기 (Instance: %d, Viewer: %s)", id, viewer.ID)
	return c.SendString(body)
}

// HandleAddOccupant는 'POST /api/instances/:id/entries' 요청을 처리합니다.
func (h *EntryHandler) HandleAddOccupant(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}

	// 1. 요청 파싱
	var req AddRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warnf("참가자 추가 요청 파싱 실패: %v", err)
		return middleware.RespondError(c, apperr.Invalid("요청 본문이 잘못되었습니다"))
	}

	// 2. 서비스 호출
	e, err := h.service.AddOccupant(c.UserContext(), id, req, middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": e, "date": e.DateString()})
}

// HandleRemoveOccupant는 'DELETE /api/entries/:id' 요청을 처리합니다.
func (h *EntryHandler) HandleRemoveOccupant(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := h.service.RemoveOccupant(c.UserContext(), id, middleware.CurrentViewer(c)); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"result": "ok"})
}

// HandleToggleSuggest는 'POST /api/instances/:id/suggest' 요청을 처리합니다.
func (h *EntryHandler) HandleToggleSuggest(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	var req SlotRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.RespondError(c, apperr.Invalid("요청 본문이 잘못되었습니다"))
	}
	suggested, err := h.service.ToggleSuggest(c.UserContext(), id, req, middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"suggested": suggested})
}
