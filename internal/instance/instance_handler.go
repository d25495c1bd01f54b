package instance

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
	"shiftboard/internal/middleware"
)

// InstanceHandler는 인스턴스 관리 핸들러입니다.
type InstanceHandler struct {
	service *Service
}

// NewInstanceHandler는 새 핸들러를 생성합니다.
func NewInstanceHandler(service *Service) *InstanceHandler {
	return &InstanceHandler{service: service}
}

// ParseID는 ':id' 경로 파라미터를 읽습니다.
func ParseID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("잘못된 ID 입니다: %q", c.Params("id"))
	}
	return id, nil
}

// HandleList는 'GET /api/instances' 요청을 처리합니다.
func (h *InstanceHandler) HandleList(c *fiber.Ctx) error {
	list, err := h.service.List(c.UserContext())
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"instances": list})
}

// HandleGet은 'GET /api/instances/:id' 요청을 처리합니다.
func (h *InstanceHandler) HandleGet(c *fiber.Ctx) error {
	id, err := ParseID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	inst, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	cfg, err := inst.Schedule()
	if err != nil {
		// 저장된 설정이 깨져 있어도 인스턴스 자체는 보여줍니다.
		log.Warnf("인스턴스 %d 스케줄 설정 파싱 실패: %v", inst.ID, err)
	}
	return c.JSON(fiber.Map{"instance": inst, "schedule": cfg})
}

// HandleCreate는 'POST /api/admin/instances' 요청을 처리합니다.
func (h *InstanceHandler) HandleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warnf("인스턴스 생성 요청 파싱 실패: %v", err)
		return middleware.RespondError(c, apperr.Invalid("요청 본문이 잘못되었습니다"))
	}
	inst, err := h.service.Create(c.UserContext(), req, middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"instance": inst})
}

// HandleRename은 'PATCH /api/admin/instances/:id' 요청을 처리합니다.
func (h *InstanceHandler) HandleRename(c *fiber.Ctx) error {
	id, err := ParseID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return middleware.RespondError(c, apperr.Invalid("요청 본문이 잘못되었습니다"))
	}
	if err := h.service.Rename(c.UserContext(), id, req.Name, middleware.CurrentViewer(c)); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"result": "ok"})
}

// HandleConfigure는 'PUT /api/admin/instances/:id/config' 요청을 처리합니다.
func (h *InstanceHandler) HandleConfigure(c *fiber.Ctx) error {
	id, err := ParseID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	var req ConfigureRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.RespondError(c, apperr.Invalid("요청 본문이 잘못되었습니다"))
	}
	inst, err := h.service.Configure(c.UserContext(), id, req, middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"instance": inst})
}

// HandleDelete는 'DELETE /api/admin/instances/:id' 요청을 처리합니다.
func (h *InstanceHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := ParseID(c)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), id, middleware.CurrentViewer(c)); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"result": "ok"})
}
