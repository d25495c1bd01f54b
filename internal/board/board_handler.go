package board

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"shiftboard/internal/middleware"
)

// 클라이언트 설정 쿠키 (UI 상태 복원용)
const (
	CookieLastInstance = "last_instance_id"
	CookieLastView     = "last_view_mode"
	preferenceMaxAge   = 60 * 60 * 24 * 365
)

// BoardHandler는 첫 화면 핸들러입니다.
type BoardHandler struct {
	service *Service
}

// NewBoardHandler는 새 핸들러를 생성합니다.
func NewBoardHandler(service *Service) *BoardHandler {
	return &BoardHandler{service: service}
}

// HandleShowBoard는 'GET /api/board' 요청을 처리합니다.
// 선택 값은 쿼리(instance, view, month) > 쿠키 > 기본값 순으로 정해집니다.
func (h *BoardHandler) HandleShowBoard(c *fiber.Ctx) error {
	// 1. 선택 값 복원
	req := Request{
		View:  c.Query("view", c.Cookies(CookieLastView)),
		Month: c.Query("month"),
	}
	rawID := c.Query("instance", c.Cookies(CookieLastInstance))
	if id, err := strconv.ParseUint(rawID, 10, 64); err == nil {
		req.InstanceID = id
	}

	// 2. 서비스 호출
	data, err := h.service.Load(c.UserContext(), req, middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}

	// 3. 선택 값 저장
	if data.InstanceID != 0 {
		setPreference(c, CookieLastInstance, strconv.FormatUint(data.InstanceID, 10))
		setPreference(c, CookieLastView, string(data.View))
	}
	return c.JSON(data)
}

func setPreference(c *fiber.Ctx, name, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   preferenceMaxAge,
		Expires:  time.Now().Add(preferenceMaxAge * time.Second),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
