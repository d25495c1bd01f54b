package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
	"shiftboard/internal/middleware"
)

// 로그인 진행 중에만 쓰는 세션 키
const (
	sessOtpSetupEmail  = "otp_setup_email"
	sessOtpSetupSecret = "otp_setup_secret"
	sessOtpVerifyEmail = "otp_verify_email"
	sessLoggedInEmail  = "logged_in_email"
)

// AuthHandler
type AuthHandler struct {
	service *Service
	store   *session.Store
}

// NewAuthHandler
func NewAuthHandler(service *Service, store *session.Store) *AuthHandler {
	return &AuthHandler{
		service: service,
		store:   store,
	}
}

func (h *AuthHandler) session(c *fiber.Ctx) (*session.Session, error) {
	sess, err := h.store.Get(c)
	if err != nil {
		log.Errorf("세션 가져오기 실패 (%s): %v", c.Path(), err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "세션 오류"})
	}
	return sess, nil
}

// login은 로그인 세션을 저장합니다. ViewerMiddleware가 이 값으로 조회자를 복원합니다.
func (h *AuthHandler) login(c *fiber.Ctx, sess *session.Session, user *User) error {
	sess.Set(sessLoggedInEmail, user.Email)
	sess.Set(middleware.SessionUserID, user.ID)
	sess.Set(middleware.SessionUserName, user.UserName)
	sess.Set(middleware.SessionRole, string(user.Role()))
	if err := sess.Save(); err != nil {
		log.Errorf("최종 로그인 세션 저장 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "세션 저장 오류"})
	}
	h.service.RecordLogin(c.UserContext(), user.ID)
	return c.JSON(fiber.Map{
		"status": "logged_in",
		"user":   fiber.Map{"id": user.ID, "name": user.UserName, "role": user.Role()},
	})
}

// --- [가입] 플로우 ---

// HandleRegister는 'POST /auth/register' 요청을 처리합니다.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warnf("회원가입 요청 파싱 실패: %v", err)
		return middleware.RespondError(c, apperr.Invalid("입력 값이 올바르지 않습니다"))
	}
	log.Infof("신규 가입 요청: %s", req.Email)

	user, err := h.service.RegisterUser(c.UserContext(), req)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  StatusPendingVerification.String(),
		"message": "가입 신청이 완료되었습니다. 관리자 승인을 기다려주세요.",
		"email":   user.Email,
	})
}

// --- [로그인] 플로우 ---

// HandleLogin은 'POST /auth/login' 요청을 처리합니다. 다음 단계(OTP 등록/인증)를 알려줍니다.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return middleware.RespondError(c, apperr.Invalid("입력 값이 올바르지 않습니다"))
	}

	status, user, err := h.service.CheckLoginStatus(c.UserContext(), req.Email)
	if err != nil {
		return middleware.RespondError(c, err)
	}

	switch status {
	case StatusUserNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": status.String(), "error": "등록되지 않은 이메일입니다."})

	case StatusPendingVerification:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": status.String(),
			"error":  "계정이 아직 관리자 승인 대기 중입니다. 승인 후 다시 시도해 주세요.",
		})
	}

	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	key := sessOtpVerifyEmail
	if status == StatusRequiresOtpSetup {
		key = sessOtpSetupEmail
	}
	sess.Set(key, user.Email)
	if err := sess.Save(); err != nil {
		log.Errorf("세션 저장 실패 (%s): %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "세션 저장 오류"})
	}
	log.Infof("세션 저장: '%s' = %s", key, user.Email)
	return c.JSON(fiber.Map{"status": status.String()})
}

// --- [OTP 최초 등록] 플로우 ---

// HandleShowSetupOTP는 'GET /auth/setup-otp' 요청을 처리합니다. 새 비밀 키의 QR 이미지를 내려줍니다.
func (h *AuthHandler) HandleShowSetupOTP(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	email, ok := sess.Get(sessOtpSetupEmail).(string)
	if !ok {
		log.Warn("'otp_setup_email' 세션 값이 없습니다.")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "로그인을 먼저 진행하세요."})
	}

	secret, qrImage, err := h.service.GenerateOTP(email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "OTP 생성 실패"})
	}
	sess.Set(sessOtpSetupSecret, secret)
	if err := sess.Save(); err != nil {
		log.Errorf("세션 저장 실패 (otp_setup_secret): %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "세션 저장 오류"})
	}
	return c.JSON(fiber.Map{"email": email, "qr_image": qrImage})
}

type otpRequest struct {
	OtpToken string `json:"otp_token"`
}

// HandleProcessSetupOTP는 'POST /auth/setup-otp' 요청을 처리합니다.
func (h *AuthHandler) HandleProcessSetupOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.RespondError(c, apperr.Invalid("입력 값이 올바르지 않습니다"))
	}
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	email, okEmail := sess.Get(sessOtpSetupEmail).(string)
	secret, okSecret := sess.Get(sessOtpSetupSecret).(string)
	if !okEmail || !okSecret {
		log.Warn("OTP 등록 세션 값이 없습니다. (email 또는 secret 누락)")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "로그인을 먼저 진행하세요."})
	}

	if !h.service.ValidateOTP(req.OtpToken, secret) {
		log.Warnf("OTP 코드 검증 실패: %s", email)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "인증 코드가 올바르지 않습니다. 다시 시도해 주세요."})
	}
	if err := h.service.FinalizeOTPSetup(c.UserContext(), email, secret); err != nil {
		return middleware.RespondError(c, err)
	}

	user, err := h.service.GetUserByEmail(c.UserContext(), email)
	if err != nil {
		return middleware.RespondError(c, err)
	}

	sess.Delete(sessOtpSetupEmail)
	sess.Delete(sessOtpSetupSecret)
	log.Infof("최초 OTP 등록 및 로그인 성공: %s", email)
	return h.login(c, sess, user)
}

// --- [일반 OTP 인증] 플로우 ---

// HandleProcessVerifyOTP는 'POST /auth/verify-otp' 요청을 처리합니다.
func (h *AuthHandler) HandleProcessVerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.RespondError(c, apperr.Invalid("입력 값이 올바르지 않습니다"))
	}
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	email, ok := sess.Get(sessOtpVerifyEmail).(string)
	if !ok {
		log.Warn("OTP 인증 세션 값이 없습니다. (email 누락)")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "로그인을 먼저 진행하세요."})
	}

	user, err := h.service.GetUserByEmail(c.UserContext(), email)
	if err != nil || user.OtpCode == nil {
		log.Errorf("OTP 인증 중 사용자/OTP코드를 찾을 수 없음: %s", email)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "로그인을 먼저 진행하세요."})
	}

	if !h.service.ValidateOTP(req.OtpToken, *user.OtpCode) {
		log.Warnf("일반 OTP 코드 검증 실패: %s", email)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "인증 코드가 올바르지 않습니다."})
	}

	sess.Delete(sessOtpVerifyEmail)
	log.Infof("일반 OTP 인증 및 로그인 성공: %s", email)
	return h.login(c, sess, user)
}

// --- [로그아웃] / [조회자 정보] ---

// HandleLogout은 'GET /auth/logout' 요청을 처리합니다.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		log.Errorf("로그아웃: 세션 파기 실패: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "로그아웃 처리 중 오류 발생"})
	}
	log.Info("사용자 로그아웃 성공")
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// HandleMe는 'GET /auth/me' 요청을 처리합니다. 익명 조회자도 역할과 함께 응답합니다.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	viewer := middleware.CurrentViewer(c)
	return c.JSON(fiber.Map{
		"id":             viewer.ID,
		"name":           viewer.Name,
		"role":           viewer.Role,
		"effective_role": viewer.EffectiveRole(),
		"anonymous":      viewer.IsAnonymous(),
	})
}

// --- [관리자 기능] ---

// HandleAdminUsers는 'GET /api/admin/users' 요청을 처리합니다.
func (h *AuthHandler) HandleAdminUsers(c *fiber.Ctx) error {
	data, err := h.service.GetAdminPageData(c.UserContext(), middleware.CurrentViewer(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(data)
}

// HandleApproveUser는 'POST /api/admin/users/:id/approve' 요청을 처리합니다.
func (h *AuthHandler) HandleApproveUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return middleware.RespondError(c, apperr.Invalid("유효하지 않은 사용자 ID입니다"))
	}
	if err := h.service.ApproveUser(c.UserContext(), middleware.CurrentViewer(c), uint64(userID)); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"result": "ok"})
}

// HandleChangePrivilege는 'POST /api/admin/users/privilege' 요청을 처리합니다.
func (h *AuthHandler) HandleChangePrivilege(c *fiber.Ctx) error {
	var req struct {
		UserID  uint64 `json:"user_id"`
		NewRole string `json:"new_role"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return middleware.RespondError(c, apperr.Invalid("권한 변경 입력이 잘못되었습니다"))
	}
	if err := h.service.ChangeUserPrivilege(c.UserContext(), middleware.CurrentViewer(c), req.UserID, req.NewRole); err != nil {
		return middleware.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"result": "ok", "role": req.NewRole})
}
