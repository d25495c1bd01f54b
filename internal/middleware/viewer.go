package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/policy"
)

// 익명 조회자 쿠키 설정
const (
	AnonymousCookie = "anonymous_id"
	AnonymousPrefix = "anon_"
	anonymousMaxAge = 60 * 60 * 24 * 365
	guestName       = "Guest"
)

// 세션 키 (auth 핸들러가 로그인 성공 시 저장합니다)
const (
	SessionUserID   = "user_id"
	SessionUserName = "user_name"
	SessionRole     = "privileges_type"
)

const viewerLocal = "viewer"

// NewAnonymousID는 익명 조회자의 고유 ID를 만듭니다.
func NewAnonymousID() string {
	return AnonymousPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ViewerMiddleware는 로그인 세션 또는 익명 쿠키로 조회자를 복원해 Locals에 저장합니다.
// 로그인하지 않은 요청도 막지 않고, 익명 ID를 발급해 통과시킵니다.
func ViewerMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v, ok := sessionViewer(store, c); ok {
			c.Locals(viewerLocal, v)
			return c.Next()
		}

		anonID := c.Cookies(AnonymousCookie)
		if !strings.HasPrefix(anonID, AnonymousPrefix) {
			anonID = NewAnonymousID()
			c.Cookie(&fiber.Cookie{
				Name:     AnonymousCookie,
				Value:    anonID,
				Path:     "/",
				MaxAge:   anonymousMaxAge,
				Expires:  time.Now().Add(anonymousMaxAge * time.Second),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
			log.Debugf("익명 조회자 ID 발급: %s", anonID)
		}

		c.Locals(viewerLocal, policy.Viewer{ID: anonID, Name: guestName, Role: policy.RoleAnonymous})
		return c.Next()
	}
}

func sessionViewer(store *session.Store, c *fiber.Ctx) (policy.Viewer, bool) {
	if store == nil {
		return policy.Viewer{}, false
	}
	sess, err := store.Get(c)
	if err != nil {
		log.Warnf("세션 가져오기 실패 (%s): %v", c.Path(), err)
		return policy.Viewer{}, false
	}

	userID, ok := sess.Get(SessionUserID).(uint64)
	if !ok {
		return policy.Viewer{}, false
	}
	name, _ := sess.Get(SessionUserName).(string)
	role, _ := sess.Get(SessionRole).(string)

	return policy.Viewer{
		ID:   strconv.FormatUint(userID, 10),
		Name: name,
		Role: policy.ParseRole(role),
	}, true
}

// CurrentViewer는 ViewerMiddleware가 저장한 조회자를 반환합니다.
// 미들웨어를 거치지 않았으면 ID가 없는 익명 조회자입니다.
func CurrentViewer(c *fiber.Ctx) policy.Viewer {
	if v, ok := c.Locals(viewerLocal).(policy.Viewer); ok {
		return v
	}
	return policy.Viewer{Name: guestName, Role: policy.RoleAnonymous}
}

// SetViewer는 Locals에 조회자를 직접 저장합니다 (테스트/내부 호출용).
func SetViewer(c *fiber.Ctx, v policy.Viewer) {
	c.Locals(viewerLocal, v)
}
