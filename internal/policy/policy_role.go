package policy

import "strings"

// Role은 조회자의 권한 등급입니다.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleReviewer   Role = "reviewer"
	RoleSubscriber Role = "subscriber"
	RoleAnonymous  Role = "anonymous"
)

// ParseRole은 문자열을 Role로 변환합니다. 알 수 없는 값은 anonymous로 취급합니다.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleReviewer:
		return RoleReviewer
	case RoleSubscriber:
		return RoleSubscriber
	default:
		return RoleAnonymous
	}
}

// Assignable은 관리자가 사용자에게 부여할 수 있는 권한인지 확인합니다.
// anonymous는 로그인하지 않은 조회자에게만 쓰이므로 부여할 수 없습니다.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleReviewer || r == RoleSubscriber
}

// Viewer는 요청을 보낸 조회자입니다. 저장되지 않고 세션/쿠키에서 매 요청마다 복원됩니다.
type Viewer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsAdmin
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// IsAnonymous
func (v Viewer) IsAnonymous() bool {
	return v.Role == RoleAnonymous
}

// EffectiveRole은 권한 판정에 사용할 역할입니다.
// 익명 조회자는 subscriber와 동일하게 취급됩니다.
func (v Viewer) EffectiveRole() Role {
	if v.Role == RoleAnonymous {
		return RoleSubscriber
	}
	return v.Role
}

// CanRemove는 조회자가 ownerID가 등록한 항목을 삭제할 수 있는지 판단합니다.
// 보관 여부는 별도로 CanMutate로 확인해야 합니다.
func (v Viewer) CanRemove(ownerID string) bool {
	switch v.Role {
	case RoleAdmin, RoleReviewer:
		return true
	}
	return v.ID != "" && v.ID == ownerID
}
