package auth

import (
	"time"

	"shiftboard/internal/policy"
)

// User는 'users' 테이블의 스키마를 Go 코드로 표현합니다.
type User struct {
	ID             uint64     `json:"id" db:"id"`                           // bigint UNSIGNED
	UserName       string     `json:"user_name" db:"user_name"`             // varchar(100)
	Email          string     `json:"email" db:"email"`                     // varchar(150)
	OtpCode        *string    `json:"-" db:"otp_code"`                      // varchar(64) NULL
	PrivilegesType string     `json:"privileges_type" db:"privileges_type"` // admin | reviewer | subscriber
	LastLoginDt    *time.Time `json:"last_login_dt" db:"last_login_dt"`     // datetime NULL
	VerifyYn       bool       `json:"verify_yn" db:"verify_yn"`             // tinyint(1)
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Role은 privileges_type을 역할로 해석합니다.
func (u User) Role() policy.Role {
	return policy.ParseRole(u.PrivilegesType)
}
