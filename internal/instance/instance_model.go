package instance

import (
	"time"

	"shiftboard/internal/slot"
)

// Instance는 'instances' 테이블의 스키마입니다. 이름이 붙은 캘린더/스케줄 보드입니다.
type Instance struct {
	ID        uint64    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Mode      slot.Mode `json:"mode" db:"mode"`
	Config    *string   `json:"config,omitempty" db:"config"` // 스케줄 설정 JSON
	CreatedID string    `json:"created_id" db:"created_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Schedule은 인스턴스의 주간 반복 구간입니다. 설정이 없으면 기본값입니다.
func (i Instance) Schedule() (slot.ScheduleConfig, error) {
	return slot.ParseScheduleConfig(i.Config)
}
