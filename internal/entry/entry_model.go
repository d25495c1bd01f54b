package entry

import (
	"time"

	"shiftboard/internal/slot"
)

// SystemAuthor는 추천 마커 항목의 표시 이름입니다.
const SystemAuthor = "System"

// Entry는 'entries' 테이블의 스키마입니다.
// 하나의 슬롯에 이름 하나가 등록된 행이거나, IsSuggested=true 인 추천 마커입니다.
// 수정은 없고 항상 삭제 후 재생성합니다.
type Entry struct {
	ID          uint64    `json:"id" db:"id"`
	InstanceID  uint64    `json:"instance_id" db:"instance_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	UserName    string    `json:"user_name" db:"user_name"`
	Date        time.Time `json:"-" db:"entry_date"`
	Hour        *int      `json:"hour,omitempty" db:"hour"` // 스케줄 모드에서만 0-23
	IsSuggested bool      `json:"is_suggested" db:"is_suggested"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Key는 항목이 속한 슬롯 키입니다.
func (e Entry) Key() slot.Key {
	return slot.KeyOf(e.Date, e.Hour)
}

// DateString
func (e Entry) DateString() string {
	return e.Date.Format(slot.DateLayout)
}

func entryDate(e Entry) time.Time { return e.Date }
