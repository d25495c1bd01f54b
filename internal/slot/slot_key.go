package slot

import (
	"fmt"
	"time"

	"shiftboard/internal/apperr"
)

// DateLayout은 슬롯 날짜의 문자열 형식입니다.
const DateLayout = "2006-01-02"

// NoHour는 캘린더 모드(일 단위) 슬롯의 Hour 값입니다.
const NoHour = -1

// Mode는 인스턴스의 슬롯 주소 방식입니다.
type Mode string

const (
	ModeCalendar Mode = "calendar"
	ModeSchedule Mode = "schedule"
)

// ParseMode는 문자열을 Mode로 변환합니다. 빈 값은 캘린더 모드입니다.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCalendar, "":
		return ModeCalendar, nil
	case ModeSchedule:
		return ModeSchedule, nil
	}
	return "", apperr.Invalid("알 수 없는 모드입니다: %q", s)
}

// Key는 항목이 붙는 슬롯의 주소입니다.
// 캘린더 모드는 (날짜), 스케줄 모드는 (날짜, 시)로 구분됩니다.
type Key struct {
	Date time.Time // UTC 자정으로 정규화된 달력 날짜
	Hour int       // 0-23, 캘린더 모드는 NoHour
}

// DayKey는 date의 일 단위 슬롯 키를 만듭니다.
func DayKey(date time.Time) Key {
	return Key{Date: civil(date), Hour: NoHour}
}

// HourKey는 date의 hour 시 슬롯 키를 만듭니다.
func HourKey(date time.Time, hour int) Key {
	return Key{Date: civil(date), Hour: hour}
}

// ParseKey는 "YYYY-MM-DD" 날짜와 선택적인 시(hour)로 키를 만듭니다.
func ParseKey(date string, hour *int) (Key, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return Key{}, apperr.Invalid("날짜 형식이 잘못되었습니다 (YYYY-MM-DD): %q", date)
	}
	if hour == nil {
		return DayKey(d), nil
	}
	if *hour < 0 || *hour > 23 {
		return Key{}, apperr.Invalid("시간은 0-23 사이여야 합니다: %d", *hour)
	}
	return HourKey(d, *hour), nil
}

// Hourly는 스케줄 모드 키인지 여부입니다.
func (k Key) Hourly() bool {
	return k.Hour != NoHour
}

// HourPtr는 DB 저장용 시 값입니다. 캘린더 모드는 nil입니다.
func (k Key) HourPtr() *int {
	if !k.Hourly() {
		return nil
	}
	h := k.Hour
	return &h
}

// DateString
func (k Key) DateString() string {
	return k.Date.Format(DateLayout)
}

// String은 "2024-03-01" 또는 "2024-03-01T18" 형태의 키 문자열입니다.
func (k Key) String() string {
	if !k.Hourly() {
		return k.DateString()
	}
	return fmt.Sprintf("%sT%02d", k.DateString(), k.Hour)
}

// KeyOf는 저장된 날짜/시 값에서 키를 복원합니다.
func KeyOf(date time.Time, hour *int) Key {
	if hour == nil {
		return DayKey(date)
	}
	return HourKey(date, *hour)
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
