package slot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"shiftboard/internal/apperr"
)

// ScheduleConfig는 스케줄 모드 인스턴스의 주간 반복 구간입니다.
// 요일은 0(일)-6(토), 시는 0-23입니다. 인스턴스의 config 컬럼에 JSON으로 저장됩니다.
type ScheduleConfig struct {
	StartDay  int `json:"startDay"`
	StartHour int `json:"startHour"`
	EndDay    int `json:"endDay"`
	EndHour   int `json:"endHour"`
}

// DefaultScheduleConfig는 목요일 18:00 부터 일요일 19:00 까지입니다.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		StartDay:  int(time.Thursday),
		StartHour: 18,
		EndDay:    int(time.Sunday),
		EndHour:   19,
	}
}

// Validate
func (c ScheduleConfig) Validate() error {
	if c.StartDay < 0 || c.StartDay > 6 || c.EndDay < 0 || c.EndDay > 6 {
		return apperr.Invalid("요일은 0(일)-6(토) 사이여야 합니다")
	}
	if c.StartHour < 0 || c.StartHour > 23 || c.EndHour < 0 || c.EndHour > 23 {
		return apperr.Invalid("시간은 0-23 사이여야 합니다")
	}
	return nil
}

// ParseScheduleConfig는 인스턴스의 config JSON을 읽습니다.
// 비어 있으면 기본 구간을 사용하고, 누락된 필드는 기본값이 유지됩니다.
func ParseScheduleConfig(raw *string) (ScheduleConfig, error) {
	cfg := DefaultScheduleConfig()
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(*raw), &cfg); err != nil {
		return cfg, apperr.Invalid("스케줄 설정 JSON 파싱 실패: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Encode는 config 컬럼에 저장할 JSON 문자열을 만듭니다.
func (c ScheduleConfig) Encode() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HourSlot은 스케줄 모드의 한 시간 칸입니다. [Start, Start+1h) 구간입니다.
type HourSlot struct {
	Key   Key
	Start time.Time
}

// Column은 같은 날짜에 속한 시간 칸 묶음입니다 (화면의 한 열).
type Column struct {
	Date  time.Time
	Slots []HourSlot
}

// Window는 now 기준 "이번 주" 반복 구간입니다.
type Window struct {
	Start time.Time
	End   time.Time
	Slots []HourSlot
}

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// weekly는 매주 day요일 hour시 정각에 반복되는 규칙을 만듭니다.
func weekly(day, hour int, dtstart time.Time) (*rrule.RRule, error) {
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   dtstart,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
		Byhour:    []int{hour},
		Byminute:  []int{0},
		Bysecond:  []int{0},
	})
}

// NewWindow는 now 이전(같은 시각 포함)에 가장 최근 시작된 구간을 계산합니다.
// 구간은 시작 요일/시부터, 그 이후 처음 오는 종료 요일/시까지의 반열린 구간이며
// 한 시간 단위 칸으로 나뉩니다. 기본 설정이면 73칸입니다.
func NewWindow(cfg ScheduleConfig, now time.Time) (*Window, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 가장 최근 시작 시각은 항상 직전 7일 안에 있습니다.
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startRule, err := weekly(cfg.StartDay, cfg.StartHour, midnight.AddDate(0, 0, -8))
	if err != nil {
		return nil, fmt.Errorf("시작 규칙 생성 실패: %w", err)
	}
	start := startRule.Before(now, true)
	if start.IsZero() {
		return nil, fmt.Errorf("시작 시각을 찾을 수 없습니다 (now: %s)", now)
	}

	endRule, err := weekly(cfg.EndDay, cfg.EndHour, start)
	if err != nil {
		return nil, fmt.Errorf("종료 규칙 생성 실패: %w", err)
	}
	end := endRule.After(start, false)
	if end.IsZero() {
		return nil, fmt.Errorf("종료 시각을 찾을 수 없습니다 (start: %s)", start)
	}

	w := &Window{Start: start, End: end}
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		w.Slots = append(w.Slots, HourSlot{Key: HourKey(t, t.Hour()), Start: t})
	}
	return w, nil
}

// Contains는 key가 이 구간의 칸인지 확인합니다.
func (w *Window) Contains(key Key) bool {
	if !key.Hourly() {
		return false
	}
	for _, s := range w.Slots {
		if s.Key.Hour == key.Hour && s.Key.Date.Equal(key.Date) {
			return true
		}
	}
	return false
}

// Columns는 칸을 날짜별로 묶습니다. 순서는 시간순입니다.
func (w *Window) Columns() []Column {
	var cols []Column
	for _, s := range w.Slots {
		if n := len(cols); n > 0 && cols[n-1].Date.Equal(s.Key.Date) {
			cols[n-1].Slots = append(cols[n-1].Slots, s)
			continue
		}
		cols = append(cols, Column{Date: s.Key.Date, Slots: []HourSlot{s}})
	}
	return cols
}

// FirstDate는 구간이 걸친 첫 날짜입니다 (DB 범위 조회용).
func (w *Window) FirstDate() time.Time { return civil(w.Start) }

// LastDate
func (w *Window) LastDate() time.Time {
	if len(w.Slots) == 0 {
		return civil(w.Start)
	}
	return w.Slots[len(w.Slots)-1].Key.Date
}
