package slot

import (
	"time"

	"shiftboard/internal/apperr"
	"shiftboard/internal/policy"
)

// MonthLayout은 캘린더 월 파라미터 형식입니다.
const MonthLayout = "2006-01"

// Day는 월간 그리드의 한 칸입니다.
type Day struct {
	Key     Key  `json:"-"`
	InMonth bool `json:"in_month"` // 표시 중인 달에 속하는지 (앞뒤 주의 날짜는 false)
	Today   bool `json:"today"`
}

// MonthGrid는 month가 속한 달을 일요일 시작 주 단위로 채운 그리드를 반환합니다.
// 1일이 속한 주의 일요일부터 말일이 속한 주의 토요일까지이며 최대 6주입니다.
func MonthGrid(month, now time.Time) []Day {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, 6-int(last.Weekday()))
	today := civil(now)

	days := make([]Day, 0, 42)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{
			Key:     DayKey(d),
			InMonth: d.Month() == first.Month(),
			Today:   d.Equal(today),
		})
	}
	return days
}

// ParseMonth는 "YYYY-MM"을 해당 월 1일(loc 기준)로 변환합니다.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	m, err := time.ParseInLocation(MonthLayout, s, loc)
	if err != nil {
		return time.Time{}, apperr.Invalid("월 형식이 잘못되었습니다 (YYYY-MM): %q", s)
	}
	return m, nil
}

// Navigator는 캘린더 월 이동 범위를 정합니다.
// 앞으로는 now가 속한 달의 다음 달까지, 뒤로는 HistoryMonths개월까지 이동할 수 있습니다.
// HistoryMonths가 0이면 과거 방향 제한이 없습니다.
type Navigator struct {
	HistoryMonths int
}

// Latest는 이동 가능한 가장 늦은 달입니다.
func (n Navigator) Latest(now time.Time) time.Time {
	return policy.MonthStart(now).AddDate(0, 1, 0)
}

// Earliest는 이동 가능한 가장 이른 달입니다. 제한이 없으면 제로값을 반환합니다.
func (n Navigator) Earliest(now time.Time) time.Time {
	if n.HistoryMonths <= 0 {
		return time.Time{}
	}
	return policy.MonthStart(now).AddDate(0, -n.HistoryMonths, 0)
}

// CanGoForward는 displayed에서 다음 달로 이동할 수 있는지 판단합니다.
func (n Navigator) CanGoForward(displayed, now time.Time) bool {
	return monthIndex(displayed) < monthIndex(n.Latest(now))
}

// CanGoBack은 displayed에서 이전 달로 이동할 수 있는지 판단합니다.
func (n Navigator) CanGoBack(displayed, now time.Time) bool {
	if n.HistoryMonths <= 0 {
		return true
	}
	return monthIndex(displayed) > monthIndex(n.Earliest(now))
}

// Validate는 month가 이동 가능한 범위 안인지 확인합니다.
func (n Navigator) Validate(month, now time.Time) error {
	idx := monthIndex(month)
	if idx > monthIndex(n.Latest(now)) {
		return apperr.Invalid("%s 이후의 달은 조회할 수 없습니다", n.Latest(now).Format(MonthLayout))
	}
	if n.HistoryMonths > 0 && idx < monthIndex(n.Earliest(now)) {
		return apperr.Invalid("%s 이전의 달은 조회할 수 없습니다", n.Earliest(now).Format(MonthLayout))
	}
	return nil
}

// Reachable은 date가 이동 가능한 달의 그리드 중 하나에 표시되는지 확인합니다.
// 그리드 앞뒤 주에 걸친 이웃 달의 날짜도 포함됩니다.
func (n Navigator) Reachable(date, now time.Time) bool {
	d := civil(date)
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	for _, m := range []time.Time{first.AddDate(0, -1, 0), first, first.AddDate(0, 1, 0)} {
		if n.Validate(m, now) != nil {
			continue
		}
		grid := MonthGrid(m, now)
		if !d.Before(grid[0].Key.Date) && !d.After(grid[len(grid)-1].Key.Date) {
			return true
		}
	}
	return false
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
