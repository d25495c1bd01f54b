package policy

import "time"

// GraceDays는 새 달이 시작된 뒤 이전 달이 잠기기까지의 유예 일수입니다.
const GraceDays = 3

// MonthStart는 now가 속한 달의 1일 00:00(now의 로케이션 기준)을 반환합니다.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// Civil은 date의 연/월/일만 취해 loc 기준 자정으로 맞춥니다.
// DB의 DATE 컬럼은 UTC로 읽히므로 비교 전에 항상 이 값으로 변환합니다.
func Civil(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}

// ArchiveCutoff는 now 기준으로 이전 달이 보관 처리되는 시각입니다.
func ArchiveCutoff(now time.Time) time.Time {
	return MonthStart(now).AddDate(0, 0, GraceDays)
}

// IsArchived는 date가 보관 처리되었는지 판단합니다.
// now가 이번 달 1일 + 3일을 지났고, date가 이번 달 1일 이전이면 보관입니다.
func IsArchived(date, now time.Time) bool {
	monthStart := MonthStart(now)
	if !now.After(ArchiveCutoff(now)) {
		return false
	}
	return Civil(date, now.Location()).Before(monthStart)
}

// CanMutate는 role이 date의 항목을 변경할 수 있는지 판단합니다. admin은 항상 가능합니다.
func CanMutate(date time.Time, role Role, now time.Time) bool {
	if role == RoleAdmin {
		return true
	}
	return !IsArchived(date, now)
}

// IsVisible은 목록 조회 시 date의 항목을 보여줄지 판단합니다.
// 보관된 항목은 admin이 아니면 에러 없이 목록에서 제외됩니다.
func IsVisible(date time.Time, role Role, now time.Time) bool {
	return CanMutate(date, role, now)
}

// FilterVisible은 role에게 보여줄 항목만 남깁니다. dateOf로 각 항목의 날짜를 꺼냅니다.
func FilterVisible[T any](items []T, dateOf func(T) time.Time, role Role, now time.Time) []T {
	if role == RoleAdmin {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if IsVisible(dateOf(it), role, now) {
			out = append(out, it)
		}
	}
	return out
}
