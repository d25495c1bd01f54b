package entry

import (
	"context"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"shiftboard/internal/apperr"
	"shiftboard/internal/policy"
)

const icsProductID = "-//shiftboard//board export//KO"

// ExportICS는 조회자에게 보이는 참가자 항목을 iCalendar 피드로 만듭니다.
// 캘린더 항목은 종일 일정, 스케줄 항목은 1시간 일정입니다. 추천 표시는 포함하지 않습니다.
// 반환값은 (파일 이름, 본문)입니다.
func (s *Service) ExportICS(ctx context.Context, instanceID uint64, viewer policy.Viewer) (string, string, error) {
	now := s.clock()

	inst, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		return "", "", err
	}
	entries, err := s.store.ListAll(ctx, instanceID)
	if err != nil {
		return "", "", apperr.StoreFailure("내보내기 항목 조회", err)
	}
	entries = policy.FilterVisible(entries, entryDate, viewer.EffectiveRole(), now)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(inst.Name)
	cal.SetXWRTimezone(s.loc.String())

	for _, e := range entries {
		if e.IsSuggested {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("entry-%d@shiftboard", e.ID))
		ev.SetSummary(e.UserName)
		ev.SetDtStampTime(e.CreatedAt)
		ev.SetCreatedTime(e.CreatedAt)

		day := policy.Civil(e.Date, s.loc)
		if e.Hour == nil {
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), *e.Hour, 0, 0, 0, s.loc)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(time.Hour))
	}
	return ICSFileName(inst.Name), cal.Serialize(), nil
}

// ICSFileName은 내려받을 파일 이름입니다.
func ICSFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ' ':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "board"
	}
	return name + ".ics"
}
