package board

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"shiftboard/internal/apperr"
	"shiftboard/internal/entry"
	"shiftboard/internal/instance"
	"shiftboard/internal/notice"
	"shiftboard/internal/policy"
	"shiftboard/internal/slot"
)

type stubInstances struct {
	list []instance.Instance
	err  error
}

func (s stubInstances) List(ctx context.Context) ([]instance.Instance, error) { return s.list, s.err }

type stubNotices struct{ err error }

func (s stubNotices) List(ctx context.Context) ([]notice.View, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []notice.View{{Notice: notice.Notice{ID: 1, Title: "공지"}, ColorName: "Yellow"}}, nil
}

// stubBoards는 호출 기록을 남깁니다. "2099-01" 월은 이동 범위 밖으로 취급합니다.
type stubBoards struct {
	calls []string
}

func (s *stubBoards) CalendarBoard(ctx context.Context, id uint64, month string, viewer policy.Viewer) (*entry.CalendarBoard, error) {
	s.calls = append(s.calls, "calendar:"+month)
	if month == "2099-01" {
		return nil, apperr.Invalid("out of range")
	}
	if month == "" {
		month = "2024-03"
	}
	return &entry.CalendarBoard{Month: month}, nil
}

func (s *stubBoards) ScheduleBoard(ctx context.Context, id uint64, viewer policy.Viewer) (*entry.ScheduleBoard, error) {
	s.calls = append(s.calls, "schedule")
	return &entry.ScheduleBoard{}, nil
}

var instances = []instance.Instance{
	{ID: 1, Name: "캘린더", Mode: slot.ModeCalendar},
	{ID: 2, Name: "스케줄", Mode: slot.ModeSchedule},
}

func TestLoadSelection(t *testing.T) {
	cases := []struct {
		name     string
		req      Request
		wantID   uint64
		wantView slot.Mode
	}{
		{"default first instance", Request{}, 1, slot.ModeCalendar},
		{"instance mode", Request{InstanceID: 2}, 2, slot.ModeSchedule},
		{"view overrides mode", Request{InstanceID: 2, View: "calendar"}, 2, slot.ModeCalendar},
		{"unknown instance falls back", Request{InstanceID: 42}, 1, slot.ModeCalendar},
		{"bad view ignored", Request{InstanceID: 2, View: "weekly"}, 2, slot.ModeSchedule},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			boards := &stubBoards{}
			svc := NewService(stubInstances{list: instances}, stubNotices{}, boards)
			data, err := svc.Load(context.Background(), tc.req, policy.Viewer{Role: policy.RoleAnonymous})
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if data.InstanceID != tc.wantID || data.View != tc.wantView {
				t.Fatalf("selected = %d/%s, want %d/%s", data.InstanceID, data.View, tc.wantID, tc.wantView)
			}
			if (data.Calendar != nil) != (tc.wantView == slot.ModeCalendar) || (data.Schedule != nil) != (tc.wantView == slot.ModeSchedule) {
				t.Fatalf("board kinds = calendar:%v schedule:%v", data.Calendar != nil, data.Schedule != nil)
			}
			if len(data.Notices) != 1 || len(data.Instances) != 2 {
				t.Fatalf("lists = %d notices, %d instances", len(data.Notices), len(data.Instances))
			}
		})
	}
}

func TestLoadMonthFallback(t *testing.T) {
	boards := &stubBoards{}
	svc := NewService(stubInstances{list: instances}, stubNotices{}, boards)
	data, err := svc.Load(context.Background(), Request{InstanceID: 1, Month: "2099-01"}, policy.Viewer{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if data.Calendar.Month != "2024-03" || strings.Join(boards.calls, ",") != "calendar:2099-01,calendar:" {
		t.Fatalf("calls = %v, month = %s", boards.calls, data.Calendar.Month)
	}
}

func TestLoadEmptyAndFailures(t *testing.T) {
	svc := NewService(stubInstances{}, stubNotices{}, &stubBoards{})
	data, err := svc.Load(context.Background(), Request{}, policy.Viewer{})
	if err != nil {
		t.Fatalf("empty load: %v", err)
	}
	if data.InstanceID != 0 || data.Calendar != nil || data.Instances == nil {
		t.Fatalf("empty data = %+v", data)
	}

	boom := apperr.StoreFailure("x", errors.New("boom"))
	svc = NewService(stubInstances{list: instances}, stubNotices{err: boom}, &stubBoards{})
	if _, err := svc.Load(context.Background(), Request{}, policy.Viewer{}); !errors.Is(err, apperr.ErrStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestHandlerPersistsPreferences(t *testing.T) {
	app := fiber.New()
	app.Get("/api/board", NewBoardHandler(NewService(stubInstances{list: instances}, stubNotices{}, &stubBoards{})).HandleShowBoard)

	req := httptest.NewRequest("GET", "/api/board", nil)
	req.Header.Set("Cookie", CookieLastInstance+"=2")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	got := map[string]string{}
	for _, ck := range resp.Cookies() {
		got[ck.Name] = ck.Value
	}
	if got[CookieLastInstance] != "2" || got[CookieLastView] != "schedule" {
		t.Fatalf("cookies = %v", got)
	}
}
