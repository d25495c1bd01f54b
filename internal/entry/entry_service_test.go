package entry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"shiftboard/internal/apperr"
	"shiftboard/internal/policy"
	"shiftboard/internal/slot"
)

var kst = time.FixedZone("KST", 9*60*60)

var (
	admin    = policy.Viewer{ID: "1", Name: "관리자", Role: policy.RoleAdmin}
	reviewer = policy.Viewer{ID: "2", Name: "lee", Role: policy.RoleReviewer}
	kim      = policy.Viewer{ID: "3", Name: "kim", Role: policy.RoleSubscriber}
	park     = policy.Viewer{ID: "4", Name: "park", Role: policy.RoleSubscriber}
	guest    = policy.Viewer{ID: "anon_abc", Name: "Guest", Role: policy.RoleAnonymous}
)

const (
	calendarID uint64 = 1
	scheduleID uint64 = 2
)

// 2024-03-05(화) 10:00 KST. 3월 4일이 지났으므로 2월은 보관 상태입니다.
func fixedNow() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, kst) }

func newTestService(repo *fakeRepo) *Service {
	instances := fakeInstances{
		calendarID: {ID: calendarID, Name: "3월 근무", Mode: slot.ModeCalendar},
		scheduleID: {ID: scheduleID, Name: "주말 당직", Mode: slot.ModeSchedule},
	}
	return NewService(repo, instances, Options{Location: kst, HistoryMonths: 12, Now: fixedNow})
}

func day(s string) SlotRequest { return SlotRequest{Date: s} }

func hour(s string, h int) SlotRequest { return SlotRequest{Date: s, Hour: &h} }

func occupantCount(repo *fakeRepo) int {
	n := 0
	for _, e := range repo.rows {
		if !e.IsSuggested {
			n++
		}
	}
	return n
}

func TestAddOccupantRejectsDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "kim"}, kim); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "kim"}, park)
	if !errors.Is(err, apperr.ErrDuplicateName) {
		t.Fatalf("second add: expected duplicate, got %v", err)
	}
	if n := occupantCount(repo); n != 1 {
		t.Fatalf("occupants = %d, want 1", n)
	}

	// 대소문자가 다르면 다른 이름입니다.
	if _, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "Kim"}, park); err != nil {
		t.Fatalf("case-different add: %v", err)
	}
	// 다른 날짜에는 같은 이름을 쓸 수 있습니다.
	if _, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-11"), Name: "kim"}, kim); err != nil {
		t.Fatalf("other day add: %v", err)
	}
}

func TestAddOccupantDefaultsToViewerName(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	e, err := svc.AddOccupant(context.Background(), calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "  "}, guest)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.UserName != "Guest" || e.UserID != guest.ID || e.Hour != nil {
		t.Fatalf("unexpected entry: %+v", e)
	}

	_, err = svc.AddOccupant(context.Background(), calendarID, AddRequest{SlotRequest: day("2024-03-10")}, policy.Viewer{ID: "x", Role: policy.RoleSubscriber})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty name, got %v", err)
	}
}

func TestAddOccupantArchived(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	req := AddRequest{SlotRequest: day("2024-02-20"), Name: "late"}

	for _, v := range []policy.Viewer{kim, reviewer, guest} {
		if _, err := svc.AddOccupant(ctx, calendarID, req, v); !errors.Is(err, apperr.ErrArchivedLocked) {
			t.Fatalf("%s: expected archived, got %v", v.Role, err)
		}
	}
	if len(repo.rows) != 0 {
		t.Fatalf("rejected adds must not reach the store")
	}
	if _, err := svc.AddOccupant(ctx, calendarID, req, admin); err != nil {
		t.Fatalf("admin add on archived date: %v", err)
	}
}

func TestAddOccupantUniqueIndexRace(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'entries.udx_entries_occupant'"}
	svc := newTestService(repo)

	_, err := svc.AddOccupant(context.Background(), calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "kim"}, kim)
	if !errors.Is(err, apperr.ErrDuplicateName) {
		t.Fatalf("expected duplicate from unique index, got %v", err)
	}
}

func TestAddOccupantStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection reset")
	svc := newTestService(repo)

	_, err := svc.AddOccupant(context.Background(), calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "kim"}, kim)
	if !errors.Is(err, apperr.ErrStoreFailure) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestAddOccupantSlotValidation(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	cases := []struct {
		name string
		id   uint64
		req  SlotRequest
		want error
	}{
		{"unknown instance", 99, day("2024-03-10"), apperr.ErrNotFound},
		{"bad date", calendarID, day("2024/03/10"), apperr.ErrInvalidInput},
		{"beyond forward bound", calendarID, day("2024-06-01"), apperr.ErrInvalidInput},
		{"hour outside window", scheduleID, hour("2024-03-05", 10), apperr.ErrInvalidInput},
		{"hour before window start", scheduleID, hour("2024-02-29", 17), apperr.ErrInvalidInput},
		{"window end is exclusive", scheduleID, hour("2024-03-03", 19), apperr.ErrInvalidInput},
		// 구간 첫날(2월 29일)은 이미 보관된 달에 속합니다.
		{"window start is archived", scheduleID, hour("2024-02-29", 18), apperr.ErrArchivedLocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddOccupant(ctx, tc.id, AddRequest{SlotRequest: tc.req, Name: "kim"}, kim)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	for _, req := range []SlotRequest{hour("2024-03-01", 0), hour("2024-03-03", 18)} {
		if _, err := svc.AddOccupant(ctx, scheduleID, AddRequest{SlotRequest: req, Name: "kim"}, kim); err != nil {
			t.Errorf("%s %d: %v", req.Date, *req.Hour, err)
		}
	}
}

func TestRemoveOccupantPermissions(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	e, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-10")}, kim)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, v := range []policy.Viewer{park, guest} {
		if err := svc.RemoveOccupant(ctx, e.ID, v); !errors.Is(err, apperr.ErrPermissionDenied) {
			t.Fatalf("%s: expected permission denied, got %v", v.ID, err)
		}
	}
	if _, ok := repo.rows[e.ID]; !ok {
		t.Fatal("entry must remain after rejected removal")
	}

	if err := svc.RemoveOccupant(ctx, e.ID, kim); err != nil {
		t.Fatalf("owner remove: %v", err)
	}
	if err := svc.RemoveOccupant(ctx, e.ID, kim); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second remove: expected not found, got %v", err)
	}
}

func TestRemoveOccupantByModerators(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for _, v := range []policy.Viewer{reviewer, admin} {
		e, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-12"), Name: "kim"}, kim)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := svc.RemoveOccupant(ctx, e.ID, v); err != nil {
			t.Fatalf("%s remove: %v", v.Role, err)
		}
	}
}

func TestRemoveOccupantArchived(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	old := repo.seed(Entry{InstanceID: calendarID, UserID: kim.ID, UserName: "kim", Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)})

	if err := svc.RemoveOccupant(context.Background(), old.ID, kim); !errors.Is(err, apperr.ErrArchivedLocked) {
		t.Fatalf("expected archived, got %v", err)
	}
	if err := svc.RemoveOccupant(context.Background(), old.ID, admin); err != nil {
		t.Fatalf("admin remove archived: %v", err)
	}
}

func TestRemoveOccupantIgnoresMarker(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	if _, err := svc.ToggleSuggest(context.Background(), calendarID, day("2024-03-10"), admin); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	var markerID uint64
	for id := range repo.rows {
		markerID = id
	}
	if err := svc.RemoveOccupant(context.Background(), markerID, admin); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for marker, got %v", err)
	}
}

func TestToggleSuggestIsToggle(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "kim"}, kim); err != nil {
		t.Fatalf("add: %v", err)
	}

	on, err := svc.ToggleSuggest(ctx, calendarID, day("2024-03-10"), admin)
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v", on, err)
	}
	var marker Entry
	for _, e := range repo.rows {
		if e.IsSuggested {
			marker = e
		}
	}
	if marker.UserName != SystemAuthor {
		t.Errorf("marker author = %q, want %q", marker.UserName, SystemAuthor)
	}

	off, err := svc.ToggleSuggest(ctx, calendarID, day("2024-03-10"), admin)
	if err != nil || off {
		t.Fatalf("second toggle = %v, %v", off, err)
	}
	if len(repo.rows) != 1 || occupantCount(repo) != 1 {
		t.Fatalf("occupants must be untouched, rows = %+v", repo.rows)
	}
}

func TestToggleSuggestAdminOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	for _, v := range []policy.Viewer{reviewer, kim, guest} {
		if _, err := svc.ToggleSuggest(context.Background(), calendarID, day("2024-03-10"), v); !errors.Is(err, apperr.ErrPermissionDenied) {
			t.Fatalf("%s: expected permission denied, got %v", v.Role, err)
		}
	}
	if len(repo.rows) != 0 {
		t.Fatal("rejected toggles must not reach the store")
	}
}

func TestToggleSuggestConcurrentMarker(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'entries.udx_entries_marker'"}
	svc := newTestService(repo)

	on, err := svc.ToggleSuggest(context.Background(), scheduleID, hour("2024-03-01", 20), admin)
	if err != nil || !on {
		t.Fatalf("toggle = %v, %v; want already suggested", on, err)
	}
}

func TestCalendarBoardVisibility(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	feb20 := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	repo.seed(Entry{InstanceID: calendarID, UserID: kim.ID, UserName: "kim", Date: feb20})

	sub, err := svc.CalendarBoard(ctx, calendarID, "2024-02", kim)
	if err != nil {
		t.Fatalf("subscriber board: %v", err)
	}
	cell := findDay(t, sub.Days, "2024-02-20")
	if cell.HasEntries || !cell.Archived || cell.Mutable {
		t.Fatalf("subscriber cell = %+v", cell)
	}

	adm, err := svc.CalendarBoard(ctx, calendarID, "2024-02", admin)
	if err != nil {
		t.Fatalf("admin board: %v", err)
	}
	cell = findDay(t, adm.Days, "2024-02-20")
	if !cell.HasEntries || !cell.Archived || !cell.Mutable {
		t.Fatalf("admin cell = %+v", cell)
	}
	if !cell.Occupants[0].Removable {
		t.Error("admin can remove archived occupants")
	}
}

func TestCalendarBoardComposition(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	h := 9
	repo.seed(Entry{InstanceID: calendarID, UserID: kim.ID, UserName: "kim", Date: mar10})
	repo.seed(Entry{InstanceID: calendarID, UserID: admin.ID, UserName: SystemAuthor, Date: mar10, IsSuggested: true})
	repo.seed(Entry{InstanceID: calendarID, UserID: admin.ID, UserName: SystemAuthor, Date: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), IsSuggested: true})
	repo.seed(Entry{InstanceID: calendarID, UserID: park.ID, UserName: "park", Date: mar10, Hour: &h})

	board, err := svc.CalendarBoard(ctx, calendarID, "", park)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if board.Month != "2024-03" || len(board.Days) != 42 {
		t.Fatalf("month = %s, days = %d", board.Month, len(board.Days))
	}
	if !board.CanGoBack || !board.CanGoForward || board.NextMonth != "2024-04" || board.PrevMonth != "2024-02" {
		t.Fatalf("navigation = %+v", board)
	}

	cell := findDay(t, board.Days, "2024-03-10")
	if !cell.Suggested || !cell.HasEntries || len(cell.Occupants) != 1 {
		t.Fatalf("2024-03-10 = %+v", cell)
	}
	if cell.Occupants[0].UserName != "kim" || cell.Occupants[0].Removable {
		t.Fatalf("park must not be able to remove kim: %+v", cell.Occupants[0])
	}

	marked := findDay(t, board.Days, "2024-03-11")
	if !marked.Suggested || marked.HasEntries {
		t.Fatalf("suggested without occupants = %+v", marked)
	}
	if today := findDay(t, board.Days, "2024-03-05"); !today.Today {
		t.Error("2024-03-05 should be today")
	}
}

func TestCalendarBoardNavigationBounds(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	next, err := svc.CalendarBoard(ctx, calendarID, "2024-04", kim)
	if err != nil {
		t.Fatalf("next month: %v", err)
	}
	if next.CanGoForward || next.NextMonth != "" {
		t.Errorf("next month must be the forward bound")
	}
	if _, err := svc.CalendarBoard(ctx, calendarID, "2024-05", kim); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input beyond forward bound, got %v", err)
	}
	if _, err := svc.CalendarBoard(ctx, calendarID, "2023-02", kim); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected invalid input beyond history, got %v", err)
	}
}

func TestScheduleBoard(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddOccupant(ctx, scheduleID, AddRequest{SlotRequest: hour("2024-03-01", 20), Name: "kim"}, kim); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.ToggleSuggest(ctx, scheduleID, hour("2024-03-02", 9), admin); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	// 같은 날짜의 일 단위 항목은 스케줄 칸에 나타나지 않습니다.
	repo.seed(Entry{InstanceID: scheduleID, UserID: kim.ID, UserName: "daily", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})

	board, err := svc.ScheduleBoard(ctx, scheduleID, kim)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if !board.Start.Equal(time.Date(2024, 2, 29, 18, 0, 0, 0, kst)) || !board.End.Equal(time.Date(2024, 3, 3, 19, 0, 0, 0, kst)) {
		t.Fatalf("window = %s ~ %s", board.Start, board.End)
	}
	if len(board.Columns) != 4 {
		t.Fatalf("columns = %d, want 4", len(board.Columns))
	}

	total := 0
	for _, col := range board.Columns {
		for _, s := range col.Slots {
			total++
			switch s.Key {
			case "2024-03-01T20":
				if !s.HasEntries || s.Suggested || s.Occupants[0].UserName != "kim" || !s.Occupants[0].Removable {
					t.Errorf("2024-03-01T20 = %+v", s)
				}
			case "2024-03-02T09":
				if !s.Suggested || s.HasEntries {
					t.Errorf("2024-03-02T09 = %+v", s)
				}
			default:
				if s.HasEntries || s.Suggested {
					t.Errorf("%s should be empty: %+v", s.Key, s)
				}
			}
		}
	}
	if total != 73 {
		t.Fatalf("slots = %d, want 73", total)
	}
}

func TestExportICS(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.AddOccupant(ctx, calendarID, AddRequest{SlotRequest: day("2024-03-10"), Name: "kim"}, kim); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.ToggleSuggest(ctx, calendarID, day("2024-03-10"), admin); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	repo.seed(Entry{InstanceID: calendarID, UserID: kim.ID, UserName: "archived-kim", Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)})

	filename, body, err := svc.ExportICS(ctx, calendarID, kim)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filename != "3월_근무.ics" {
		t.Errorf("filename = %q", filename)
	}
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:kim") {
		t.Fatalf("missing occupant event:\n%s", body)
	}
	if strings.Contains(body, "SUMMARY:"+SystemAuthor) {
		t.Error("suggest markers must not be exported")
	}
	if strings.Contains(body, "archived-kim") {
		t.Error("archived entries are hidden from subscribers")
	}
}

func findDay(t *testing.T, days []DayView, date string) DayView {
	t.Helper()
	for _, d := range days {
		if d.Date == date {
			return d
		}
	}
	t.Fatalf("day %s not in grid", date)
	return DayView{}
}

func TestICSFileName(t *testing.T) {
	cases := map[string]string{
		"주말 당직": "주말_당직.ics",
		"a/b":   "a_b.ics",
		"  ":    "board.ics",
	}
	for in, want := range cases {
		if got := ICSFileName(in); got != want {
			t.Errorf("ICSFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
