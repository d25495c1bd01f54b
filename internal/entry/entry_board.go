package entry

import (
	"context"
	"time"

	"shiftboard/internal/apperr"
	"shiftboard/internal/instance"
	"shiftboard/internal/policy"
	"shiftboard/internal/slot"
)

// Occupant는 화면에 표시할 참가자입니다. Removable은 조회자가 지울 수 있는지 여부입니다.
type Occupant struct {
	Entry
	Removable bool `json:"removable"`
}

// SlotView는 한 슬롯의 표시 상태입니다.
type SlotView struct {
	Key        string     `json:"key"`
	Date       string     `json:"date"`
	Hour       *int       `json:"hour,omitempty"`
	Occupants  []Occupant `json:"occupants"`
	Suggested  bool       `json:"suggested"`
	HasEntries bool       `json:"has_entries"`
	Archived   bool       `json:"archived"`
	Mutable    bool       `json:"mutable"`
}

// DayView는 캘린더 그리드의 한 칸입니다.
type DayView struct {
	SlotView
	InMonth bool `json:"in_month"`
	Today   bool `json:"today"`
}

// CalendarBoard는 캘린더 모드 한 달 화면입니다.
type CalendarBoard struct {
	Instance     *instance.Instance `json:"instance"`
	Month        string             `json:"month"`
	Days         []DayView          `json:"days"`
	CanGoBack    bool               `json:"can_go_back"`
	CanGoForward bool               `json:"can_go_forward"`
	PrevMonth    string             `json:"prev_month,omitempty"`
	NextMonth    string             `json:"next_month,omitempty"`
}

// ColumnView는 스케줄 화면의 하루 열입니다.
type ColumnView struct {
	Date  string     `json:"date"`
	Slots []SlotView `json:"slots"`
}

// ScheduleBoard는 스케줄 모드 이번 주 구간 화면입니다.
type ScheduleBoard struct {
	Instance *instance.Instance  `json:"instance"`
	Config   slot.ScheduleConfig `json:"config"`
	Start    time.Time           `json:"start"`
	End      time.Time           `json:"end"`
	Columns  []ColumnView        `json:"columns"`
}

// composer는 조회자 기준으로 필터링된 항목을 슬롯별로 묶습니다.
type composer struct {
	bySlot map[string][]Entry
	viewer policy.Viewer
	now    time.Time
}

func newComposer(entries []Entry, viewer policy.Viewer, now time.Time) *composer {
	visible := policy.FilterVisible(entries, entryDate, viewer.EffectiveRole(), now)
	c := &composer{bySlot: make(map[string][]Entry, len(visible)), viewer: viewer, now: now}
	for _, e := range visible {
		k := e.Key().String()
		c.bySlot[k] = append(c.bySlot[k], e)
	}
	return c
}

func (c *composer) view(key slot.Key) SlotView {
	occupants, marker := splitSlot(c.bySlot[key.String()])
	v := SlotView{
		Key:       key.String(),
		Date:      key.DateString(),
		Hour:      key.HourPtr(),
		Occupants: make([]Occupant, 0, len(occupants)),
		Suggested: marker != nil,
		Archived:  policy.IsArchived(key.Date, c.now),
		Mutable:   policy.CanMutate(key.Date, c.viewer.EffectiveRole(), c.now),
	}
	for _, o := range occupants {
		v.Occupants = append(v.Occupants, Occupant{
			Entry:     o,
			Removable: v.Mutable && c.viewer.CanRemove(o.UserID),
		})
	}
	v.HasEntries = len(v.Occupants) > 0
	return v
}

// CalendarBoard는 month("YYYY-MM", 비어 있으면 이번 달)의 캘린더 화면을 만듭니다.
// 캘린더 칸에는 시(hour)가 없는 항목만 표시됩니다.
func (s *Service) CalendarBoard(ctx context.Context, instanceID uint64, month string, viewer policy.Viewer) (*CalendarBoard, error) {
	now := s.clock()

	displayed := policy.MonthStart(now)
	if month != "" {
		m, err := slot.ParseMonth(month, s.loc)
		if err != nil {
			return nil, err
		}
		displayed = m
	}
	if err := s.nav.Validate(displayed, now); err != nil {
		return nil, err
	}

	inst, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	grid := slot.MonthGrid(displayed, now)
	entries, err := s.store.ListByRange(ctx, instanceID, grid[0].Key.Date, grid[len(grid)-1].Key.Date)
	if err != nil {
		return nil, apperr.StoreFailure("캘린더 항목 조회", err)
	}
	daily := entries[:0:0]
	for _, e := range entries {
		if e.Hour == nil {
			daily = append(daily, e)
		}
	}

	comp := newComposer(daily, viewer, now)
	board := &CalendarBoard{
		Instance:     inst,
		Month:        displayed.Format(slot.MonthLayout),
		Days:         make([]DayView, 0, len(grid)),
		CanGoBack:    s.nav.CanGoBack(displayed, now),
		CanGoForward: s.nav.CanGoForward(displayed, now),
	}
	if board.CanGoBack {
		board.PrevMonth = displayed.AddDate(0, -1, 0).Format(slot.MonthLayout)
	}
	if board.CanGoForward {
		board.NextMonth = displayed.AddDate(0, 1, 0).Format(slot.MonthLayout)
	}
	for _, d := range grid {
		board.Days = append(board.Days, DayView{SlotView: comp.view(d.Key), InMonth: d.InMonth, Today: d.Today})
	}
	return board, nil
}

// ScheduleBoard는 이번 주 스케줄 구간 화면을 만듭니다. 구간은 이동하지 않습니다.
func (s *Service) ScheduleBoard(ctx context.Context, instanceID uint64, viewer policy.Viewer) (*ScheduleBoard, error) {
	now := s.clock()

	inst, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	cfg, err := inst.Schedule()
	if err != nil {
		return nil, err
	}
	window, err := slot.NewWindow(cfg, now)
	if err != nil {
		return nil, apperr.Invalid("스케줄 구간 계산 실패: %v", err)
	}

	entries, err := s.store.ListByRange(ctx, instanceID, window.FirstDate(), window.LastDate())
	if err != nil {
		return nil, apperr.StoreFailure("스케줄 항목 조회", err)
	}
	hourly := entries[:0:0]
	for _, e := range entries {
		if e.Hour != nil && window.Contains(e.Key()) {
			hourly = append(hourly, e)
		}
	}

	comp := newComposer(hourly, viewer, now)
	board := &ScheduleBoard{Instance: inst, Config: cfg, Start: window.Start, End: window.End}
	for _, col := range window.Columns() {
		cv := ColumnView{Date: col.Date.Format(slot.DateLayout), Slots: make([]SlotView, 0, len(col.Slots))}
		for _, hs := range col.Slots {
			cv.Slots = append(cv.Slots, comp.view(hs.Key))
		}
		board.Columns = append(board.Columns, cv)
	}
	return board, nil
}
