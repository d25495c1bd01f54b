package slot

import (
	"testing"
	"time"
)

func TestWindowDefaultFromTuesday(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC) // 화요일
	w, err := NewWindow(DefaultScheduleConfig(), now)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	wantStart := time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 3, 19, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("start = %s, want %s", w.Start, wantStart)
	}
	if !w.End.Equal(wantEnd) {
		t.Errorf("end = %s, want %s", w.End, wantEnd)
	}
	if len(w.Slots) != 73 {
		t.Fatalf("window has %d slots, want 73", len(w.Slots))
	}
	last := w.Slots[len(w.Slots)-1]
	if !last.Start.Add(time.Hour).Equal(wantEnd) {
		t.Errorf("last slot %s does not end at %s", last.Start, wantEnd)
	}
	for i := 1; i < len(w.Slots); i++ {
		if w.Slots[i].Start.Sub(w.Slots[i-1].Start) != time.Hour {
			t.Fatalf("slots %d and %d are not contiguous", i-1, i)
		}
	}

	cols := w.Columns()
	if len(cols) != 4 {
		t.Fatalf("window spans %d days, want 4", len(cols))
	}
	if n := len(cols[0].Slots); n != 6 {
		t.Errorf("thursday column has %d slots, want 6", n)
	}
	if n := len(cols[3].Slots); n != 19 {
		t.Errorf("sunday column has %d slots, want 19", n)
	}
	if got := w.FirstDate().Format(DateLayout); got != "2024-02-29" {
		t.Errorf("first date = %s", got)
	}
	if got := w.LastDate().Format(DateLayout); got != "2024-03-03" {
		t.Errorf("last date = %s", got)
	}
}

func TestWindowAnchorOnStartDay(t *testing.T) {
	cfg := DefaultScheduleConfig()

	before := time.Date(2024, 3, 7, 17, 59, 0, 0, time.UTC) // 목요일 시작 전
	w, err := NewWindow(cfg, before)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("before start: anchor = %s, want %s", w.Start, want)
	}

	exact := time.Date(2024, 3, 7, 18, 0, 0, 0, time.UTC)
	w, err = NewWindow(cfg, exact)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(exact) {
		t.Errorf("at start: anchor = %s, want %s", w.Start, exact)
	}
}

func TestWindowCustomConfig(t *testing.T) {
	cfg := ScheduleConfig{StartDay: int(time.Monday), StartHour: 9, EndDay: int(time.Monday), EndHour: 17}
	now := time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC) // 수요일
	w, err := NewWindow(cfg, now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("anchor = %s, want %s", w.Start, want)
	}
	if len(w.Slots) != 8 {
		t.Errorf("same-day window has %d slots, want 8", len(w.Slots))
	}
	h := 16
	key, _ := ParseKey("2024-03-04", &h)
	if !w.Contains(key) {
		t.Errorf("window should contain %s", key)
	}
	h = 17
	key, _ = ParseKey("2024-03-04", &h)
	if w.Contains(key) {
		t.Errorf("window end %s is exclusive", key)
	}
}

func TestParseScheduleConfig(t *testing.T) {
	cfg, err := ParseScheduleConfig(nil)
	if err != nil || cfg != DefaultScheduleConfig() {
		t.Fatalf("nil config = %+v, %v", cfg, err)
	}

	raw := `{"startDay":5,"startHour":20}`
	cfg, err = ParseScheduleConfig(&raw)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StartDay != 5 || cfg.StartHour != 20 || cfg.EndDay != 0 || cfg.EndHour != 19 {
		t.Errorf("partial config = %+v", cfg)
	}

	for _, bad := range []string{`{"startDay":7}`, `{"endHour":24}`, `not json`} {
		b := bad
		if _, err := ParseScheduleConfig(&b); err == nil {
			t.Errorf("config %s should be rejected", bad)
		}
	}

	enc, err := DefaultScheduleConfig().Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseScheduleConfig(&enc)
	if err != nil || back != DefaultScheduleConfig() {
		t.Errorf("encoded config did not parse back: %+v, %v", back, err)
	}
}
