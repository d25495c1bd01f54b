package notice

import (
	"time"
)

// Color는 공지 색상 팔레트의 인덱스입니다.
type Color int

// 팔레트 (순서가 DB 값입니다)
const (
	ColorYellow Color = iota
	ColorBlue
	ColorGreen
	ColorPink
	ColorPurple
)

type paletteEntry struct {
	Name string
	Hex  string // Slack attachment 색상
}

var palette = [...]paletteEntry{
	ColorYellow: {"Yellow", "#F6C944"},
	ColorBlue:   {"Blue", "#4A90E2"},
	ColorGreen:  {"Green", "#5CB85C"},
	ColorPink:   {"Pink", "#F28DB2"},
	ColorPurple: {"Purple", "#9B59B6"},
}

// Valid
func (c Color) Valid() bool {
	return c >= 0 && int(c) < len(palette)
}

// Normalize는 범위를 벗어난 값을 기본 색(Yellow)으로 읽습니다.
func (c Color) Normalize() Color {
	if !c.Valid() {
		return ColorYellow
	}
	return c
}

// Name
func (c Color) Name() string { return palette[c.Normalize()].Name }

// Hex
func (c Color) Hex() string { return palette[c.Normalize()].Hex }

// Notice는 'notices' 테이블의 스키마입니다.
type Notice struct {
	ID          uint64    `json:"id" db:"id"`
	CreatedID   string    `json:"created_id" db:"created_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Color       Color     `json:"color" db:"color"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// View는 화면용 공지입니다. ColorName을 함께 내려줍니다.
type View struct {
	Notice
	ColorName string `json:"color_name"`
}
