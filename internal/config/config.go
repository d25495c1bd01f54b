package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sizzlei/confloader"
	"gopkg.in/yaml.v3"
)

// 기본값
const (
	DefaultServerPort    = 3000
	DefaultTimezone      = "Asia/Seoul"
	DefaultHistoryMonths = 12
	DefaultJanitorCron   = "@daily"
	DefaultLogLevel      = "info"
)

// Repository는 DB 접속 정보입니다.
type Repository struct {
	User     string `yaml:"User"`
	Password string `yaml:"Password"`
	Endpoint string `yaml:"Endpoint"`
	Port     int    `yaml:"Port"`
	Database string `yaml:"Database"`
}

// Server
type Server struct {
	Port     int    `yaml:"Port"`
	Timezone string `yaml:"Timezone"`
	LogLevel string `yaml:"LogLevel"`
}

// Board는 보드 동작 설정입니다.
// HistoryMonths가 0이면 과거 달 이동을 제한하지 않습니다.
type Board struct {
	HistoryMonths *int   `yaml:"HistoryMonths"`
	JanitorCron   string `yaml:"JanitorCron"`
}

// Slack은 공지 미러링 설정입니다. 둘 중 하나라도 비어 있으면 미러링을 끕니다.
type Slack struct {
	BotToken  string `yaml:"BotToken"`
	ChannelID string `yaml:"ChannelID"`
}

// Config
type Config struct {
	Repository Repository `yaml:"repository"`
	Server     Server     `yaml:"server"`
	Board      Board      `yaml:"board"`
	Slack      Slack      `yaml:"slack"`
}

// FromParamStore는 AWS Parameter Store에서 설정을 읽습니다.
func FromParamStore(region, key string) (*Config, error) {
	loaded, err := confloader.AWSParamLoader(region, key)
	if err != nil {
		return nil, fmt.Errorf("parameter store 로드 실패 (%s): %w", key, err)
	}

	repo := loaded.Keyload("repository")
	server := loaded.Keyload("server")
	board := loaded.Keyload("board")
	slack := loaded.Keyload("slack")

	cfg := &Config{
		Repository: Repository{
			User:     stringOf(repo["User"]),
			Password: stringOf(repo["Password"]),
			Endpoint: stringOf(repo["Endpoint"]),
			Port:     intOf(repo["Port"]),
			Database: stringOf(repo["Database"]),
		},
		Server: Server{
			Port:     intOf(server["Port"]),
			Timezone: stringOf(server["Timezone"]),
			LogLevel: stringOf(server["LogLevel"]),
		},
		Board: Board{
			JanitorCron: stringOf(board["JanitorCron"]),
		},
		Slack: Slack{
			BotToken:  stringOf(slack["BotToken"]),
			ChannelID: stringOf(slack["ChannelID"]),
		},
	}
	if _, ok := board["HistoryMonths"]; ok {
		months := intOf(board["HistoryMonths"])
		cfg.Board.HistoryMonths = &months
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile은 로컬 개발용 YAML 설정 파일을 읽습니다.
func FromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("설정 파일 읽기 실패 (%s): %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("설정 파일 파싱 실패 (%s): %w", path, err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize는 빈 값을 기본값으로 채우고 값 범위를 검사합니다.
func (c *Config) Normalize() error {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.Timezone == "" {
		c.Server.Timezone = DefaultTimezone
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Board.HistoryMonths == nil {
		months := DefaultHistoryMonths
		c.Board.HistoryMonths = &months
	}
	if c.Board.JanitorCron == "" {
		c.Board.JanitorCron = DefaultJanitorCron
	}

	if *c.Board.HistoryMonths < 0 {
		return fmt.Errorf("HistoryMonths는 0 이상이어야 합니다: %d", *c.Board.HistoryMonths)
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("알 수 없는 Timezone: %s", c.Server.Timezone)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("알 수 없는 LogLevel: %s", c.Server.LogLevel)
	}
	return nil
}

// Location은 보드의 달력/보관 기준 시간대입니다. Normalize 이후에 호출합니다.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Level
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// confloader 값은 YAML/JSON 출처에 따라 타입이 달라 형 변환을 한곳에서 처리합니다.
func stringOf(raw interface{}) string {
	if v, ok := raw.(string); ok {
		return v
	}
	return ""
}

func intOf(raw interface{}) int {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}
