package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // 드라이버 임포트
	"github.com/jmoiron/sqlx"
)

// DBI는 MySQL 접속 정보입니다.
type DBI struct {
	User     string
	Password string
	Endpoint string
	Port     int
	Database string
}

// DSN은 go-sql-driver/mysql 형식의 접속 문자열입니다.
// parseTime=true 로 DATE/DATETIME 을 time.Time 으로 받고, loc=UTC 로 날짜를 고정합니다.
// clientFoundRows=true 이면 값이 그대로인 UPDATE 도 영향받은 행으로 셉니다.
func (i DBI) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC&charset=utf8mb4&clientFoundRows=true",
		i.User, i.Password, i.Endpoint, i.Port, i.Database)
}

// CreateConnection
func CreateConnection(i DBI) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", i.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
