package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// Repository는 auth 서비스가 사용하는 저장소 동작입니다.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserOTP(ctx context.Context, email, otpSecret string) error
	TouchLogin(ctx context.Context, userID uint64) error
	GetPendingUsers(ctx context.Context) ([]User, error)
	GetAllVerifiedUsers(ctx context.Context) ([]User, error)
	ApproveUser(ctx context.Context, userID uint64) error
	UpdateUserPrivilege(ctx context.Context, userID uint64, role string) error
}

// Store
type Store struct {
	db *sqlx.DB
}

// NewStore
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, user_name, email, otp_code, privileges_type, last_login_dt, verify_yn, created_at, updated_at`

// CreateUser
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			user_name, email, privileges_type, verify_yn, otp_code
		) VALUES (
			:user_name, :email, :privileges_type, :verify_yn, :otp_code
		)`
	res, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		log.Errorf("CreateUser DB 에러: %v", err)
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		user.ID = uint64(id)
	}
	log.Infof("신규 사용자 DB 저장 성공: %s", user.Email)
	return nil
}

// GetUserByEmail은 없으면 (nil, nil)을 반환합니다.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("GetUserByEmail DB 에러: %v", err)
		return nil, err
	}
	return &user, nil
}

// UpdateUserOTP
func (s *Store) UpdateUserOTP(ctx context.Context, email, otpSecret string) error {
	query := `UPDATE users SET otp_code = ?, last_login_dt = ? WHERE email = ?`
	if _, err := s.db.ExecContext(ctx, query, otpSecret, time.Now(), email); err != nil {
		log.Errorf("UpdateUserOTP DB 에러: %v", err)
		return err
	}
	log.Infof("사용자 OTP 코드 저장 성공: %s", email)
	return nil
}

// TouchLogin은 마지막 로그인 시각을 갱신합니다.
func (s *Store) TouchLogin(ctx context.Context, userID uint64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_dt = ? WHERE id = ?`, time.Now(), userID); err != nil {
		log.Errorf("TouchLogin DB 에러 (ID: %d): %v", userID, err)
		return err
	}
	return nil
}

// GetPendingUsers는 승인 대기 중인 사용자 목록을 반환합니다.
func (s *Store) GetPendingUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := `SELECT ` + userColumns + ` FROM users WHERE verify_yn = FALSE ORDER BY created_at ASC`
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		log.Errorf("GetPendingUsers DB 에러: %v", err)
		return nil, err
	}
	return users, nil
}

// GetAllVerifiedUsers는 이미 승인된 사용자 목록을 반환합니다.
func (s *Store) GetAllVerifiedUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := `SELECT ` + userColumns + ` FROM users WHERE verify_yn = TRUE ORDER BY last_login_dt DESC`
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		log.Errorf("GetAllVerifiedUsers DB 에러: %v", err)
		return nil, err
	}
	return users, nil
}

// ApproveUser는 특정 사용자의 'verify_yn'을 TRUE로 변경합니다.
func (s *Store) ApproveUser(ctx context.Context, userID uint64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET verify_yn = TRUE WHERE id = ? AND verify_yn = FALSE`, userID)
	if err != nil {
		log.Errorf("ApproveUser DB 에러: %v", err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateUserPrivilege는 사용자의 역할(admin/reviewer/subscriber)을 변경합니다.
func (s *Store) UpdateUserPrivilege(ctx context.Context, userID uint64, role string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET privileges_type = ? WHERE id = ?`, role, userID)
	if err != nil {
		log.Errorf("UpdateUserPrivilege DB 에러: %v", err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
