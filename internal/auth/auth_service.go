package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"net/mail"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"shiftboard/internal/apperr"
	"shiftboard/internal/policy"
)

// (MySQL 'Duplicate entry' 에러 코드)
const ErrMySQLDuplicateEntry = 1062

// OTP 발급자 이름 (인증 앱에 표시됩니다)
const otpIssuer = "Shiftboard"

// LoginStatus는 로그인 상태 식별을 위한 상수입니다.
type LoginStatus int

const (
	StatusUserNotFound        LoginStatus = iota // 0: 사용자를 찾을 수 없음
	StatusPendingVerification                    // 1: 관리자 승인 대기 중
	StatusRequiresOtpSetup                       // 2: 최초 로그인 (OTP 등록 필요)
	StatusRequiresOtp                            // 3: 일반 로그인 (OTP 인증 필요)
)

// String
func (s LoginStatus) String() string {
	switch s {
	case StatusPendingVerification:
		return "pending"
	case StatusRequiresOtpSetup:
		return "otp_setup"
	case StatusRequiresOtp:
		return "otp_verify"
	}
	return "not_found"
}

// Service는 'auth' 기능의 비즈니스 로직을 담당합니다.
type Service struct {
	store Repository
	now   func() time.Time
}

// NewService는 Store를 받아 새 Service를 생성합니다.
func NewService(store Repository) *Service {
	return &Service{store: store, now: time.Now}
}

// RegisterRequest는 가입 요청 데이터입니다.
type RegisterRequest struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// RegisterUser는 신규 사용자를 승인 대기 상태로 등록합니다.
func (s *Service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	// 1. 입력 검증
	name := strings.TrimSpace(req.UserName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, apperr.Invalid("이름과 이메일을 입력하세요")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("이메일 형식이 올바르지 않습니다: %s", email)
	}

	// 2. 모델 변환 (신규 가입자는 subscriber, 관리자 승인 대기)
	newUser := &User{
		UserName:       name,
		Email:          email,
		PrivilegesType: string(policy.RoleSubscriber),
		VerifyYn:       false,
	}

	// 3. 저장
	if err := s.store.CreateUser(ctx, newUser); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == ErrMySQLDuplicateEntry && strings.Contains(mysqlErr.Message, "udx_users_01") {
			return nil, fmt.Errorf("%w: 이미 가입된 이메일입니다 (%s)", apperr.ErrDuplicateName, email)
		}
		return nil, apperr.StoreFailure("사용자 등록", err)
	}
	return newUser, nil
}

// CheckLoginStatus는 이메일을 받아 사용자의 로그인 상태를 분기합니다.
func (s *Service) CheckLoginStatus(ctx context.Context, email string) (LoginStatus, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// 1. 이메일로 사용자 조회
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return StatusUserNotFound, nil, apperr.StoreFailure("로그인 사용자 조회", err)
	}

	// 2. 사용자가 존재하지 않음
	if user == nil {
		log.Infof("로그인 실패: 존재하지 않는 이메일 (%s)", email)
		return StatusUserNotFound, nil, nil
	}

	// 3. 관리자 승인 대기 중
	if !user.VerifyYn {
		log.Infof("로그인 거부: 승인 대기 (%s)", email)
		return StatusPendingVerification, nil, nil
	}

	// 4. 최초 로그인 (OTP 등록 필요)
	if user.OtpCode == nil {
		log.Infof("로그인 시도: 최초 로그인 (OTP 등록 필요) (%s)", email)
		return StatusRequiresOtpSetup, user, nil
	}

	// 5. 일반 로그인 (OTP 인증 필요)
	log.Infof("로그인 시도: 일반 로그인 (OTP 인증 필요) (%s)", email)
	return StatusRequiresOtp, user, nil
}

// GetUserByEmail
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.StoreFailure("사용자 조회", err)
	}
	if user == nil {
		return nil, apperr.ErrNotFound
	}
	return user, nil
}

// GenerateOTP는 (1)Base32 비밀 키, (2)Base64 QR 이미지를 생성합니다.
func (s *Service) GenerateOTP(email string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: email,
	})
	if err != nil {
		log.Errorf("TOTP Key 생성 실패: %v", err)
		return "", "", err
	}

	var buf bytes.Buffer
	img, err := key.Image(200, 200)
	if err != nil {
		log.Errorf("TOTP QR 이미지 생성 실패: %v", err)
		return "", "", err
	}
	if err := png.Encode(&buf, img); err != nil {
		return "", "", err
	}
	return key.Secret(), base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ValidateOTP는 시간 오차를 허용하여 코드를 검증합니다.
func (s *Service) ValidateOTP(passcode string, secretKey string) bool {
	// Skew 1: 앞뒤 30초씩 (총 90초) 허용
	opts := totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
	valid, err := totp.ValidateCustom(strings.TrimSpace(passcode), secretKey, s.now(), opts)
	if err != nil {
		log.Warnf("OTP 검증 중 에러: %v", err)
		return false
	}
	return valid
}

// FinalizeOTPSetup은 'secretKey'를 DB에 영구 저장합니다.
func (s *Service) FinalizeOTPSetup(ctx context.Context, email string, secretKey string) error {
	if err := s.store.UpdateUserOTP(ctx, email, secretKey); err != nil {
		return apperr.StoreFailure("OTP 저장", err)
	}
	return nil
}

// RecordLogin은 로그인 성공 시각을 남깁니다. 실패해도 로그인은 진행됩니다.
func (s *Service) RecordLogin(ctx context.Context, userID uint64) {
	if err := s.store.TouchLogin(ctx, userID); err != nil {
		log.Warnf("로그인 시각 갱신 실패 (ID: %d): %v", userID, err)
	}
}

// AdminPageData는 관리자 사용자 화면에 필요한 데이터입니다.
type AdminPageData struct {
	PendingUsers  []User `json:"pending_users"`
	VerifiedUsers []User `json:"verified_users"`
}

// GetAdminPageData는 승인 대기/승인 사용자 목록을 병렬로 조회합니다.
func (s *Service) GetAdminPageData(ctx context.Context, viewer policy.Viewer) (*AdminPageData, error) {
	if !viewer.IsAdmin() {
		return nil, apperr.Denied("관리자만 사용자 목록을 조회할 수 있습니다")
	}

	data := AdminPageData{PendingUsers: []User{}, VerifiedUsers: []User{}}
	eg, egCtx := errgroup.WithContext(ctx)

	// 고루틴 1: 승인 대기 사용자 조회
	eg.Go(func() error {
		users, err := s.store.GetPendingUsers(egCtx)
		if err != nil {
			return err
		}
		if users != nil {
			data.PendingUsers = users
		}
		return nil
	})

	// 고루틴 2: 승인된 사용자 조회
	eg.Go(func() error {
		users, err := s.store.GetAllVerifiedUsers(egCtx)
		if err != nil {
			return err
		}
		if users != nil {
			data.VerifiedUsers = users
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, apperr.StoreFailure("관리자 사용자 목록 조회", err)
	}
	return &data, nil
}

// ApproveUser는 관리자가 특정 사용자를 승인합니다.
func (s *Service) ApproveUser(ctx context.Context, viewer policy.Viewer, userID uint64) error {
	if !viewer.IsAdmin() {
		return apperr.Denied("사용자 승인은 관리자만 가능합니다")
	}
	err := s.store.ApproveUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: 사용자(ID: %d)가 없거나 이미 승인되었습니다", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return apperr.StoreFailure("사용자 승인", err)
	}
	log.Infof("사용자 승인 (ID: %d, 승인자: %s)", userID, viewer.ID)
	return nil
}

// ChangeUserPrivilege는 관리자가 사용자의 역할을 변경합니다. 자기 자신의 역할은 바꿀 수 없습니다.
func (s *Service) ChangeUserPrivilege(ctx context.Context, viewer policy.Viewer, userID uint64, newRole string) error {
	// 1. 권한 확인
	if !viewer.IsAdmin() {
		return apperr.Denied("관리자만 권한을 변경할 수 있습니다")
	}

	// 2. 유효성 검사
	role := policy.Role(strings.ToLower(strings.TrimSpace(newRole)))
	if !role.Assignable() {
		return apperr.Invalid("유효하지 않은 권한입니다: %s", newRole)
	}
	if viewer.ID == fmt.Sprint(userID) {
		return apperr.Invalid("자기 자신의 권한은 변경할 수 없습니다")
	}

	// 3. 저장
	err := s.store.UpdateUserPrivilege(ctx, userID, string(role))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: 사용자(ID: %d)", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return apperr.StoreFailure("권한 변경", err)
	}
	log.Infof("사용자 권한 변경 (ID: %d, 권한: %s, 변경자: %s)", userID, role, viewer.ID)
	return nil
}
