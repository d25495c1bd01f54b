package instance

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
	"shiftboard/internal/policy"
	"shiftboard/internal/slot"
)

// maxNameLength는 instances.name 컬럼 길이입니다.
const maxNameLength = 100

// Service는 'instance' 기능의 비즈니스 로직을 담당합니다.
type Service struct {
	store Repository
}

// NewService
func NewService(store Repository) *Service {
	return &Service{store: store}
}

// List는 모든 조회자에게 인스턴스 목록을 반환합니다.
func (s *Service) List(ctx context.Context) ([]Instance, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.StoreFailure("인스턴스 목록 조회", err)
	}
	return list, nil
}

// Get은 인스턴스 1개를 반환합니다.
func (s *Service) Get(ctx context.Context, id uint64) (*Instance, error) {
	inst, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.StoreFailure("인스턴스 조회", err)
	}
	if inst == nil {
		return nil, apperr.ErrNotFound
	}
	return inst, nil
}

// CreateRequest는 인스턴스 생성 요청입니다.
type CreateRequest struct {
	Name     string               `json:"name"`
	Mode     string               `json:"mode"`
	Schedule *slot.ScheduleConfig `json:"schedule,omitempty"`
}

func requireAdmin(viewer policy.Viewer, action string) error {
	if !viewer.IsAdmin() {
		log.Warnf("인스턴스 %s 거부 (Viewer: %s, Role: %s)", action, viewer.ID, viewer.Role)
		return apperr.Denied("관리자만 인스턴스를 " + action + "할 수 있습니다")
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("이름을 입력하세요")
	}
	if len([]rune(name)) > maxNameLength {
		return "", apperr.Invalid("이름은 %d자 이하여야 합니다", maxNameLength)
	}
	return name, nil
}

func encodeSchedule(cfg *slot.ScheduleConfig) (*string, error) {
	if cfg == nil {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	raw, err := cfg.Encode()
	if err != nil {
		return nil, apperr.Invalid("스케줄 설정 변환 실패: %v", err)
	}
	return &raw, nil
}

// Create는 관리자가 새 인스턴스를 만듭니다.
func (s *Service) Create(ctx context.Context, req CreateRequest, viewer policy.Viewer) (*Instance, error) {
	if err := requireAdmin(viewer, "생성"); err != nil {
		return nil, err
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	mode, err := slot.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	config, err := encodeSchedule(req.Schedule)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		Name:      name,
		Mode:      mode,
		Config:    config,
		CreatedID: viewer.ID,
	}
	if err := s.store.Create(ctx, inst); err != nil {
		return nil, apperr.StoreFailure("인스턴스 생성", err)
	}
	log.Infof("인스턴스 생성 (ID: %d, 이름: %s, 모드: %s)", inst.ID, inst.Name, inst.Mode)
	return inst, nil
}

// Rename
func (s *Service) Rename(ctx context.Context, id uint64, name string, viewer policy.Viewer) error {
	if err := requireAdmin(viewer, "수정"); err != nil {
		return err
	}
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	err = s.store.UpdateName(ctx, id, name)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return apperr.StoreFailure("인스턴스 이름 변경", err)
	}
	return nil
}

// ConfigureRequest는 모드/스케줄 설정 변경 요청입니다.
type ConfigureRequest struct {
	Mode     string               `json:"mode"`
	Schedule *slot.ScheduleConfig `json:"schedule,omitempty"`
}

// Configure는 인스턴스의 모드와 주간 반복 구간을 변경합니다.
// Schedule이 nil이면 기본 구간(목 18시-일 19시)으로 돌아갑니다.
func (s *Service) Configure(ctx context.Context, id uint64, req ConfigureRequest, viewer policy.Viewer) (*Instance, error) {
	if err := requireAdmin(viewer, "설정"); err != nil {
		return nil, err
	}
	inst, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	mode, err := slot.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	config, err := encodeSchedule(req.Schedule)
	if err != nil {
		return nil, err
	}

	inst.Mode = mode
	inst.Config = config
	if err := s.store.UpdateConfig(ctx, inst); err != nil {
		return nil, apperr.StoreFailure("인스턴스 설정 변경", err)
	}
	return inst, nil
}

// Delete는 인스턴스와 그 항목을 모두 삭제합니다.
func (s *Service) Delete(ctx context.Context, id uint64, viewer policy.Viewer) error {
	if err := requireAdmin(viewer, "삭제"); err != nil {
		return err
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return apperr.StoreFailure("인스턴스 삭제", err)
	}
	log.Infof("인스턴스 삭제 (ID: %d, 삭제자: %s)", id, viewer.ID)
	return nil
}
