package entry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
	"shiftboard/internal/instance"
	"shiftboard/internal/metrics"
	"shiftboard/internal/policy"
	"shiftboard/internal/slot"
)

// (MySQL 'Duplicate entry' 에러 코드)
const ErrMySQLDuplicateEntry = 1062

// 유니크 인덱스 이름 (00001_init.sql)
const (
	occupantIndex = "udx_entries_occupant"
	markerIndex   = "udx_entries_marker"
)

const maxNameLength = 100

// InstanceLookup은 항목이 속한 인스턴스를 조회합니다. instance.Service가 구현합니다.
type InstanceLookup interface {
	Get(ctx context.Context, id uint64) (*instance.Instance, error)
}

// Options는 서비스의 시계/타임존/월 이동 범위 설정입니다.
type Options struct {
	Location      *time.Location
	HistoryMonths int
	Now           func() time.Time
}

// Service는 'entry' 기능의 비즈니스 로직을 담당합니다.
// 모든 거부(권한/보관/중복)는 저장소 호출 전에 판정합니다.
type Service struct {
	store     Repository
	instances InstanceLookup
	loc       *time.Location
	nav       slot.Navigator
	now       func() time.Time
}

// NewService
func NewService(store Repository, instances InstanceLookup, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     store,
		instances: instances,
		loc:       opts.Location,
		nav:       slot.Navigator{HistoryMonths: opts.HistoryMonths},
		now:       opts.Now,
	}
}

// clock은 설정된 타임존 기준의 현재 시각입니다.
func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Location
func (s *Service) Location() *time.Location { return s.loc }

// SlotRequest는 슬롯을 지정하는 요청 본문입니다. hour는 스케줄 모드에서만 보냅니다.
type SlotRequest struct {
	Date string `json:"date"`
	Hour *int   `json:"hour,omitempty"`
}

// AddRequest는 참가자 추가 요청입니다. name이 비어 있으면 조회자 이름을 사용합니다.
type AddRequest struct {
	SlotRequest
	Name string `json:"name"`
}

// resolveSlot은 요청 키를 검증합니다.
// 일 단위 키는 이동 가능한 달 안, 시 단위 키는 이번 주 스케줄 구간 안이어야 합니다.
func (s *Service) resolveSlot(ctx context.Context, instanceID uint64, req SlotRequest, now time.Time) (*instance.Instance, slot.Key, error) {
	inst, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, slot.Key{}, err
	}
	key, err := slot.ParseKey(req.Date, req.Hour)
	if err != nil {
		return nil, slot.Key{}, err
	}

	if !key.Hourly() {
		if !s.nav.Reachable(key.Date, now) {
			return nil, slot.Key{}, apperr.Invalid("이동할 수 없는 달의 날짜입니다: %s", key)
		}
		return inst, key, nil
	}

	cfg, err := inst.Schedule()
	if err != nil {
		return nil, slot.Key{}, err
	}
	window, err := slot.NewWindow(cfg, now)
	if err != nil {
		return nil, slot.Key{}, apperr.Invalid("스케줄 구간 계산 실패: %v", err)
	}
	if !window.Contains(key) {
		return nil, slot.Key{}, apperr.Invalid("이번 주 스케줄 구간(%s ~ %s)에 없는 칸입니다: %s",
			window.Start.Format("01-02 15:04"), window.End.Format("01-02 15:04"), key)
	}
	return inst, key, nil
}

func isDuplicate(err error, index string) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == ErrMySQLDuplicateEntry {
		return strings.Contains(mysqlErr.Message, index)
	}
	return false
}

func splitSlot(entries []Entry) (occupants []Entry, marker *Entry) {
	for i := range entries {
		if entries[i].IsSuggested {
			if marker == nil {
				marker = &entries[i]
			}
			continue
		}
		occupants = append(occupants, entries[i])
	}
	return occupants, marker
}

// AddOccupant는 슬롯에 이름을 추가합니다.
func (s *Service) AddOccupant(ctx context.Context, instanceID uint64, req AddRequest, viewer policy.Viewer) (e *Entry, err error) {
	defer func() { metrics.ObserveMutation("add", err) }()
	now := s.clock()

	// 1. 슬롯 검증
	_, key, err := s.resolveSlot(ctx, instanceID, req.SlotRequest, now)
	if err != nil {
		return nil, err
	}

	// 2. 보관 여부
	if !policy.CanMutate(key.Date, viewer.EffectiveRole(), now) {
		log.Warnf("보관된 슬롯 추가 거부 (Instance: %d, Slot: %s, Viewer: %s)", instanceID, key, viewer.ID)
		return nil, apperr.ErrArchivedLocked
	}

	// 3. 이름 결정
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(viewer.Name)
	}
	if name == "" {
		return nil, apperr.Invalid("이름을 입력하세요")
	}
	if len([]rune(name)) > maxNameLength {
		return nil, apperr.Invalid("이름은 %d자 이하여야 합니다", maxNameLength)
	}

	// 4. 중복 이름 (대소문자 구분)
	existing, err := s.store.ListBySlot(ctx, instanceID, key)
	if err != nil {
		return nil, apperr.StoreFailure("슬롯 조회", err)
	}
	occupants, _ := splitSlot(existing)
	for _, o := range occupants {
		if o.UserName == name {
			return nil, apperr.ErrDuplicateName
		}
	}

	// 5. 저장 (동시 추가는 유니크 인덱스가 막습니다)
	e = &Entry{
		InstanceID: instanceID,
		UserID:     viewer.ID,
		UserName:   name,
		Date:       key.Date,
		Hour:       key.HourPtr(),
	}
	if err := s.store.Create(ctx, e); err != nil {
		if isDuplicate(err, occupantIndex) {
			return nil, apperr.ErrDuplicateName
		}
		return nil, apperr.StoreFailure("참가자 추가", err)
	}
	log.Infof("참가자 추가 (Instance: %d, Slot: %s, Name: %s, Viewer: %s)", instanceID, key, name, viewer.ID)
	return e, nil
}

// RemoveOccupant는 참가자 항목 1개를 삭제합니다.
// 작성자 본인, admin, reviewer만 삭제할 수 있습니다. 추천 표시는 ToggleSuggest로만 지웁니다.
func (s *Service) RemoveOccupant(ctx context.Context, entryID uint64, viewer policy.Viewer) (err error) {
	defer func() { metrics.ObserveMutation("remove", err) }()
	now := s.clock()

	e, err := s.store.GetByID(ctx, entryID)
	if err != nil {
		return apperr.StoreFailure("항목 조회", err)
	}
	if e == nil || e.IsSuggested {
		return apperr.ErrNotFound
	}

	if !policy.CanMutate(e.Date, viewer.EffectiveRole(), now) {
		log.Warnf("보관된 항목 삭제 거부 (Entry: %d, Viewer: %s)", entryID, viewer.ID)
		return apperr.ErrArchivedLocked
	}
	if !viewer.CanRemove(e.UserID) {
		log.Warnf("항목 삭제 권한 없음 (Entry: %d, Owner: %s, Viewer: %s, Role: %s)", entryID, e.UserID, viewer.ID, viewer.Role)
		return apperr.Denied("본인이 등록한 이름만 삭제할 수 있습니다")
	}

	err = s.store.Delete(ctx, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return apperr.StoreFailure("참가자 삭제", err)
	}
	log.Infof("참가자 삭제 (Entry: %d, Slot: %s, Viewer: %s)", entryID, e.Key(), viewer.ID)
	return nil
}

// ToggleSuggest는 슬롯의 추천 표시를 켜거나 끕니다 (admin 전용).
// 변경 후의 추천 상태를 반환합니다. 참가자 항목은 건드리지 않습니다.
func (s *Service) ToggleSuggest(ctx context.Context, instanceID uint64, req SlotRequest, viewer policy.Viewer) (suggested bool, err error) {
	defer func() { metrics.ObserveMutation("suggest", err) }()

	if !viewer.IsAdmin() {
		log.Warnf("추천 토글 거부 (Viewer: %s, Role: %s)", viewer.ID, viewer.Role)
		return false, apperr.Denied("관리자만 추천할 수 있습니다")
	}

	_, key, err := s.resolveSlot(ctx, instanceID, req, s.clock())
	if err != nil {
		return false, err
	}

	existing, err := s.store.ListBySlot(ctx, instanceID, key)
	if err != nil {
		return false, apperr.StoreFailure("슬롯 조회", err)
	}

	// 1. 추천 해제
	if _, marker := splitSlot(existing); marker != nil {
		err := s.store.Delete(ctx, marker.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return true, apperr.StoreFailure("추천 해제", err)
		}
		log.Infof("추천 해제 (Instance: %d, Slot: %s, Viewer: %s)", instanceID, key, viewer.ID)
		return false, nil
	}

	// 2. 추천 설정
	marker := &Entry{
		InstanceID:  instanceID,
		UserID:      viewer.ID,
		UserName:    SystemAuthor,
		Date:        key.Date,
		Hour:        key.HourPtr(),
		IsSuggested: true,
	}
	if err := s.store.Create(ctx, marker); err != nil {
		if isDuplicate(err, markerIndex) {
			// 다른 관리자가 먼저 추천했습니다.
			return true, nil
		}
		return false, apperr.StoreFailure("추천 설정", err)
	}
	log.Infof("추천 설정 (Instance: %d, Slot: %s, Viewer: %s)", instanceID, key, viewer.ID)
	return true, nil
}
