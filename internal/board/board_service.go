package board

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup" // (여러 DB 조회를 병렬로 처리하기 위함)

	"shiftboard/internal/apperr"
	"shiftboard/internal/entry"
	"shiftboard/internal/instance"
	"shiftboard/internal/notice"
	"shiftboard/internal/policy"
	"shiftboard/internal/slot"
)

// InstanceLister
type InstanceLister interface {
	List(ctx context.Context) ([]instance.Instance, error)
}

// NoticeLister
type NoticeLister interface {
	List(ctx context.Context) ([]notice.View, error)
}

// SlotBoards는 선택된 인스턴스의 화면을 만듭니다. entry.Service가 구현합니다.
type SlotBoards interface {
	CalendarBoard(ctx context.Context, instanceID uint64, month string, viewer policy.Viewer) (*entry.CalendarBoard, error)
	ScheduleBoard(ctx context.Context, instanceID uint64, viewer policy.Viewer) (*entry.ScheduleBoard, error)
}

// Data는 첫 화면에 필요한 데이터 묶음입니다.
type Data struct {
	Instances  []instance.Instance  `json:"instances"`
	Notices    []notice.View        `json:"notices"`
	InstanceID uint64               `json:"instance_id,omitempty"` // 0이면 인스턴스가 없습니다
	View       slot.Mode            `json:"view,omitempty"`
	Calendar   *entry.CalendarBoard `json:"calendar,omitempty"`
	Schedule   *entry.ScheduleBoard `json:"schedule,omitempty"`
}

// Request는 화면 선택 값입니다. 비어 있는 값은 기본값으로 채워집니다.
type Request struct {
	InstanceID uint64
	View       string
	Month      string
}

// Service는 보드 첫 화면 데이터 조회를 담당합니다.
type Service struct {
	instances InstanceLister
	notices   NoticeLister
	boards    SlotBoards
}

// NewService
func NewService(instances InstanceLister, notices NoticeLister, boards SlotBoards) *Service {
	return &Service{instances: instances, notices: notices, boards: boards}
}

// Load는 인스턴스/공지 목록을 병렬로 조회한 뒤 선택된 인스턴스의 화면을 만듭니다.
// 요청한 인스턴스가 없으면 첫 번째 인스턴스를 선택합니다.
func (s *Service) Load(ctx context.Context, req Request, viewer policy.Viewer) (*Data, error) {
	data := Data{Instances: []instance.Instance{}, Notices: []notice.View{}}
	eg, egCtx := errgroup.WithContext(ctx)

	// 고루틴 1: 인스턴스 목록
	eg.Go(func() error {
		list, err := s.instances.List(egCtx)
		if err != nil {
			log.Errorf("Load: 인스턴스 목록 조회 실패: %v", err)
			return err
		}
		if list != nil {
			data.Instances = list
		}
		return nil
	})

	// 고루틴 2: 공지 목록
	eg.Go(func() error {
		views, err := s.notices.List(egCtx)
		if err != nil {
			log.Errorf("Load: 공지 목록 조회 실패: %v", err)
			return err
		}
		if views != nil {
			data.Notices = views
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 1. 인스턴스 선택
	selected := pick(data.Instances, req.InstanceID)
	if selected == nil {
		return &data, nil
	}
	data.InstanceID = selected.ID

	// 2. 보기 모드 선택 (요청 값이 잘못되었으면 인스턴스 기본 모드)
	data.View = selected.Mode
	if req.View != "" {
		if mode, err := slot.ParseMode(req.View); err == nil {
			data.View = mode
		}
	}

	// 3. 화면 구성
	switch data.View {
	case slot.ModeSchedule:
		board, err := s.boards.ScheduleBoard(ctx, selected.ID, viewer)
		if err != nil {
			return nil, err
		}
		data.Schedule = board
	default:
		board, err := s.boards.CalendarBoard(ctx, selected.ID, req.Month, viewer)
		if errors.Is(err, apperr.ErrInvalidInput) && req.Month != "" {
			// 저장된 월이 이동 범위를 벗어나면 이번 달로 돌아갑니다.
			log.Warnf("Load: 월(%s) 조회 불가, 이번 달로 대체: %v", req.Month, err)
			board, err = s.boards.CalendarBoard(ctx, selected.ID, "", viewer)
		}
		if err != nil {
			return nil, err
		}
		data.Calendar = board
	}
	return &data, nil
}

func pick(list []instance.Instance, id uint64) *instance.Instance {
	if len(list) == 0 {
		return nil
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return &list[0]
}
