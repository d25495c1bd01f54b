package notice

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"shiftboard/internal/apperr"
	"shiftboard/internal/metrics"
	"shiftboard/internal/policy"
)

const maxTitleLength = 200

// Service는 'notice' 기능의 비즈니스 로직을 담당합니다.
type Service struct {
	store     Repository
	announcer Announcer
}

// NewService는 새 Service를 생성합니다. announcer가 nil이면 외부 발송을 하지 않습니다.
func NewService(store Repository, announcer Announcer) *Service {
	return &Service{store: store, announcer: announcer}
}

// List는 모든 조회자에게 공지를 최신순으로 반환합니다.
func (s *Service) List(ctx context.Context) ([]View, error) {
	notices, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.StoreFailure("공지 목록 조회", err)
	}
	views := make([]View, 0, len(notices))
	for _, n := range notices {
		n.Color = n.Color.Normalize()
		views = append(views, View{Notice: n, ColorName: n.Color.Name()})
	}
	return views, nil
}

// CreateRequest는 공지 생성 요청입니다.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Create는 관리자가 공지를 등록합니다.
// 외부 발송 실패는 로그만 남기고 등록 결과에는 영향을 주지 않습니다.
func (s *Service) Create(ctx context.Context, req CreateRequest, viewer policy.Viewer) (*Notice, error) {
	if !viewer.IsAdmin() {
		log.Warnf("공지 생성 거부 (Viewer: %s, Role: %s)", viewer.ID, viewer.Role)
		return nil, apperr.Denied("관리자만 공지를 등록할 수 있습니다")
	}

	// 1. 입력 검증
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Invalid("제목을 입력하세요")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, apperr.Invalid("제목은 %d자 이하여야 합니다", maxTitleLength)
	}
	color := Color(req.Color)
	if !color.Valid() {
		return nil, apperr.Invalid("알 수 없는 색상입니다: %d", req.Color)
	}

	// 2. 저장
	n := &Notice{
		CreatedID:   viewer.ID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Color:       color,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, apperr.StoreFailure("공지 등록", err)
	}
	log.Infof("공지 등록 (ID: %d, 제목: %s)", n.ID, n.Title)

	// 3. 외부 발송
	if s.announcer != nil {
		err := s.announcer.Announce(ctx, *n)
		metrics.ObserveNoticeMirror(err)
		if err != nil {
			log.Errorf("공지(ID: %d) 외부 발송 실패: %v", n.ID, err)
		}
	}
	return n, nil
}

// Delete는 관리자가 공지를 삭제합니다.
func (s *Service) Delete(ctx context.Context, id uint64, viewer policy.Viewer) error {
	if !viewer.IsAdmin() {
		log.Warnf("공지 삭제 거부 (Viewer: %s, Role: %s)", viewer.ID, viewer.Role)
		return apperr.Denied("관리자만 공지를 삭제할 수 있습니다")
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return apperr.StoreFailure("공지 삭제", err)
	}
	log.Infof("공지 삭제 (ID: %d, 삭제자: %s)", id, viewer.ID)
	return nil
}
