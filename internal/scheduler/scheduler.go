package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/metrics"
)

// DefaultExpr는 정리 작업 기본 주기입니다.
const DefaultExpr = "@daily"

const runTimeout = 2 * time.Minute

// OrphanCleaner는 인스턴스가 사라진 항목을 지웁니다. entry.Store가 구현합니다.
type OrphanCleaner interface {
	DeleteOrphans(ctx context.Context) (int64, error)
}

// Scheduler
type Scheduler struct {
	cron    *cron.Cron
	cleaner OrphanCleaner
	expr    string
}

// NewScheduler
func NewScheduler(cleaner OrphanCleaner, expr string) *Scheduler {
	if expr == "" {
		expr = DefaultExpr
	}
	return &Scheduler{
		cron:    cron.New(),
		cleaner: cleaner,
		expr:    expr,
	}
}

// Start는 잘못된 cron 표현식이면 에러를 반환합니다.
func (s *Scheduler) Start() error {
	log.Info("-----------------------------------------")
	log.Infof("항목 정리 스케줄러가 시작됩니다 (주기: %s)", s.expr)
	if _, err := s.cron.AddFunc(s.expr, s.cleanOrphans); err != nil {
		return fmt.Errorf("스케줄 등록 실패 (%s): %w", s.expr, err)
	}
	s.cron.Start()
	log.Info("-----------------------------------------")
	return nil
}

// Stop은 실행 중인 작업이 끝날 때까지 기다립니다.
func (s *Scheduler) Stop() {
	log.Info("항목 정리 스케줄러가 중지됩니다...")
	<-s.cron.Stop().Done()
}

// RunOnce는 정리 작업을 한 번 실행하고 삭제한 항목 수를 반환합니다.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	removed, err := s.cleaner.DeleteOrphans(ctx)
	if err != nil {
		return 0, err
	}
	metrics.ObserveJanitor(removed)
	return removed, nil
}

func (s *Scheduler) cleanOrphans() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	removed, err := s.RunOnce(ctx)
	if err != nil {
		log.Errorf("[Scheduler] 고아 항목 정리 실패: %v", err)
		return
	}
	if removed == 0 {
		log.Debug("[Scheduler] 정리할 항목이 없습니다.")
		return
	}
	log.Infof("[Scheduler] 인스턴스가 삭제된 항목 %d 건을 정리했습니다.", removed)
}
