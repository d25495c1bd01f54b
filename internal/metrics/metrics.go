package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"shiftboard/internal/apperr"
)

var (
	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftboard_mutations_total",
			Help: "Slot mutations by operation and result",
		},
		[]string{"op", "result"},
	)
	janitorRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shiftboard_janitor_removed_entries_total",
			Help: "Orphan entries removed by the janitor",
		},
	)
	noticesMirrored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftboard_notice_mirror_total",
			Help: "Notices mirrored to Slack",
		},
		[]string{"status"},
	)
)

// RegisterMetrics는 기본 레지스트리에 수집기를 등록합니다. main에서 한 번만 호출합니다.
func RegisterMetrics() {
	prometheus.MustRegister(mutations, janitorRemoved, noticesMirrored)
}

// Result는 에러를 메트릭 라벨로 변환합니다.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, apperr.ErrArchivedLocked):
		return "archived"
	case errors.Is(err, apperr.ErrDuplicateName):
		return "duplicate"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrInvalidInput):
		return "invalid"
	}
	return "store_failure"
}

// ObserveMutation은 슬롯 변경 시도 1건을 기록합니다.
func ObserveMutation(op string, err error) {
	mutations.WithLabelValues(op, Result(err)).Inc()
}

// ObserveJanitor
func ObserveJanitor(removed int64) {
	janitorRemoved.Add(float64(removed))
}

// ObserveNoticeMirror
func ObserveNoticeMirror(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	noticesMirrored.WithLabelValues(status).Inc()
}
