package apperr

import (
	"errors"
	"fmt"
)

// 요청 단위 실패를 구분하기 위한 센티널 에러입니다.
// 스토어 실패를 제외한 나머지는 모두 스토어 호출 전에 로컬에서 판정됩니다.
var (
	ErrPermissionDenied = errors.New("권한 없음")
	ErrArchivedLocked   = errors.New("보관 처리된 날짜는 수정할 수 없습니다")
	ErrDuplicateName    = errors.New("이미 같은 이름이 등록되어 있습니다")
	ErrStoreFailure     = errors.New("저장소 처리 중 오류가 발생했습니다")
	ErrNotFound         = errors.New("대상을 찾을 수 없습니다")
	ErrInvalidInput     = errors.New("입력 값이 올바르지 않습니다")
)

// StoreFailure는 스토어 에러를 ErrStoreFailure로 감쌉니다.
// errors.Is(err, ErrStoreFailure)로 판별할 수 있고, 원본 에러는 메시지에 남습니다.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w (%s): %v", ErrStoreFailure, op, err)
}

// Invalid는 사유를 포함한 ErrInvalidInput을 반환합니다.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Denied는 사유를 포함한 ErrPermissionDenied를 반환합니다.
func Denied(reason string) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, reason)
}
