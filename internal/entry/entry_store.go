package entry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"shiftboard/internal/slot"
)

// Repository는 entry 서비스가 사용하는 저장소 동작입니다.
type Repository interface {
	ListByRange(ctx context.Context, instanceID uint64, from, to time.Time) ([]Entry, error)
	ListBySlot(ctx context.Context, instanceID uint64, key slot.Key) ([]Entry, error)
	ListAll(ctx context.Context, instanceID uint64) ([]Entry, error)
	GetByID(ctx context.Context, id uint64) (*Entry, error)
	Create(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uint64) error
}

// Store는 'entries' 테이블의 DB 로직을 관리합니다.
type Store struct {
	db *sqlx.DB
}

// NewStore
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const entryColumns = `id, instance_id, user_id, user_name, entry_date, hour, is_suggested, created_at`

// ListByRange는 [from, to] 날짜 범위의 항목을 반환합니다 (양 끝 포함).
func (s *Store) ListByRange(ctx context.Context, instanceID uint64, from, to time.Time) ([]Entry, error) {
	var entries []Entry
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE instance_id = ? AND entry_date BETWEEN ? AND ?
		ORDER BY entry_date ASC, hour_key ASC, id ASC
	`
	err := s.db.SelectContext(ctx, &entries, query, instanceID,
		from.Format(slot.DateLayout), to.Format(slot.DateLayout))
	if err != nil {
		log.Errorf("ListByRange DB 에러 (InstanceID: %d): %v", instanceID, err)
		return nil, err
	}
	return entries, nil
}

// ListAll은 인스턴스의 모든 항목을 반환합니다 (ICS 내보내기용).
func (s *Store) ListAll(ctx context.Context, instanceID uint64) ([]Entry, error) {
	var entries []Entry
	query := `SELECT ` + entryColumns + ` FROM entries WHERE instance_id = ? ORDER BY entry_date ASC, hour_key ASC, id ASC`
	if err := s.db.SelectContext(ctx, &entries, query, instanceID); err != nil {
		log.Errorf("ListAll DB 에러 (InstanceID: %d): %v", instanceID, err)
		return nil, err
	}
	return entries, nil
}

// ListBySlot은 한 슬롯의 항목(참가자 + 마커)을 반환합니다.
func (s *Store) ListBySlot(ctx context.Context, instanceID uint64, key slot.Key) ([]Entry, error) {
	var entries []Entry
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE instance_id = ? AND entry_date = ? AND hour_key = ?
		ORDER BY id ASC
	`
	err := s.db.SelectContext(ctx, &entries, query, instanceID, key.DateString(), key.Hour)
	if err != nil {
		log.Errorf("ListBySlot DB 에러 (InstanceID: %d, Slot: %s): %v", instanceID, key, err)
		return nil, err
	}
	return entries, nil
}

// GetByID는 항목 1개를 조회합니다. 없으면 (nil, nil)을 반환합니다.
func (s *Store) GetByID(ctx context.Context, id uint64) (*Entry, error) {
	var e Entry
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`
	err := s.db.GetContext(ctx, &e, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("GetByID DB 에러 (ID: %d): %v", id, err)
		return nil, err
	}
	return &e, nil
}

// Create는 새 항목을 INSERT 하고 생성된 ID를 채웁니다.
func (s *Store) Create(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO entries (instance_id, user_id, user_name, entry_date, hour, is_suggested)
		VALUES (:instance_id, :user_id, :user_name, :entry_date, :hour, :is_suggested)
	`
	res, err := s.db.NamedExecContext(ctx, query, e)
	if err != nil {
		log.Errorf("Create entry DB 에러: %v", err)
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = uint64(id)
	}
	return nil
}

// Delete는 항목을 삭제합니다. 이미 없으면 sql.ErrNoRows 를 반환합니다.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		log.Errorf("Delete entry DB 에러 (ID: %d): %v", id, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteOrphans는 인스턴스가 삭제되어 더 이상 접근할 수 없는 항목을 정리합니다.
func (s *Store) DeleteOrphans(ctx context.Context) (int64, error) {
	query := `
		DELETE e FROM entries AS e
		LEFT JOIN instances AS i ON e.instance_id = i.id
		WHERE i.id IS NULL
	`
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		log.Errorf("DeleteOrphans DB 에러: %v", err)
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
