package instance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// Repository는 instance 서비스가 사용하는 저장소 동작입니다.
type Repository interface {
	List(ctx context.Context) ([]Instance, error)
	GetByID(ctx context.Context, id uint64) (*Instance, error)
	Create(ctx context.Context, inst *Instance) error
	UpdateName(ctx context.Context, id uint64, name string) error
	UpdateConfig(ctx context.Context, inst *Instance) error
	Delete(ctx context.Context, id uint64) error
}

// Store
type Store struct {
	db *sqlx.DB
}

// NewStore
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const instanceColumns = `id, name, mode, config, created_id, created_at, updated_at`

// List는 모든 인스턴스를 생성 순서대로 반환합니다.
func (s *Store) List(ctx context.Context) ([]Instance, error) {
	var list []Instance
	query := `SELECT ` + instanceColumns + ` FROM instances ORDER BY created_at ASC, id ASC`
	if err := s.db.SelectContext(ctx, &list, query); err != nil {
		log.Errorf("List instances DB 에러: %v", err)
		return nil, err
	}
	return list, nil
}

// GetByID는 없으면 (nil, nil)을 반환합니다.
func (s *Store) GetByID(ctx context.Context, id uint64) (*Instance, error) {
	var inst Instance
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE id = ?`
	if err := s.db.GetContext(ctx, &inst, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("GetByID instance DB 에러 (ID: %d): %v", id, err)
		return nil, err
	}
	return &inst, nil
}

// Create
func (s *Store) Create(ctx context.Context, inst *Instance) error {
	query := `
		INSERT INTO instances (name, mode, config, created_id)
		VALUES (:name, :mode, :config, :created_id)
	`
	res, err := s.db.NamedExecContext(ctx, query, inst)
	if err != nil {
		log.Errorf("Create instance DB 에러: %v", err)
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		inst.ID = uint64(id)
	}
	return nil
}

// UpdateName
func (s *Store) UpdateName(ctx context.Context, id uint64, name string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE instances SET name = ? WHERE id = ?", name, id)
	if err != nil {
		log.Errorf("UpdateName instance DB 에러 (ID: %d): %v", id, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateConfig는 모드와 스케줄 설정을 변경합니다.
func (s *Store) UpdateConfig(ctx context.Context, inst *Instance) error {
	query := `UPDATE instances SET mode = :mode, config = :config WHERE id = :id`
	if _, err := s.db.NamedExecContext(ctx, query, inst); err != nil {
		log.Errorf("UpdateConfig instance DB 에러 (ID: %d): %v", inst.ID, err)
		return err
	}
	return nil
}

// Delete는 트랜잭션으로 인스턴스의 항목과 인스턴스를 함께 삭제합니다.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		log.Errorf("Delete instance 트랜잭션 시작 실패: %v", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE instance_id = ?", id); err != nil {
		log.Errorf("Delete instance (항목 삭제) 실패 (ID: %d): %v", id, err)
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM instances WHERE id = ?", id)
	if err != nil {
		log.Errorf("Delete instance (인스턴스 삭제) 실패 (ID: %d): %v", id, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
