package notice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// Repository
type Repository interface {
	List(ctx context.Context) ([]Notice, error)
	GetByID(ctx context.Context, id uint64) (*Notice, error)
	Create(ctx context.Context, n *Notice) error
	Delete(ctx context.Context, id uint64) error
}

// Store는 'notices' 테이블의 DB 로직을 관리합니다.
type Store struct {
	db *sqlx.DB
}

// NewStore는 새 Store를 생성합니다.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// List는 공지를 최신순으로 반환합니다.
func (s *Store) List(ctx context.Context) ([]Notice, error) {
	var notices []Notice
	query := `
		SELECT id, created_id, title, description, color, created_at
		FROM notices
		ORDER BY created_at DESC, id DESC
	`
	if err := s.db.SelectContext(ctx, &notices, query); err != nil {
		log.Errorf("List notices DB 에러: %v", err)
		return nil, err
	}
	return notices, nil
}

// GetByID는 공지 1개를 조회합니다. 없으면 (nil, nil)을 반환합니다.
func (s *Store) GetByID(ctx context.Context, id uint64) (*Notice, error) {
	var n Notice
	query := `SELECT id, created_id, title, description, color, created_at FROM notices WHERE id = ?`
	if err := s.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("GetByID notice DB 에러 (ID: %d): %v", id, err)
		return nil, err
	}
	return &n, nil
}

// Create는 공지를 INSERT 하고 ID와 생성 시각을 채웁니다.
func (s *Store) Create(ctx context.Context, n *Notice) error {
	query := `
		INSERT INTO notices (created_id, title, description, color)
		VALUES (:created_id, :title, :description, :color)
	`
	res, err := s.db.NamedExecContext(ctx, query, n)
	if err != nil {
		log.Errorf("Create notice DB 에러: %v", err)
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)

	// created_at은 DB 기본값이므로 다시 읽습니다.
	if saved, err := s.GetByID(ctx, n.ID); err == nil && saved != nil {
		n.CreatedAt = saved.CreatedAt
	}
	return nil
}

// Delete는 공지를 삭제합니다. 없으면 sql.ErrNoRows 를 반환합니다.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notices WHERE id = ?", id)
	if err != nil {
		log.Errorf("Delete notice DB 에러 (ID: %d): %v", id, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
