package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate는 내장된 스키마 마이그레이션을 모두 적용합니다.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("goose dialect 설정 실패: %w", err)
	}

	log.Info("DB 마이그레이션을 적용합니다...")
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("마이그레이션 적용 실패: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("마이그레이션 버전 조회 실패: %w", err)
	}
	log.Infof("DB 마이그레이션 완료 (version: %d)", version)
	return nil
}
