package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate 应用数据库结构
// PostgreSQL 走嵌入的 SQL 迁移文件，SQLite 走 gorm AutoMigrate
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if db.Dialector.Name() == "postgres" {
		return runSQLMigrations(db, logger)
	}
	if err := AutoMigrate(db); err != nil {
		return err
	}
	logger.Info("数据库结构同步完成", zap.String("driver", db.Dialector.Name()))
	return nil
}

// AutoMigrate 按模型建表，用于 SQLite 与测试
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("同步数据库结构失败: %w", err)
	}
	return nil
}

func runSQLMigrations(db *gorm.DB, logger *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		logger.Warn("数据库迁移处于 dirty 状态", zap.Uint("version", version))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("version", version))
	}
	return nil
}
