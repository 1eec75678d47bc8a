package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// 排产与状态历史依赖的工序状态编号 1..3：未开始 / 进行中 / 已完成
const requiredStatuses = 3

// RunMigrations 执行数据库迁移并校验工序状态字典
// 库处于 dirty 状态（上次迁移中断）时拒绝启动，需人工修复
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}
	if dirty {
		return fmt.Errorf("数据库迁移版本 %d 处于 dirty 状态", from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	to, _, _ := m.Version()
	if to != from {
		logger.Info("数据库迁移完成", zap.Uint("from", from), zap.Uint("to", to))
	} else {
		logger.Info("数据库已是最新版本", zap.Uint("version", to))
	}

	return checkStatusDictionary(db)
}

// checkStatusDictionary 工序状态字典缺项时排产无法判断工序是否锁定
func checkStatusDictionary(db *sql.DB) error {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(DISTINCT number) FROM operation_statuses WHERE number BETWEEN 1 AND $1",
		requiredStatuses,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("校验工序状态字典失败: %w", err)
	}
	if n != requiredStatuses {
		return fmt.Errorf("工序状态字典不完整: 期望 %d 项，实际 %d 项", requiredStatuses, n)
	}
	return nil
}
