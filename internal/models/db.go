package models

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bottega-next/internal/config"
)

// DB 全局数据库句柄，InitDB 成功后可用
var DB *gorm.DB

// InitDB 初始化数据库连接并自动迁移
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Pool.ConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.Pool.ConnMaxIdleTimeSeconds) * time.Second)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

// AutoMigrate 迁移全部业务表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Product{},
		&Order{},
		&OrderItem{},
		&DiscountCode{},
		&DiscountRedemption{},
		&AbandonedCart{},
		&Admin{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
