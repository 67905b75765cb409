package models

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bottega-next/internal/logger"
)

// InitDefaultAdmin 初始化默认管理员账号（仅在不存在时创建）
func InitDefaultAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var existing Admin
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("query admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := Admin{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Infow("default_admin_created", "username", username)
	return nil
}
