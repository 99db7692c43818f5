package repo

import (
	"gorm.io/gorm"

	"docmanager/internal/domain"
)

// AutoMigrate users / documents 两张表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Document{})
}
