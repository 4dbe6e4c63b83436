package database

import (
	"fmt"

	"github.com/chronica/backend/internal/config"
	"github.com/chronica/backend/internal/models"
	"github.com/chronica/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedSuperAdmin(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Timeline{},
		&models.Event{},
		&models.LoginLog{},
	)
}

// seedSuperAdmin creates a first super_admin so a fresh install can
// provision real accounts. Only runs against an empty users table.
func seedSuperAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        "admin@chronica.local",
		Username:     "admin",
		PasswordHash: hash,
		FirstName:    "System",
		Surname:      "Admin",
		Role:         models.UserRoleSuperAdmin,
		Timelines:    []string{},
	}

	return db.Create(&admin).Error
}
