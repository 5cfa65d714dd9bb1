package database

import (
	"fmt"

	"github.com/heartline/heartline/internal/config"
	"github.com/heartline/heartline/internal/models"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the Postgres connection used by every repository
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	DB = db
	logger.Log.Info("Database connected successfully")
	return db, nil
}

// Models lists every persisted entity in dependency order
func Models() []any {
	return []any{
		&models.User{},
		&models.Member{},
		&models.Photo{},
		&models.Like{},
		&models.Message{},
		&models.Token{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		logger.Log.Error("Database migration failed", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Log.Info("Database migration completed")
	return nil
}
