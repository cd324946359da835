package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tracklab/midikit/internal/models"
)

// Connect opens the Postgres connection pool
func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("database connect: %w", err)
	}
	return db, nil
}

// Migrate runs schema migrations for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Composition{},
		&models.MergeLog{},
	)
}
