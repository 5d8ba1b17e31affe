package database

import (
	"fmt"

	"bankroll-terminal/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Cascades are explicit, transactional code in the services; no
		// framework-level constraint magic.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return nil
}

// AutoMigrate runs automatic migrations for all ledger models
func AutoMigrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.BankSession{},
		&models.Bet{},
		&models.Post{},
	)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
