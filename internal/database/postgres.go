package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/models"
)

// ConnectPostgres establishes a connection to the PostgreSQL database, retrying with a linear backoff.
func ConnectPostgres(dsn string, attempts int, logger zerolog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			return db, nil
		}

		lastErr = err
		logger.Warn().Err(err).Int("attempt", attempt).Msg("postgres connection failed")
		if attempt < attempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to postgres: %w", lastErr)
}

// Migrate creates or updates the ledger schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Practitioner{},
		&models.Activity{},
		&models.CreditSubmission{},
		&models.HistoricalPoints{},
		&models.AuditLog{},
	)
}
