package repository

import (
	"fmt"
	"time"

	"backend/internal/app/ds"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Автоматическая миграция всех таблиц
	err = db.AutoMigrate(
		&ds.User{},
		&ds.QuoteRequest{},
		&ds.Product{},
		&ds.Attachment{},
		&ds.HistoryEntry{},
		&ds.DesignBlock{},
		&ds.CostingBlock{},
		&ds.SalesBlock{},
		&ds.SalesPaymentTerm{},
		&ds.ClientOfferLine{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{
		db:  db,
		now: time.Now,
	}, nil
}
