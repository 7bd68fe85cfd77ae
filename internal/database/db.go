package database

import (
	"log"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate auto-migrates every model the portal persists. Tests reuse this
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Customer{},
		&model.Project{},
		&model.ProjectFeedback{},
		&model.Proposal{},
		&model.Transaction{},
		&model.ChatMessage{},
		&model.ChatParticipant{},
		&model.Service{},
		&model.ServiceRequest{},
		&model.ProjectTemplate{},
	)
}
