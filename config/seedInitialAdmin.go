package config

import (
	"errors"
	"fmt"
	"log"
	"visa-portal-backend/db/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedInitialAdmin creates a single admin officer for initial system access
func SeedInitialAdmin(db *gorm.DB) error {
	adminEmail := GetEnv("INITIAL_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@visaportal.local"
	}

	// First check if the admin already exists
	var existing models.User
	err := db.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		log.Printf("[SEED] Initial admin already exists: %s", adminEmail)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up initial admin: %w", err)
	}

	password := GetEnv("INITIAL_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
		log.Println("[SEED] INITIAL_ADMIN_PASSWORD not set, using development default")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := models.User{
		ID:        uuid.New(),
		FirstName: "System",
		LastName:  "Administrator",
		Email:     adminEmail,
		Password:  string(hashedPassword),
		Role:      models.AdminRole,
		Active:    true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create initial admin: %w", err)
	}

	log.Printf("[SEED] Initial admin created: %s", adminEmail)
	return nil
}
