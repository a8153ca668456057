package repositories

import (
	"errors"
	"fmt"
	"time"

	"visa-portal-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	GetMessageByID(id uuid.UUID) (*models.Message, error)
	GetMessagesByApplicationID(applicationID uuid.UUID, pageSize, offset int) ([]models.Message, error)
	GetMessagesForOfficer(officerID uuid.UUID) ([]models.Message, error)
	CreateMessage(message *models.Message) (*models.Message, error)
	MarkMessageRead(id uuid.UUID) (*models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) GetMessageByID(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return &message, nil
}

// GetMessagesByApplicationID returns one page of the thread. No ordering
// is promised here; the thread service sorts before display.
func (r *messageRepository) GetMessagesByApplicationID(applicationID uuid.UUID, pageSize, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Preload("Sender").
		Where("application_id = ?", applicationID).
		Limit(pageSize).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return messages, nil
}

// GetMessagesForOfficer returns every message on a case the officer is
// assigned to, for the inbox grouping view.
func (r *messageRepository) GetMessagesForOfficer(officerID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Preload("Sender").
		Preload("Application").
		Joins("JOIN applications ON applications.id = messages.application_id").
		Where("applications.assigned_officer_id = ?", officerID).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch officer messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) CreateMessage(message *models.Message) (*models.Message, error) {
	if err := r.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	if err := r.db.Preload("Sender").First(message, "id = ?", message.ID).Error; err != nil {
		return nil, nil
	}
	return message, nil
}

// MarkMessageRead flips is_read to true. The guarded WHERE keeps a repeat
// call from moving read_at; the flag never goes back to false.
func (r *messageRepository) MarkMessageRead(id uuid.UUID) (*models.Message, error) {
	result := r.db.Model(&models.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", result.Error)
	}

	var message models.Message
	if err := r.db.Preload("Sender").First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, nil
	}
	return &message, nil
}
