package repository

import (
	"context"
	"time"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/gorm"
)

// ChatRepository defines data access for project chat messages.
type ChatRepository interface {
	CreateMessage(ctx context.Context, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, projectID string, limit int) ([]model.ChatMessage, error)
	GetMessage(ctx context.Context, projectID, messageID string) (*model.ChatMessage, error)
	MarkRead(ctx context.Context, messageID string, at time.Time) error
	CountUnread(ctx context.Context, projectID, excludeSenderID string) (int64, error)
	EnsureParticipant(ctx context.Context, projectID, userID string) error
	TouchLastRead(ctx context.Context, projectID, userID string, at time.Time) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	return GetDB(ctx, r.db).Create(msg).Error
}

func (r *chatRepository) ListMessages(ctx context.Context, projectID string, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := GetDB(ctx, r.db).
		Preload("Sender").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *chatRepository) GetMessage(ctx context.Context, projectID, messageID string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := GetDB(ctx, r.db).First(&msg, "id = ? AND project_id = ?", messageID, projectID).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepository) MarkRead(ctx context.Context, messageID string, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.ChatMessage{}).
		Where("id = ? AND is_read = ?", messageID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &at}).Error
}

func (r *chatRepository) CountUnread(ctx context.Context, projectID, excludeSenderID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ChatMessage{}).
		Where("project_id = ? AND is_read = ? AND sender_id <> ?", projectID, false, excludeSenderID).
		Count(&count).Error
	return count, err
}

func (r *chatRepository) EnsureParticipant(ctx context.Context, projectID, userID string) error {
	var existing model.ChatParticipant
	err := GetDB(ctx, r.db).First(&existing, "project_id = ? AND user_id = ?", projectID, userID).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	participant := model.ChatParticipant{}
	pid, perr := parseUUID(projectID)
	if perr != nil {
		return perr
	}
	uid, uerr := parseUUID(userID)
	if uerr != nil {
		return uerr
	}
	participant.ProjectID = pid
	participant.UserID = uid
	return GetDB(ctx, r.db).Create(&participant).Error
}

func (r *chatRepository) TouchLastRead(ctx context.Context, projectID, userID string, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.ChatParticipant{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("last_read_at", &at).Error
}
