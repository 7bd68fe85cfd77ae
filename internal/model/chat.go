package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message type enum constants
const (
	MessageText   = "text"
	MessageFile   = "file"
	MessageSystem = "system"
)

// Attachments is a list of file URLs stored as a JSONB column.
type Attachments []string

func (a Attachments) Value() (driver.Value, error) { return json.Marshal(a) }

func (a *Attachments) Scan(value interface{}) error { return scanJSON(value, a) }

// ChatMessage is a message in a project's conversation between the customer
// and the team. Delivery is poll-based: clients list on an interval.
type ChatMessage struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"project_id"`
	Project     *Project    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE;" json:"-"`
	SenderID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"sender_id"`
	Sender      *User       `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Message     string      `gorm:"type:text;not null" json:"message"`
	MessageType string      `gorm:"type:varchar(20);not null;default:'text'" json:"message_type"`
	Attachments Attachments `gorm:"type:jsonb" json:"attachments"`
	IsRead      bool        `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt      *time.Time  `json:"read_at"`
	CreatedAt   time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ChatParticipant tracks who takes part in a project chat and when they last
// caught up, which backs the unread count.
type ChatParticipant struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_participant" json:"project_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_chat_participant" json:"user_id"`
	LastReadAt *time.Time `json:"last_read_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *ChatParticipant) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
