package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Acceptance status enum constants
const (
	AcceptancePending  = "pending"
	AcceptanceAccepted = "accepted"
	AcceptanceRejected = "rejected" // revisions requested
)

// ProjectFeedback records the customer's handover decision once every phase
// is paid: accept with a rating, or request revisions with a complaint. One
// row per project and customer; the customer may revise it until the project
// leaves pending_acceptance for good.
type ProjectFeedback struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_feedback" json:"project_id"`
	Project    *Project  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE;" json:"-"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_feedback" json:"customer_id"`
	Customer   *User     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	AcceptanceStatus string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"acceptance_status"`
	AcceptedAt       *time.Time `json:"accepted_at"`
	RejectedAt       *time.Time `json:"rejected_at"`

	// Rating is 1 to 5 stars, required when accepting.
	Rating   *int   `json:"rating"`
	Feedback string `gorm:"type:text" json:"feedback"`

	Complaint       string `gorm:"type:text" json:"complaint"`
	RevisionDetails string `gorm:"type:text" json:"revision_details"`
	FeatureRequest  string `gorm:"type:text" json:"feature_request"`
	UpgradeRequest  string `gorm:"type:text" json:"upgrade_request"`

	AdminResponse    string     `gorm:"type:text" json:"admin_response"`
	AdminRespondedAt *time.Time `json:"admin_responded_at"`
	RespondedByID    *uuid.UUID `gorm:"type:uuid" json:"responded_by_id"`
	RespondedBy      *User      `gorm:"foreignKey:RespondedByID" json:"responded_by,omitempty"`

	RevisionCompleted   bool       `gorm:"not null;default:false" json:"revision_completed"`
	RevisionCompletedAt *time.Time `json:"revision_completed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *ProjectFeedback) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
