package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project status enum constants
const (
	ProjectNegotiation       = "negotiation"        // initial phase, proposal being discussed
	ProjectDeposit           = "deposit"            // proposal accepted, waiting for deposit payment
	ProjectInProgress        = "in_progress"        // active development after deposit approved
	ProjectOnHold            = "on_hold"
	ProjectPendingAcceptance = "pending_acceptance" // all phases paid, waiting for customer acceptance
	ProjectRevisionRequired  = "revision_required"
	ProjectCompleted         = "completed"
	ProjectCancelled         = "cancelled"
)

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectNegotiation, ProjectDeposit, ProjectInProgress, ProjectOnHold,
		ProjectPendingAcceptance, ProjectRevisionRequired, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Project priority enum constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Project is a software project tying together a customer, a managing sales
// user, assigned developers, and its proposals.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`

	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE;" json:"customer,omitempty"`
	ManagerID  *uuid.UUID `gorm:"type:uuid;index" json:"manager_id"`
	Manager    *User      `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`

	Developers []User `gorm:"many2many:project_developers;" json:"developers,omitempty"`

	Status   string `gorm:"type:varchar(30);not null;default:'negotiation';index" json:"status"`
	Priority string `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`

	StartDate *time.Time       `json:"start_date"`
	EndDate   *time.Time       `json:"end_date"`
	Budget    *decimal.Decimal `gorm:"type:decimal(14,2)" json:"budget"`

	RepositoryURL string `gorm:"type:varchar(500)" json:"repository_url"`
	StagingURL    string `gorm:"type:varchar(500)" json:"staging_url"`
	ProductionURL string `gorm:"type:varchar(500)" json:"production_url"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Project) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
