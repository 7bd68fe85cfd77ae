package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TemplatePhase is a predefined phase inside a project template; percentages
// split the template price across phases.
type TemplatePhase struct {
	Name         string `json:"name" binding:"required"`
	DurationDays int    `json:"duration_days" binding:"required,min=1"`
	Percentage   int    `json:"percentage" binding:"min=0,max=100"`
	Description  string `json:"description"`
}

type TemplatePhases []TemplatePhase

func (p TemplatePhases) Value() (driver.Value, error) { return json.Marshal(p) }

func (p *TemplatePhases) Scan(value interface{}) error { return scanJSON(value, p) }

// TeamStructure maps a role label to the planned headcount.
type TeamStructure map[string]int

func (t TeamStructure) Value() (driver.Value, error) { return json.Marshal(t) }

func (t *TeamStructure) Scan(value interface{}) error { return scanJSON(value, t) }

// ProjectTemplate is an admin-curated blueprint customers can pick when
// requesting a project.
type ProjectTemplate struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"type:varchar(50);not null;default:'web_development';index" json:"category"`
	Icon        string    `gorm:"type:varchar(100)" json:"icon"`

	PriceMin *decimal.Decimal `gorm:"type:decimal(14,0)" json:"price_min"`
	PriceMax *decimal.Decimal `gorm:"type:decimal(14,0)" json:"price_max"` // nil renders as "contact us"

	EstimatedDurationMin int `json:"estimated_duration_min"`
	EstimatedDurationMax int `json:"estimated_duration_max"`

	KeyFeatures   StringList     `gorm:"type:jsonb" json:"key_features"`
	Deliverables  StringList     `gorm:"type:jsonb" json:"deliverables"`
	Technologies  StringList     `gorm:"type:jsonb" json:"technologies"`
	Phases        TemplatePhases `gorm:"type:jsonb" json:"phases"`
	TeamStructure TeamStructure  `gorm:"type:jsonb" json:"team_structure"`

	IsActive     bool `gorm:"not null;default:true;index" json:"is_active"`
	DisplayOrder int  `gorm:"not null;default:0" json:"display_order"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *ProjectTemplate) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
