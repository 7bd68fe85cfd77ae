package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service category enum constants
const (
	CategoryWebDevelopment = "web_development"
	CategoryMobileApp      = "mobile_app"
	CategoryUIUXDesign     = "ui_ux_design"
	CategoryEcommerce      = "ecommerce"
	CategoryCRMSystem      = "crm_system"
	CategoryERPSystem      = "erp_system"
	CategoryAIML           = "ai_ml"
	CategoryConsulting     = "consulting"
	CategoryMaintenance    = "maintenance"
)

// ServiceCategories lists the catalog categories with display labels.
var ServiceCategories = map[string]string{
	CategoryWebDevelopment: "Web Development",
	CategoryMobileApp:      "Mobile App Development",
	CategoryUIUXDesign:     "UI/UX Design",
	CategoryEcommerce:      "E-commerce Solution",
	CategoryCRMSystem:      "CRM System",
	CategoryERPSystem:      "ERP System",
	CategoryAIML:           "AI/ML Solutions",
	CategoryConsulting:     "IT Consulting",
	CategoryMaintenance:    "Maintenance & Support",
}

// StringList is a JSON array of strings stored in a JSONB column.
type StringList []string

func (l StringList) Value() (driver.Value, error) { return json.Marshal(l) }

func (l *StringList) Scan(value interface{}) error { return scanJSON(value, l) }

// Service is a catalog entry the company offers to customers.
type Service struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Category string    `gorm:"type:varchar(50);not null;default:'web_development';index" json:"category"`

	ShortDescription string `gorm:"type:text" json:"short_description"`
	FullDescription  string `gorm:"type:text" json:"full_description"`

	KeyFeatures   StringList `gorm:"type:jsonb" json:"key_features"`
	ProcessStages StringList `gorm:"type:jsonb" json:"process_stages"`
	Technologies  StringList `gorm:"type:jsonb" json:"technologies"`

	EstimatedDurationMin int              `json:"estimated_duration_min"`
	EstimatedDurationMax int              `json:"estimated_duration_max"`
	PriceRangeMin        *decimal.Decimal `gorm:"type:decimal(14,2)" json:"price_range_min"`
	PriceRangeMax        *decimal.Decimal `gorm:"type:decimal(14,2)" json:"price_range_max"`

	Icon       string `gorm:"type:varchar(50);default:'briefcase'" json:"icon"`
	Thumbnail  string `gorm:"type:varchar(500)" json:"thumbnail"`
	IsActive   bool   `gorm:"not null;default:true;index" json:"is_active"`
	IsFeatured bool   `gorm:"not null;default:false" json:"is_featured"`
	Order      int    `gorm:"not null;default:0" json:"order"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Service) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ServiceRequest status enum constants
const (
	RequestPending   = "pending"
	RequestReviewing = "reviewing"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestConverted = "converted"
)

// ServiceRequest is submitted by a customer for a catalog service; approving
// it converts it into a Project handled by the least-busy sales user.
type ServiceRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceID  uuid.UUID `gorm:"type:uuid;not null;index" json:"service_id"`
	Service    *Service  `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE;" json:"service,omitempty"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Requester  *User     `gorm:"foreignKey:CustomerID" json:"requester,omitempty"`

	ContactName  string `gorm:"type:varchar(255);not null" json:"contact_name"`
	ContactEmail string `gorm:"type:varchar(255);not null" json:"contact_email"`
	ContactPhone string `gorm:"type:varchar(20)" json:"contact_phone"`
	CompanyName  string `gorm:"type:varchar(255)" json:"company_name"`

	SystemUsersCount    int        `gorm:"not null;default:1" json:"system_users_count"`
	RequiredFunctions   StringList `gorm:"type:jsonb" json:"required_functions"`
	SpecialRequirements string     `gorm:"type:text" json:"special_requirements"`
	WorkflowDescription string     `gorm:"type:text" json:"workflow_description"`

	Status    string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ProjectID *uuid.UUID `gorm:"type:uuid" json:"project_id"` // set once converted

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *ServiceRequest) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
