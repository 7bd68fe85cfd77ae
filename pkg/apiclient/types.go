package apiclient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wire types for the portal API. Only the fields the CLI renders or
// validates are listed; unknown fields are ignored on decode.

type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Phase struct {
	Name               string          `json:"name"`
	Days               int             `json:"days"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentPercentage  int             `json:"payment_percentage"`
	Tasks              string          `json:"tasks,omitempty"`
	Completed          bool            `json:"completed"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	PaymentSubmitted   bool            `json:"payment_submitted"`
	PaymentSubmittedAt *time.Time      `json:"payment_submitted_at,omitempty"`
	PaymentApproved    bool            `json:"payment_approved"`
	PaymentApprovedAt  *time.Time      `json:"payment_approved_at,omitempty"`
}

type TeamMember struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Rating int    `json:"rating"`
}

type CustomerApprovals struct {
	Analysis    bool `json:"analysis"`
	Deposit     bool `json:"deposit"`
	Phases      bool `json:"phases"`
	Team        bool `json:"team"`
	Commitments bool `json:"commitments"`
}

type Proposal struct {
	ID                    string            `json:"id"`
	ProjectID             string            `json:"project_id"`
	Status                string            `json:"status"`
	ProjectAnalysis       string            `json:"project_analysis"`
	DepositAmount         decimal.Decimal   `json:"deposit_amount"`
	TotalPrice            decimal.Decimal   `json:"total_price"`
	Currency              string            `json:"currency"`
	EstimatedDurationDays int               `json:"estimated_duration_days"`
	Phases                []Phase           `json:"phases"`
	TeamMembers           []TeamMember      `json:"team_members"`
	CustomerApprovals     CustomerApprovals `json:"customer_approvals"`
	DepositPaid           bool              `json:"deposit_paid"`
	PaymentSubmitted      bool              `json:"payment_submitted"`
	CustomerNotes         string            `json:"customer_notes"`
	RejectionReason       string            `json:"rejection_reason"`
	CreatedAt             time.Time         `json:"created_at"`
}

// Acceptance is the customer's handover decision for a delivered project.
type Acceptance struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"project_id"`
	AcceptanceStatus  string     `json:"acceptance_status"`
	Rating            *int       `json:"rating"`
	Feedback          string     `json:"feedback"`
	Complaint         string     `json:"complaint"`
	RevisionDetails   string     `json:"revision_details"`
	AdminResponse     string     `json:"admin_response"`
	RevisionCompleted bool       `json:"revision_completed"`
	AcceptedAt        *time.Time `json:"accepted_at"`
	RejectedAt        *time.Time `json:"rejected_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

type AcceptanceSubmission struct {
	AcceptanceStatus string `json:"acceptance_status"`
	Rating           *int   `json:"rating,omitempty"`
	Feedback         string `json:"feedback,omitempty"`
	Complaint        string `json:"complaint,omitempty"`
	RevisionDetails  string `json:"revision_details,omitempty"`
	FeatureRequest   string `json:"feature_request,omitempty"`
	UpgradeRequest   string `json:"upgrade_request,omitempty"`
}

type ChatMessage struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	SenderID    string    `json:"sender_id"`
	Sender      *Profile  `json:"sender,omitempty"`
	Message     string    `json:"message"`
	MessageType string    `json:"message_type"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}
