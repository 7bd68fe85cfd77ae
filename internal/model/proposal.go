package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Proposal status enum constants
const (
	ProposalDraft       = "draft"
	ProposalSent        = "sent"
	ProposalViewed      = "viewed"
	ProposalAccepted    = "accepted"
	ProposalRejected    = "rejected"
	ProposalNegotiating = "negotiating"
)

// proposalTransitions is the authoritative status machine. Payment progress is
// sub-state on the proposal and its phases, not a status change.
var proposalTransitions = map[string]map[string]bool{
	ProposalDraft:       {ProposalSent: true},
	ProposalSent:        {ProposalViewed: true, ProposalAccepted: true, ProposalNegotiating: true},
	ProposalViewed:      {ProposalAccepted: true, ProposalNegotiating: true},
	ProposalNegotiating: {ProposalAccepted: true, ProposalSent: true},
	ProposalAccepted:    {},
	ProposalRejected:    {},
}

// CanTransition reports whether a proposal may move from one status to another.
func CanTransition(from, to string) bool {
	next, ok := proposalTransitions[from]
	return ok && next[to]
}

// Approval section names. The customer must approve all five before a
// proposal can be accepted.
const (
	SectionAnalysis    = "analysis"
	SectionDeposit     = "deposit"
	SectionPhases      = "phases"
	SectionTeam        = "team"
	SectionCommitments = "commitments"
)

// ApprovalSections lists the sections in display order.
var ApprovalSections = []string{SectionAnalysis, SectionDeposit, SectionPhases, SectionTeam, SectionCommitments}

// CustomerApprovals is the five-flag checklist: {analysis, deposit, phases,
// team, commitments}. Each flag is settable true exactly once through the
// approve-section operation and never reset.
type CustomerApprovals struct {
	Analysis    bool `json:"analysis"`
	Deposit     bool `json:"deposit"`
	Phases      bool `json:"phases"`
	Team        bool `json:"team"`
	Commitments bool `json:"commitments"`
}

// Get returns the flag for a section name.
func (a CustomerApprovals) Get(section string) (bool, error) {
	switch section {
	case SectionAnalysis:
		return a.Analysis, nil
	case SectionDeposit:
		return a.Deposit, nil
	case SectionPhases:
		return a.Phases, nil
	case SectionTeam:
		return a.Team, nil
	case SectionCommitments:
		return a.Commitments, nil
	}
	return false, fmt.Errorf("unknown approval section %q", section)
}

// Set marks a section approved.
func (a *CustomerApprovals) Set(section string) error {
	switch section {
	case SectionAnalysis:
		a.Analysis = true
	case SectionDeposit:
		a.Deposit = true
	case SectionPhases:
		a.Phases = true
	case SectionTeam:
		a.Team = true
	case SectionCommitments:
		a.Commitments = true
	default:
		return fmt.Errorf("unknown approval section %q", section)
	}
	return nil
}

// AllApproved reports whether every section has been approved.
func (a CustomerApprovals) AllApproved() bool {
	return a.Analysis && a.Deposit && a.Phases && a.Team && a.Commitments
}

// Count returns how many sections are approved (out of five).
func (a CustomerApprovals) Count() int {
	n := 0
	for _, s := range ApprovalSections {
		if ok, _ := a.Get(s); ok {
			n++
		}
	}
	return n
}

func (a CustomerApprovals) Value() (driver.Value, error) { return json.Marshal(a) }

func (a *CustomerApprovals) Scan(value interface{}) error { return scanJSON(value, a) }

// Phase is a milestone within a proposal with its own price, duration and
// independent completion/payment sub-state. Phases form a strictly sequential
// pipeline: phase i can only be completed once the deposit is paid and phase
// i-1's payment (if any) is approved.
type Phase struct {
	Name               string          `json:"name" binding:"required"`
	Days               int             `json:"days" binding:"required,min=1"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	PaymentPercentage  int             `json:"payment_percentage"`
	Tasks              string          `json:"tasks"`
	Completed          bool            `json:"completed"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CompletedBy        string          `json:"completed_by,omitempty"`
	PaymentSubmitted   bool            `json:"payment_submitted"`
	PaymentSubmittedAt *time.Time      `json:"payment_submitted_at,omitempty"`
	PaymentApproved    bool            `json:"payment_approved"`
	PaymentApprovedAt  *time.Time      `json:"payment_approved_at,omitempty"`
	PaymentApprovedBy  string          `json:"payment_approved_by,omitempty"`
}

// Phases is the ordered phase list stored as a JSONB column.
type Phases []Phase

func (p Phases) Value() (driver.Value, error) { return json.Marshal(p) }

func (p *Phases) Scan(value interface{}) error { return scanJSON(value, p) }

// AllPaid reports whether every phase's payment has been approved.
func (p Phases) AllPaid() bool {
	if len(p) == 0 {
		return false
	}
	for _, ph := range p {
		if !ph.PaymentApproved {
			return false
		}
	}
	return true
}

// TeamMember is one roster entry on a proposal.
type TeamMember struct {
	Name            string `json:"name" binding:"required"`
	Role            string `json:"role" binding:"required"`
	Rating          int    `json:"rating" binding:"min=0,max=5"`
	ExperienceYears int    `json:"experience_years,omitempty"`
}

type TeamMembers []TeamMember

func (t TeamMembers) Value() (driver.Value, error) { return json.Marshal(t) }

func (t *TeamMembers) Scan(value interface{}) error { return scanJSON(value, t) }

// Deliverable is a commitment entry: what is delivered and the penalty clause
// if the commitment is broken.
type Deliverable struct {
	Description string `json:"description" binding:"required"`
	Penalty     string `json:"penalty"`
}

type Deliverables []Deliverable

func (d Deliverables) Value() (driver.Value, error) { return json.Marshal(d) }

func (d *Deliverables) Scan(value interface{}) error { return scanJSON(value, d) }

// MinDepositAmount is the smallest deposit a proposal may carry (VND).
var MinDepositAmount = decimal.NewFromInt(500000)

// Proposal is a sales-authored offer attached to a project, subject to
// customer section-by-section approval and phase-based payment.
type Proposal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE;" json:"project,omitempty"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`
	Author    *User     `gorm:"foreignKey:CreatedBy" json:"author,omitempty"`

	ProjectAnalysis        string          `gorm:"type:text" json:"project_analysis"`
	TotalPrice             decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_price"`
	Currency               string          `gorm:"type:varchar(3);not null;default:'VND'" json:"currency"`
	EstimatedDurationDays  int             `gorm:"not null;default:0" json:"estimated_duration_days"`

	// Deposit sub-state
	DepositAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"deposit_amount"`
	DepositPaid        bool            `gorm:"not null;default:false" json:"deposit_paid"`
	DepositPaidAt      *time.Time      `json:"deposit_paid_at"`
	DepositApprovedBy  *uuid.UUID      `gorm:"type:uuid" json:"deposit_approved_by"`
	PaymentSubmitted   bool            `gorm:"not null;default:false" json:"payment_submitted"`
	PaymentSubmittedAt *time.Time      `json:"payment_submitted_at"`

	Phases            Phases            `gorm:"type:jsonb" json:"phases"`
	TeamMembers       TeamMembers       `gorm:"type:jsonb" json:"team_members"`
	Deliverables      Deliverables      `gorm:"type:jsonb" json:"deliverables"`
	PaymentTerms      string            `gorm:"type:text" json:"payment_terms"`
	ScopeOfWork       string            `gorm:"type:text" json:"scope_of_work"`
	Status            string            `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CustomerApprovals CustomerApprovals `gorm:"type:jsonb" json:"customer_approvals"`
	CustomerNotes     string            `gorm:"type:text" json:"customer_notes"`
	AcceptedAt        *time.Time        `json:"accepted_at"`
	RejectedAt        *time.Time        `json:"rejected_at"`
	RejectionReason   string            `gorm:"type:text" json:"rejection_reason"`
	ValidUntil        *time.Time        `json:"valid_until"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Proposal) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ValidateForSend checks the content requirements for the draft→sent
// transition. Every section the customer must approve has to carry content.
func (p *Proposal) ValidateForSend() error {
	if p.ProjectAnalysis == "" {
		return errors.New("project analysis is required before sending")
	}
	if !p.DepositAmount.IsPositive() {
		return errors.New("deposit amount must be greater than zero")
	}
	if p.EstimatedDurationDays <= 0 {
		return errors.New("estimated duration must be greater than zero")
	}
	if len(p.Phases) == 0 {
		return errors.New("at least one phase is required")
	}
	if len(p.TeamMembers) == 0 {
		return errors.New("at least one team member is required")
	}
	return nil
}

// scanJSON decodes a JSON database value ([]byte or string) into dst.
func scanJSON(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("unsupported JSON column type %T", value)
}
