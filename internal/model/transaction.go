package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType enum constants
const (
	TxTypeDeposit    = "deposit"
	TxTypePhase      = "phase"
	TxTypeRefund     = "refund"
	TxTypeAdjustment = "adjustment"
)

// TransactionStatus enum constants
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
	TxCancelled = "cancelled"
)

// Transaction records every payment event: deposit and phase submissions go in
// as pending and are completed or cancelled by the approval workflow.
type Transaction struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Project    *Project   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE;" json:"project,omitempty"`
	ProposalID *uuid.UUID `gorm:"type:uuid;index" json:"proposal_id"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`

	Type   string          `gorm:"type:varchar(20);not null;default:'deposit';index" json:"type"`
	Status string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Amount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`

	// Phase reference, set only for phase payments
	PhaseIndex *int   `json:"phase_index"`
	PhaseName  string `gorm:"type:varchar(255)" json:"phase_name"`

	PaymentMethod string     `gorm:"type:varchar(50);not null;default:'bank_transfer'" json:"payment_method"`
	Reference     string     `gorm:"type:varchar(255)" json:"reference"`
	Description   string     `gorm:"type:text" json:"description"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	CompletedAt   *time.Time `json:"completed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
