package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ManualEntryRequest records a refund or adjustment outside the proposal
// workflow, e.g. returning part of a deposit after a cancellation.
type ManualEntryRequest struct {
	ProjectID     string          `json:"project_id" binding:"required"`
	Type          string          `json:"type" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference"`
	PaymentMethod string          `json:"payment_method"`
}

// FinanceSummary feeds the admin dashboard money widgets.
type FinanceSummary struct {
	TotalCollected decimal.Decimal `json:"total_collected"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	DepositRevenue decimal.Decimal `json:"deposit_revenue"`
	PhaseRevenue   decimal.Decimal `json:"phase_revenue"`
	PendingReviews int             `json:"pending_reviews"`
	CompletedCount int             `json:"completed_count"`
}

// ProjectFinance summarizes one project's payment progress.
type ProjectFinance struct {
	ProjectID     string              `json:"project_id"`
	ContractValue decimal.Decimal     `json:"contract_value"`
	DepositAmount decimal.Decimal     `json:"deposit_amount"`
	DepositPaid   bool                `json:"deposit_paid"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	RemainingDue  decimal.Decimal     `json:"remaining_due"`
	PhasesPaid    int                 `json:"phases_paid"`
	PhasesTotal   int                 `json:"phases_total"`
	Transactions  []model.Transaction `json:"transactions"`
}

// FinanceService aggregates the transaction ledger for dashboards.
type FinanceService interface {
	ListTransactions(ctx context.Context, actor Actor, filter repository.TransactionFilter) ([]model.Transaction, int64, error)
	RecordEntry(ctx context.Context, actor Actor, req ManualEntryRequest) (*model.Transaction, error)
	Summary(ctx context.Context, actor Actor) (*FinanceSummary, error)
	ProjectSummary(ctx context.Context, actor Actor, projectID string) (*ProjectFinance, error)
}

type financeService struct {
	transactions repository.TransactionRepository
	proposals    repository.ProposalRepository
	projectSvc   ProjectService
}

func NewFinanceService(transactions repository.TransactionRepository, proposals repository.ProposalRepository, projectSvc ProjectService) FinanceService {
	return &financeService{transactions: transactions, proposals: proposals, projectSvc: projectSvc}
}

func (s *financeService) ListTransactions(ctx context.Context, actor Actor, filter repository.TransactionFilter) ([]model.Transaction, int64, error) {
	if !isSalesSide(actor) {
		return nil, 0, ErrForbidden
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.transactions.List(ctx, filter)
}

// RecordEntry books a settled refund or adjustment against a project. The
// workflow-driven deposit and phase rows never go through here.
func (s *financeService) RecordEntry(ctx context.Context, actor Actor, req ManualEntryRequest) (*model.Transaction, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if req.Type != model.TxTypeRefund && req.Type != model.TxTypeAdjustment {
		return nil, fmt.Errorf("type must be %s or %s", model.TxTypeRefund, model.TxTypeAdjustment)
	}
	if req.Amount.IsZero() {
		return nil, errors.New("amount must be non-zero")
	}

	project, err := s.projectSvc.Get(ctx, actor, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Customer == nil {
		return nil, errors.New("project has no customer profile")
	}
	approver, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid actor id: %w", err)
	}

	method := req.PaymentMethod
	if method == "" {
		method = "bank_transfer"
	}
	now := time.Now()
	entry := &model.Transaction{
		ProjectID:     project.ID,
		CustomerID:    project.Customer.UserID,
		Type:          req.Type,
		Status:        model.TxCompleted,
		Amount:        req.Amount,
		PaymentMethod: method,
		Reference:     req.Reference,
		Description:   req.Description,
		ApprovedBy:    &approver,
		CompletedAt:   &now,
	}
	if err := s.transactions.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *financeService) Summary(ctx context.Context, actor Actor) (*FinanceSummary, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	// The ledger stays small enough to aggregate in one sweep; revisit with
	// SQL aggregates if transaction volume ever grows past that.
	all, _, err := s.transactions.List(ctx, repository.TransactionFilter{Page: 1, Limit: 10000})
	if err != nil {
		return nil, err
	}

	summary := &FinanceSummary{
		TotalCollected: decimal.Zero,
		PendingAmount:  decimal.Zero,
		DepositRevenue: decimal.Zero,
		PhaseRevenue:   decimal.Zero,
	}
	for _, tx := range all {
		switch tx.Status {
		case model.TxCompleted:
			summary.TotalCollected = summary.TotalCollected.Add(tx.Amount)
			summary.CompletedCount++
			switch tx.Type {
			case model.TxTypeDeposit:
				summary.DepositRevenue = summary.DepositRevenue.Add(tx.Amount)
			case model.TxTypePhase:
				summary.PhaseRevenue = summary.PhaseRevenue.Add(tx.Amount)
			}
		case model.TxPending:
			summary.PendingAmount = summary.PendingAmount.Add(tx.Amount)
			summary.PendingReviews++
		}
	}
	return summary, nil
}

func (s *financeService) ProjectSummary(ctx context.Context, actor Actor, projectID string) (*ProjectFinance, error) {
	project, err := s.projectSvc.Get(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	result := &ProjectFinance{
		ProjectID:     project.ID.String(),
		ContractValue: decimal.Zero,
		DepositAmount: decimal.Zero,
		PaidAmount:    decimal.Zero,
		RemainingDue:  decimal.Zero,
	}

	// The latest accepted proposal carries the contract figures.
	proposals, err := s.proposals.ListByProject(ctx, projectID, false)
	if err != nil {
		return nil, err
	}
	for i := range proposals {
		p := &proposals[i]
		if p.Status != model.ProposalAccepted {
			continue
		}
		result.ContractValue = p.TotalPrice
		result.DepositAmount = p.DepositAmount
		result.DepositPaid = p.DepositPaid
		result.PhasesTotal = len(p.Phases)
		for _, phase := range p.Phases {
			if phase.PaymentApproved {
				result.PhasesPaid++
			}
		}
		break
	}

	txs, _, err := s.transactions.List(ctx, repository.TransactionFilter{ProjectID: projectID, Page: 1, Limit: 1000})
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if tx.Status == model.TxCompleted {
			result.PaidAmount = result.PaidAmount.Add(tx.Amount)
		}
	}
	result.Transactions = txs
	if result.ContractValue.GreaterThan(decimal.Zero) {
		result.RemainingDue = result.ContractValue.Sub(result.PaidAmount)
		if result.RemainingDue.IsNegative() {
			result.RemainingDue = decimal.Zero
		}
	}
	return result, nil
}
