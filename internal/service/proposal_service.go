package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/qr"
	"github.com/hungle-gif/operisbe/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Workflow errors. Handlers map these to 400; ErrForbidden maps to 403.
var (
	ErrProposalNotFound        = errors.New("proposal not found")
	ErrNotDraft                = errors.New("proposal has already been sent")
	ErrAlreadyResponded        = errors.New("proposal already responded to")
	ErrNotAccepted             = errors.New("proposal must be accepted first")
	ErrSectionAlreadyApproved  = errors.New("section already approved")
	ErrDepositTooSmall         = errors.New("deposit amount must be at least 500,000 VND")
	ErrApprovalsIncomplete     = errors.New("all five sections must be approved before payment")
	ErrDepositAlreadySubmitted = errors.New("deposit payment already submitted")
	ErrDepositAlreadyPaid      = errors.New("deposit already paid")
	ErrDepositNotSubmitted     = errors.New("no deposit payment submission to review")
	ErrDepositUnpaid           = errors.New("deposit must be paid before starting phases")
	ErrPhaseIndex              = errors.New("invalid phase index")
	ErrPhaseAlreadyCompleted   = errors.New("phase already marked as completed")
	ErrPreviousPhaseUnpaid     = errors.New("previous phase payment must be approved first")
	ErrPhaseNotCompleted       = errors.New("phase must be completed by the sales team first")
	ErrPhaseAlreadySubmitted   = errors.New("phase payment already submitted")
	ErrPhaseAlreadyApproved    = errors.New("payment already approved for this phase")
	ErrPhaseNotSubmitted       = errors.New("no phase payment submission to review")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
)

// DTOs

type CreateProposalRequest struct {
	ProjectAnalysis       string             `json:"project_analysis"`
	DepositAmount         decimal.Decimal    `json:"deposit_amount" binding:"required"`
	TotalPrice            decimal.Decimal    `json:"total_price"`
	Currency              string             `json:"currency"`
	EstimatedDurationDays int                `json:"estimated_duration_days"`
	Phases                model.Phases       `json:"phases" binding:"dive"`
	TeamMembers           model.TeamMembers  `json:"team_members" binding:"dive"`
	Deliverables          model.Deliverables `json:"deliverables" binding:"dive"`
	PaymentTerms          string             `json:"payment_terms"`
	ScopeOfWork           string             `json:"scope_of_work"`
	ValidUntil            *time.Time         `json:"valid_until"`
}

// UpdateProposalRequest carries full-section replacements; nil sections are
// left untouched.
type UpdateProposalRequest struct {
	ProjectAnalysis       *string             `json:"project_analysis"`
	DepositAmount         *decimal.Decimal    `json:"deposit_amount"`
	TotalPrice            *decimal.Decimal    `json:"total_price"`
	EstimatedDurationDays *int                `json:"estimated_duration_days"`
	Phases                *model.Phases       `json:"phases" binding:"omitempty,dive"`
	TeamMembers           *model.TeamMembers  `json:"team_members" binding:"omitempty,dive"`
	Deliverables          *model.Deliverables `json:"deliverables" binding:"omitempty,dive"`
	PaymentTerms          *string             `json:"payment_terms"`
	ScopeOfWork           *string             `json:"scope_of_work"`
	ValidUntil            *time.Time          `json:"valid_until"`
}

type CustomerResponseRequest struct {
	CustomerNotes   string `json:"customer_notes"`
	RejectionReason string `json:"rejection_reason"`
}

// ProposalService drives the proposal lifecycle and its payment sub-states.
// Every mutation re-reads the proposal under a row lock inside a database
// transaction, so duplicate submissions are rejected instead of re-applied.
type ProposalService interface {
	Create(ctx context.Context, actor Actor, projectID string, req CreateProposalRequest) (*model.Proposal, error)
	ListByProject(ctx context.Context, actor Actor, projectID string) ([]model.Proposal, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Proposal, error)
	Update(ctx context.Context, actor Actor, id string, req UpdateProposalRequest) (*model.Proposal, error)
	Send(ctx context.Context, actor Actor, id string) (*model.Proposal, error)
	ApproveSection(ctx context.Context, actor Actor, id, section string) (*model.Proposal, error)
	Accept(ctx context.Context, actor Actor, id string, req CustomerResponseRequest) (*model.Proposal, error)
	Reject(ctx context.Context, actor Actor, id string, req CustomerResponseRequest) (*model.Proposal, error)
	SubmitDepositPayment(ctx context.Context, actor Actor, id string) (*model.Proposal, error)
	ApproveDepositPayment(ctx context.Context, actor Actor, id string) (*model.Proposal, error)
	RejectDepositPayment(ctx context.Context, actor Actor, id string) (*model.Proposal, error)
	CompletePhase(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error)
	SubmitPhasePayment(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error)
	ApprovePhasePayment(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error)
	RejectPhasePayment(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error)
	PaymentQR(ctx context.Context, actor Actor, id string, phaseIndex *int) (string, error)
}

type proposalService struct {
	proposals    repository.ProposalRepository
	projects     repository.ProjectRepository
	transactions repository.TransactionRepository
	txm          repository.TransactionManager
	projectSvc   ProjectService
	events       EventPublisher
	qrAccount    qr.Account
}

func NewProposalService(
	proposals repository.ProposalRepository,
	projects repository.ProjectRepository,
	transactions repository.TransactionRepository,
	txm repository.TransactionManager,
	projectSvc ProjectService,
	events EventPublisher,
	qrAccount qr.Account,
) ProposalService {
	return &proposalService{
		proposals:    proposals,
		projects:     projects,
		transactions: transactions,
		txm:          txm,
		projectSvc:   projectSvc,
		events:       events,
		qrAccount:    qrAccount,
	}
}

func isSalesSide(actor Actor) bool {
	return actor.Role == model.RoleSales || actor.Role == model.RoleAdmin
}

// customerOwns reports whether the actor is the customer behind the
// proposal's project.
func (s *proposalService) customerOwns(ctx context.Context, actor Actor, proposal *model.Proposal) bool {
	if actor.Role != model.RoleCustomer {
		return false
	}
	project, err := s.projects.GetByID(ctx, proposal.ProjectID.String())
	if err != nil || project.Customer == nil {
		return false
	}
	return project.Customer.UserID.String() == actor.ID
}

func (s *proposalService) Create(ctx context.Context, actor Actor, projectID string, req CreateProposalRequest) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, errors.New("project not found")
	}

	if req.DepositAmount.LessThan(model.MinDepositAmount) {
		return nil, ErrDepositTooSmall
	}

	authorID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid actor id: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "VND"
	}

	// Total price and duration derive from phases unless given explicitly.
	total := req.TotalPrice
	duration := req.EstimatedDurationDays
	if total.IsZero() || duration == 0 {
		sum := decimal.Zero
		days := 0
		for _, p := range req.Phases {
			sum = sum.Add(p.Amount)
			days += p.Days
		}
		if total.IsZero() {
			total = sum
		}
		if duration == 0 {
			duration = days
		}
	}

	proposal := &model.Proposal{
		ProjectID:             project.ID,
		CreatedBy:             authorID,
		ProjectAnalysis:       req.ProjectAnalysis,
		DepositAmount:         req.DepositAmount,
		TotalPrice:            total,
		Currency:              currency,
		EstimatedDurationDays: duration,
		Phases:                req.Phases,
		TeamMembers:           req.TeamMembers,
		Deliverables:          req.Deliverables,
		PaymentTerms:          req.PaymentTerms,
		ScopeOfWork:           req.ScopeOfWork,
		ValidUntil:            req.ValidUntil,
		Status:                model.ProposalDraft,
	}
	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, err
	}
	return s.proposals.GetByID(ctx, proposal.ID.String())
}

func (s *proposalService) ListByProject(ctx context.Context, actor Actor, projectID string) ([]model.Proposal, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, errors.New("project not found")
	}
	if !s.projectSvc.CanAccess(ctx, actor, project) {
		return nil, ErrForbidden
	}
	// Customers never see drafts; they get a waiting placeholder instead.
	includeDrafts := actor.Role != model.RoleCustomer
	return s.proposals.ListByProject(ctx, projectID, includeDrafts)
}

func (s *proposalService) Get(ctx context.Context, actor Actor, id string) (*model.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrProposalNotFound
	}

	if actor.Role == model.RoleCustomer {
		if !s.customerOwns(ctx, actor, proposal) {
			return nil, ErrForbidden
		}
		if proposal.Status == model.ProposalDraft {
			return nil, ErrForbidden
		}
		// First customer view flips sent → viewed.
		if proposal.Status == model.ProposalSent {
			err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
				locked, err := s.proposals.GetForUpdate(txCtx, id)
				if err != nil {
					return err
				}
				if locked.Status != model.ProposalSent {
					return nil
				}
				locked.Status = model.ProposalViewed
				return s.proposals.Update(txCtx, locked)
			})
			if err != nil {
				return nil, err
			}
			return s.proposals.GetByID(ctx, id)
		}
	}

	return proposal, nil
}

func (s *proposalService) Update(ctx context.Context, actor Actor, id string, req UpdateProposalRequest) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		proposal, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if proposal.Status == model.ProposalAccepted || proposal.Status == model.ProposalRejected {
			return errors.New("cannot update accepted or rejected proposal")
		}

		if req.ProjectAnalysis != nil {
			proposal.ProjectAnalysis = *req.ProjectAnalysis
		}
		if req.DepositAmount != nil {
			if req.DepositAmount.LessThan(model.MinDepositAmount) {
				return ErrDepositTooSmall
			}
			proposal.DepositAmount = *req.DepositAmount
		}
		if req.TotalPrice != nil {
			proposal.TotalPrice = *req.TotalPrice
		}
		if req.EstimatedDurationDays != nil {
			proposal.EstimatedDurationDays = *req.EstimatedDurationDays
		}
		if req.Phases != nil {
			proposal.Phases = *req.Phases
		}
		if req.TeamMembers != nil {
			proposal.TeamMembers = *req.TeamMembers
		}
		if req.Deliverables != nil {
			proposal.Deliverables = *req.Deliverables
		}
		if req.PaymentTerms != nil {
			proposal.PaymentTerms = *req.PaymentTerms
		}
		if req.ScopeOfWork != nil {
			proposal.ScopeOfWork = *req.ScopeOfWork
		}
		if req.ValidUntil != nil {
			proposal.ValidUntil = req.ValidUntil
		}

		return s.proposals.Update(txCtx, proposal)
	})
	if err != nil {
		return nil, err
	}
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) Send(ctx context.Context, actor Actor, id string) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		proposal, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if proposal.Status != model.ProposalDraft {
			return ErrNotDraft
		}
		if err := proposal.ValidateForSend(); err != nil {
			return err
		}
		proposal.Status = model.ProposalSent
		return s.proposals.Update(txCtx, proposal)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventProposalSent, map[string]string{"proposal_id": id})
	return s.proposals.GetByID(ctx, id)
}

// ApproveSection marks one of the five checklist flags. The flag must
// currently be false; an already-approved section is rejected without any
// state change. When the fifth flag lands the proposal runs the single
// authoritative accept transition.
func (s *proposalService) ApproveSection(ctx context.Context, actor Actor, id, section string) (*model.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrProposalNotFound
	}
	if !s.customerOwns(ctx, actor, proposal) {
		return nil, ErrForbidden
	}

	accepted := false
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if locked.Status == model.ProposalDraft || locked.Status == model.ProposalRejected {
			return ErrForbidden
		}

		already, err := locked.CustomerApprovals.Get(section)
		if err != nil {
			return err
		}
		if already {
			return ErrSectionAlreadyApproved
		}
		if err := locked.CustomerApprovals.Set(section); err != nil {
			return err
		}

		if locked.CustomerApprovals.AllApproved() && locked.Status != model.ProposalAccepted {
			if err := s.acceptLocked(txCtx, locked, ""); err != nil {
				return err
			}
			accepted = true
		}
		return s.proposals.Update(txCtx, locked)
	})
	if err != nil {
		return nil, err
	}

	if accepted {
		publish(s.events, EventProposalAccepted, map[string]string{"proposal_id": id})
	}
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) Accept(ctx context.Context, actor Actor, id string, req CustomerResponseRequest) (*model.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrProposalNotFound
	}
	if !s.customerOwns(ctx, actor, proposal) {
		return nil, ErrForbidden
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if err := s.acceptLocked(txCtx, locked, req.CustomerNotes); err != nil {
			return err
		}
		return s.proposals.Update(txCtx, locked)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventProposalAccepted, map[string]string{"proposal_id": id})
	return s.proposals.GetByID(ctx, id)
}

// acceptLocked is the one place the accepted transition happens; both the
// explicit accept endpoint and the all-sections-approved path call it.
// The caller holds the row lock and persists the proposal afterwards.
func (s *proposalService) acceptLocked(txCtx context.Context, proposal *model.Proposal, notes string) error {
	if proposal.Status == model.ProposalAccepted || proposal.Status == model.ProposalRejected {
		return ErrAlreadyResponded
	}
	if !model.CanTransition(proposal.Status, model.ProposalAccepted) {
		return fmt.Errorf("cannot accept proposal in status %q", proposal.Status)
	}

	now := time.Now()
	proposal.Status = model.ProposalAccepted
	proposal.AcceptedAt = &now
	if notes != "" {
		proposal.CustomerNotes = notes
	}

	// Project moves to the deposit stage: waiting for the initial payment.
	project, err := s.projects.GetByID(txCtx, proposal.ProjectID.String())
	if err != nil {
		return err
	}
	project.Status = model.ProjectDeposit
	return s.projects.Update(txCtx, project)
}

func (s *proposalService) Reject(ctx context.Context, actor Actor, id string, req CustomerResponseRequest) (*model.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrProposalNotFound
	}
	if !s.customerOwns(ctx, actor, proposal) {
		return nil, ErrForbidden
	}
	if req.RejectionReason == "" {
		return nil, ErrRejectionReasonRequired
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if locked.Status == model.ProposalAccepted || locked.Status == model.ProposalRejected {
			return ErrAlreadyResponded
		}
		if !model.CanTransition(locked.Status, model.ProposalNegotiating) {
			return fmt.Errorf("cannot reject proposal in status %q", locked.Status)
		}

		now := time.Now()
		locked.Status = model.ProposalNegotiating
		locked.RejectedAt = &now
		locked.RejectionReason = req.RejectionReason
		if req.CustomerNotes != "" {
			locked.CustomerNotes = req.CustomerNotes
		}
		return s.proposals.Update(txCtx, locked)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventProposalRejected, map[string]string{"proposal_id": id, "reason": req.RejectionReason})
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) SubmitDepositPayment(ctx context.Context, actor Actor, id string) (*model.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrProposalNotFound
	}
	if !s.customerOwns(ctx, actor, proposal) {
		return nil, ErrForbidden
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if locked.Status != model.ProposalAccepted {
			return ErrNotAccepted
		}
		if !locked.CustomerApprovals.AllApproved() {
			return ErrApprovalsIncomplete
		}
		if locked.DepositPaid {
			return ErrDepositAlreadyPaid
		}
		if locked.PaymentSubmitted {
			return ErrDepositAlreadySubmitted
		}

		now := time.Now()
		locked.PaymentSubmitted = true
		locked.PaymentSubmittedAt = &now
		if err := s.proposals.Update(txCtx, locked); err != nil {
			return err
		}

		return s.recordPendingTx(txCtx, locked, actor, model.TxTypeDeposit, locked.DepositAmount, nil, "")
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventDepositSubmitted, map[string]string{"proposal_id": id})
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) ApproveDepositPayment(ctx context.Context, actor Actor, id string) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	var assigned *model.User
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if locked.DepositPaid {
			return ErrDepositAlreadyPaid
		}
		if !locked.PaymentSubmitted {
			return ErrDepositNotSubmitted
		}

		now := time.Now()
		approver, err := uuid.Parse(actor.ID)
		if err != nil {
			return fmt.Errorf("invalid actor id: %w", err)
		}
		locked.DepositPaid = true
		locked.DepositPaidAt = &now
		locked.DepositApprovedBy = &approver
		if err := s.proposals.Update(txCtx, locked); err != nil {
			return err
		}

		if err := s.settlePendingTx(txCtx, locked.ID.String(), model.TxTypeDeposit, nil, approver, model.TxCompleted); err != nil {
			return err
		}

		// Deposit approved: the project starts and a developer is assigned.
		project, err := s.projects.GetByID(txCtx, locked.ProjectID.String())
		if err != nil {
			return err
		}
		project.Status = model.ProjectInProgress
		project.StartDate = &now
		if err := s.projects.Update(txCtx, project); err != nil {
			return err
		}

		assigned, err = s.projectSvc.AssignLeastBusyDeveloper(txCtx, project)
		return err
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]string{"proposal_id": id}
	if assigned != nil {
		payload["developer_id"] = assigned.ID.String()
	}
	publish(s.events, EventDepositApproved, payload)
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) RejectDepositPayment(ctx context.Context, actor Actor, id string) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if locked.DepositPaid {
			return ErrDepositAlreadyPaid
		}
		if !locked.PaymentSubmitted {
			return ErrDepositNotSubmitted
		}

		approver, err := uuid.Parse(actor.ID)
		if err != nil {
			return fmt.Errorf("invalid actor id: %w", err)
		}
		locked.PaymentSubmitted = false
		locked.PaymentSubmittedAt = nil
		if err := s.proposals.Update(txCtx, locked); err != nil {
			return err
		}
		return s.settlePendingTx(txCtx, locked.ID.String(), model.TxTypeDeposit, nil, approver, model.TxCancelled)
	})
	if err != nil {
		return nil, err
	}
	return s.proposals.GetByID(ctx, id)
}

// CompletePhase marks a phase done. Phases are a strictly sequential
// pipeline: the deposit must be paid and every earlier phase's payment
// approved before the next one can complete.
func (s *proposalService) CompletePhase(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if locked.Status != model.ProposalAccepted {
			return ErrNotAccepted
		}
		if !locked.DepositPaid {
			return ErrDepositUnpaid
		}
		if index < 0 || index >= len(locked.Phases) {
			return fmt.Errorf("%w: must be 0-%d", ErrPhaseIndex, len(locked.Phases)-1)
		}
		phase := &locked.Phases[index]
		if phase.Completed {
			return ErrPhaseAlreadyCompleted
		}
		if index > 0 && !locked.Phases[index-1].PaymentApproved {
			return ErrPreviousPhaseUnpaid
		}

		now := time.Now()
		phase.Completed = true
		phase.CompletedAt = &now
		phase.CompletedBy = actor.ID
		return s.proposals.Update(txCtx, locked)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventPhaseCompleted, map[string]interface{}{"proposal_id": id, "phase_index": index})
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) SubmitPhasePayment(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrProposalNotFound
	}
	if !s.customerOwns(ctx, actor, proposal) {
		return nil, ErrForbidden
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if locked.Status != model.ProposalAccepted {
			return ErrNotAccepted
		}
		if index < 0 || index >= len(locked.Phases) {
			return fmt.Errorf("%w: must be 0-%d", ErrPhaseIndex, len(locked.Phases)-1)
		}
		phase := &locked.Phases[index]
		if !phase.Completed {
			return ErrPhaseNotCompleted
		}
		if phase.PaymentApproved {
			return ErrPhaseAlreadyApproved
		}
		if phase.PaymentSubmitted {
			return ErrPhaseAlreadySubmitted
		}

		now := time.Now()
		phase.PaymentSubmitted = true
		phase.PaymentSubmittedAt = &now
		if err := s.proposals.Update(txCtx, locked); err != nil {
			return err
		}

		idx := index
		return s.recordPendingTx(txCtx, locked, actor, model.TxTypePhase, phase.Amount, &idx, phase.Name)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventPhasePaymentMoved, map[string]interface{}{"proposal_id": id, "phase_index": index, "state": "submitted"})
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) ApprovePhasePayment(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	allPaid := false
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if index < 0 || index >= len(locked.Phases) {
			return fmt.Errorf("%w: must be 0-%d", ErrPhaseIndex, len(locked.Phases)-1)
		}
		phase := &locked.Phases[index]
		if phase.PaymentApproved {
			return ErrPhaseAlreadyApproved
		}
		if !phase.PaymentSubmitted {
			return ErrPhaseNotSubmitted
		}

		now := time.Now()
		approver, err := uuid.Parse(actor.ID)
		if err != nil {
			return fmt.Errorf("invalid actor id: %w", err)
		}
		phase.PaymentApproved = true
		phase.PaymentApprovedAt = &now
		phase.PaymentApprovedBy = actor.ID
		if err := s.proposals.Update(txCtx, locked); err != nil {
			return err
		}

		idx := index
		if err := s.settlePendingTx(txCtx, locked.ID.String(), model.TxTypePhase, &idx, approver, model.TxCompleted); err != nil {
			return err
		}

		// Last phase paid: the project awaits the customer's final acceptance.
		if locked.Phases.AllPaid() {
			allPaid = true
			project, err := s.projects.GetByID(txCtx, locked.ProjectID.String())
			if err != nil {
				return err
			}
			project.Status = model.ProjectPendingAcceptance
			project.EndDate = &now
			return s.projects.Update(txCtx, project)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventPhasePaymentMoved, map[string]interface{}{
		"proposal_id": id, "phase_index": index, "state": "approved", "all_paid": allPaid,
	})
	return s.proposals.GetByID(ctx, id)
}

func (s *proposalService) RejectPhasePayment(ctx context.Context, actor Actor, id string, index int) (*model.Proposal, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.proposals.GetForUpdate(txCtx, id)
		if err != nil {
			return ErrProposalNotFound
		}
		if index < 0 || index >= len(locked.Phases) {
			return fmt.Errorf("%w: must be 0-%d", ErrPhaseIndex, len(locked.Phases)-1)
		}
		phase := &locked.Phases[index]
		if phase.PaymentApproved {
			return ErrPhaseAlreadyApproved
		}
		if !phase.PaymentSubmitted {
			return ErrPhaseNotSubmitted
		}

		approver, err := uuid.Parse(actor.ID)
		if err != nil {
			return fmt.Errorf("invalid actor id: %w", err)
		}
		phase.PaymentSubmitted = false
		phase.PaymentSubmittedAt = nil
		if err := s.proposals.Update(txCtx, locked); err != nil {
			return err
		}
		idx := index
		return s.settlePendingTx(txCtx, locked.ID.String(), model.TxTypePhase, &idx, approver, model.TxCancelled)
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, EventPhasePaymentMoved, map[string]interface{}{"proposal_id": id, "phase_index": index, "state": "rejected"})
	return s.proposals.GetByID(ctx, id)
}

// PaymentQR returns the VietQR image URL for the deposit (phaseIndex nil) or
// a specific phase.
func (s *proposalService) PaymentQR(ctx context.Context, actor Actor, id string, phaseIndex *int) (string, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return "", ErrProposalNotFound
	}

	project, err := s.projects.GetByID(ctx, proposal.ProjectID.String())
	if err != nil {
		return "", errors.New("project not found")
	}
	if !s.projectSvc.CanAccess(ctx, actor, project) {
		return "", ErrForbidden
	}

	if phaseIndex == nil {
		return qr.DepositURL(s.qrAccount, proposal.DepositAmount, project.ID.String()), nil
	}
	if *phaseIndex < 0 || *phaseIndex >= len(proposal.Phases) {
		return "", fmt.Errorf("%w: must be 0-%d", ErrPhaseIndex, len(proposal.Phases)-1)
	}
	return qr.PhaseURL(s.qrAccount, proposal.Phases[*phaseIndex].Amount, project.ID.String(), *phaseIndex), nil
}

// recordPendingTx writes the pending ledger entry for a payment submission.
func (s *proposalService) recordPendingTx(txCtx context.Context, proposal *model.Proposal, actor Actor, txType string, amount decimal.Decimal, phaseIndex *int, phaseName string) error {
	customerID, err := uuid.Parse(actor.ID)
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}
	pid := proposal.ID
	entry := &model.Transaction{
		ProjectID:  proposal.ProjectID,
		ProposalID: &pid,
		CustomerID: customerID,
		Type:       txType,
		Status:     model.TxPending,
		Amount:     amount,
		PhaseIndex: phaseIndex,
		PhaseName:  phaseName,
	}
	return s.transactions.Create(txCtx, entry)
}

// settlePendingTx completes or cancels the pending ledger entry matching a
// submission. A missing entry is tolerated for backwards compatibility with
// rows written before the ledger existed.
func (s *proposalService) settlePendingTx(txCtx context.Context, proposalID, txType string, phaseIndex *int, approver uuid.UUID, status string) error {
	pending, err := s.transactions.FindPending(txCtx, proposalID, txType, phaseIndex)
	if err != nil {
		return nil
	}
	now := time.Now()
	pending.Status = status
	pending.ApprovedBy = &approver
	if status == model.TxCompleted {
		pending.CompletedAt = &now
	}
	return s.transactions.Update(txCtx, pending)
}
