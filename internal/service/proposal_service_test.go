package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hungle-gif/operisbe/internal/database"
	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/qr"
	"github.com/hungle-gif/operisbe/internal/repository"
)

// newTestDB opens a private in-memory database per test. The shared cache
// keeps every pooled connection on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type workflowFixture struct {
	db           *gorm.DB
	proposals    ProposalService
	projectRepo  repository.ProjectRepository
	transactions repository.TransactionRepository

	admin    Actor
	sales    Actor
	customer Actor
	outsider Actor
	project  *model.Project
	devID    string
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	db := newTestDB(t)

	adminUser := model.User{Email: "admin@operis.vn", Username: "admin", FullName: "Hung Le", Password: "x", Role: model.RoleAdmin, IsActive: true}
	salesUser := model.User{Email: "lan@operis.vn", Username: "lan", FullName: "Lan Pham", Password: "x", Role: model.RoleSales, IsActive: true}
	devUser := model.User{Email: "minh@operis.vn", Username: "minh", FullName: "Minh Tran", Password: "x", Role: model.RoleDeveloper, IsActive: true}
	custUser := model.User{Email: "chi@mekong.vn", Username: "chi", FullName: "Chi Nguyen", Password: "x", Role: model.RoleCustomer, IsActive: true}
	otherUser := model.User{Email: "bao@other.vn", Username: "bao", FullName: "Bao Le", Password: "x", Role: model.RoleCustomer, IsActive: true}
	for _, u := range []*model.User{&adminUser, &salesUser, &devUser, &custUser, &otherUser} {
		require.NoError(t, db.Create(u).Error)
	}

	profile := model.Customer{UserID: custUser.ID, CompanyName: "Mekong Retail"}
	require.NoError(t, db.Create(&profile).Error)

	project := model.Project{
		Name:       "Storefront rebuild",
		CustomerID: profile.ID,
		ManagerID:  &salesUser.ID,
		Status:     model.ProjectNegotiation,
	}
	require.NoError(t, db.Create(&project).Error)

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	txm := repository.NewTransactionManager(db)
	projectSvc := NewProjectService(projects, users)
	account := qr.Account{BankCode: "970436", Number: "0123456789", Name: "OPERIS SOFTWARE"}

	return &workflowFixture{
		db:           db,
		proposals:    NewProposalService(proposalRepo, projects, txRepo, txm, projectSvc, nil, account),
		projectRepo:  projects,
		transactions: txRepo,
		admin:        Actor{ID: adminUser.ID.String(), Role: model.RoleAdmin},
		sales:        Actor{ID: salesUser.ID.String(), Role: model.RoleSales},
		customer:     Actor{ID: custUser.ID.String(), Role: model.RoleCustomer},
		outsider:     Actor{ID: otherUser.ID.String(), Role: model.RoleCustomer},
		project:      &project,
		devID:        devUser.ID.String(),
	}
}

func validProposalRequest() CreateProposalRequest {
	return CreateProposalRequest{
		ProjectAnalysis: "Two-phase rebuild of the storefront with a headless checkout.",
		DepositAmount:   decimal.NewFromInt(2000000),
		Phases: model.Phases{
			{Name: "Design", Days: 10, Amount: decimal.NewFromInt(5000000)},
			{Name: "Build", Days: 20, Amount: decimal.NewFromInt(9000000)},
		},
		TeamMembers: model.TeamMembers{
			{Name: "Minh Tran", Role: "backend", Rating: 4},
		},
		Deliverables: model.Deliverables{
			{Description: "Production deployment", Penalty: "5% per late week"},
		},
	}
}

func (f *workflowFixture) draft(t *testing.T) *model.Proposal {
	t.Helper()
	p, err := f.proposals.Create(context.Background(), f.sales, f.project.ID.String(), validProposalRequest())
	require.NoError(t, err)
	return p
}

func (f *workflowFixture) sent(t *testing.T) *model.Proposal {
	t.Helper()
	p := f.draft(t)
	p, err := f.proposals.Send(context.Background(), f.sales, p.ID.String())
	require.NoError(t, err)
	return p
}

func (f *workflowFixture) approveAllSections(t *testing.T, id string) *model.Proposal {
	t.Helper()
	var p *model.Proposal
	var err error
	for _, section := range model.ApprovalSections {
		p, err = f.proposals.ApproveSection(context.Background(), f.customer, id, section)
		require.NoError(t, err, "approving %s", section)
	}
	return p
}

// depositPaid walks a proposal through accept, deposit submission and
// deposit approval, leaving the project in progress.
func (f *workflowFixture) depositPaid(t *testing.T) *model.Proposal {
	t.Helper()
	ctx := context.Background()
	p := f.sent(t)
	f.approveAllSections(t, p.ID.String())
	_, err := f.proposals.SubmitDepositPayment(ctx, f.customer, p.ID.String())
	require.NoError(t, err)
	p, err = f.proposals.ApproveDepositPayment(ctx, f.sales, p.ID.String())
	require.NoError(t, err)
	return p
}

func TestCreateProposal(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	t.Run("derives totals from phases", func(t *testing.T) {
		p := f.draft(t)
		assert.Equal(t, model.ProposalDraft, p.Status)
		assert.Equal(t, "VND", p.Currency)
		assert.True(t, p.TotalPrice.Equal(decimal.NewFromInt(14000000)))
		assert.Equal(t, 30, p.EstimatedDurationDays)
	})

	t.Run("rejects deposit below minimum", func(t *testing.T) {
		req := validProposalRequest()
		req.DepositAmount = decimal.NewFromInt(100000)
		_, err := f.proposals.Create(ctx, f.sales, f.project.ID.String(), req)
		assert.ErrorIs(t, err, ErrDepositTooSmall)
	})

	t.Run("customers cannot author proposals", func(t *testing.T) {
		_, err := f.proposals.Create(ctx, f.customer, f.project.ID.String(), validProposalRequest())
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestSendRequiresCompleteDraft(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	req := validProposalRequest()
	req.TeamMembers = nil
	p, err := f.proposals.Create(ctx, f.sales, f.project.ID.String(), req)
	require.NoError(t, err)

	_, err = f.proposals.Send(ctx, f.sales, p.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "team member")

	// The failed send must not move the proposal.
	p, err = f.proposals.Get(ctx, f.sales, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProposalDraft, p.Status)

	team := model.TeamMembers{{Name: "Minh Tran", Role: "backend", Rating: 4}}
	_, err = f.proposals.Update(ctx, f.sales, p.ID.String(), UpdateProposalRequest{TeamMembers: &team})
	require.NoError(t, err)

	p, err = f.proposals.Send(ctx, f.sales, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProposalSent, p.Status)

	_, err = f.proposals.Send(ctx, f.sales, p.ID.String())
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestCustomerVisibility(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.draft(t)

	_, err := f.proposals.Get(ctx, f.customer, p.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.proposals.ListByProject(ctx, f.customer, f.project.ID.String())
	require.NoError(t, err)
	assert.Empty(t, list, "drafts must stay invisible to the customer")

	list, err = f.proposals.ListByProject(ctx, f.sales, f.project.ID.String())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.proposals.Send(ctx, f.sales, p.ID.String())
	require.NoError(t, err)

	// First customer read flips sent to viewed, later reads do not move it.
	got, err := f.proposals.Get(ctx, f.customer, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProposalViewed, got.Status)

	got, err = f.proposals.Get(ctx, f.customer, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProposalViewed, got.Status)

	_, err = f.proposals.Get(ctx, f.outsider, p.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestApproveSections(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.sent(t)
	id := p.ID.String()

	_, err := f.proposals.ApproveSection(ctx, f.sales, id, model.SectionAnalysis)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err = f.proposals.ApproveSection(ctx, f.customer, id, model.SectionAnalysis)
	require.NoError(t, err)
	assert.True(t, p.CustomerApprovals.Analysis)
	assert.Equal(t, model.ProposalSent, p.Status)

	// Approvals are set once and never reset.
	_, err = f.proposals.ApproveSection(ctx, f.customer, id, model.SectionAnalysis)
	assert.ErrorIs(t, err, ErrSectionAlreadyApproved)

	_, err = f.proposals.ApproveSection(ctx, f.customer, id, "budget")
	assert.Error(t, err)

	for _, section := range model.ApprovalSections[1:] {
		p, err = f.proposals.ApproveSection(ctx, f.customer, id, section)
		require.NoError(t, err)
	}

	// The fifth approval is the accept.
	assert.Equal(t, model.ProposalAccepted, p.Status)
	require.NotNil(t, p.AcceptedAt)

	project, err := f.projectRepo.GetByID(ctx, f.project.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProjectDeposit, project.Status)
}

func TestAcceptIsTerminal(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.sent(t)
	id := p.ID.String()

	p, err := f.proposals.Accept(ctx, f.customer, id, CustomerResponseRequest{CustomerNotes: "go ahead"})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalAccepted, p.Status)
	assert.Equal(t, "go ahead", p.CustomerNotes)

	_, err = f.proposals.Accept(ctx, f.customer, id, CustomerResponseRequest{})
	assert.ErrorIs(t, err, ErrAlreadyResponded)

	_, err = f.proposals.Reject(ctx, f.customer, id, CustomerResponseRequest{RejectionReason: "too late"})
	assert.ErrorIs(t, err, ErrAlreadyResponded)
}

func TestRejectOpensNegotiation(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.sent(t)
	id := p.ID.String()

	_, err := f.proposals.Reject(ctx, f.customer, id, CustomerResponseRequest{})
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	p, err = f.proposals.Reject(ctx, f.customer, id, CustomerResponseRequest{RejectionReason: "deposit too high"})
	require.NoError(t, err)
	assert.Equal(t, model.ProposalNegotiating, p.Status)
	assert.Equal(t, "deposit too high", p.RejectionReason)
	require.NotNil(t, p.RejectedAt)

	// Sales revises and sends the same proposal again.
	deposit := decimal.NewFromInt(1000000)
	_, err = f.proposals.Update(ctx, f.sales, id, UpdateProposalRequest{DepositAmount: &deposit})
	require.NoError(t, err)

	p, err = f.proposals.Send(ctx, f.sales, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalSent, p.Status)
}

func TestDepositWorkflow(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.sent(t)
	id := p.ID.String()

	_, err := f.proposals.SubmitDepositPayment(ctx, f.customer, id)
	assert.ErrorIs(t, err, ErrNotAccepted)

	_, err = f.proposals.Accept(ctx, f.customer, id, CustomerResponseRequest{})
	require.NoError(t, err)

	// Accepted is not enough, every section approval must be in place.
	_, err = f.proposals.SubmitDepositPayment(ctx, f.customer, id)
	assert.ErrorIs(t, err, ErrApprovalsIncomplete)

	f.approveAllSections(t, id)

	_, err = f.proposals.ApproveDepositPayment(ctx, f.sales, id)
	assert.ErrorIs(t, err, ErrDepositNotSubmitted)

	p, err = f.proposals.SubmitDepositPayment(ctx, f.customer, id)
	require.NoError(t, err)
	assert.True(t, p.PaymentSubmitted)
	require.NotNil(t, p.PaymentSubmittedAt)

	pending, err := f.transactions.FindPending(ctx, id, model.TxTypeDeposit, nil)
	require.NoError(t, err)
	assert.True(t, pending.Amount.Equal(p.DepositAmount))

	_, err = f.proposals.SubmitDepositPayment(ctx, f.customer, id)
	assert.ErrorIs(t, err, ErrDepositAlreadySubmitted)

	_, err = f.proposals.ApproveDepositPayment(ctx, f.customer, id)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err = f.proposals.ApproveDepositPayment(ctx, f.sales, id)
	require.NoError(t, err)
	assert.True(t, p.DepositPaid)
	require.NotNil(t, p.DepositApprovedBy)
	assert.Equal(t, f.sales.ID, p.DepositApprovedBy.String())

	settled, err := f.transactions.GetByID(ctx, pending.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, settled.Status)
	require.NotNil(t, settled.CompletedAt)

	// Deposit approval starts the project and staffs it.
	project, err := f.projectRepo.GetByID(ctx, f.project.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProjectInProgress, project.Status)
	require.NotNil(t, project.StartDate)
	require.Len(t, project.Developers, 1)
	assert.Equal(t, f.devID, project.Developers[0].ID.String())

	_, err = f.proposals.ApproveDepositPayment(ctx, f.sales, id)
	assert.ErrorIs(t, err, ErrDepositAlreadyPaid)
	_, err = f.proposals.SubmitDepositPayment(ctx, f.customer, id)
	assert.ErrorIs(t, err, ErrDepositAlreadyPaid)
}

func TestDepositRejectionAllowsResubmit(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.sent(t)
	id := p.ID.String()
	f.approveAllSections(t, id)

	_, err := f.proposals.SubmitDepositPayment(ctx, f.customer, id)
	require.NoError(t, err)

	p, err = f.proposals.RejectDepositPayment(ctx, f.sales, id)
	require.NoError(t, err)
	assert.False(t, p.PaymentSubmitted)
	assert.Nil(t, p.PaymentSubmittedAt)

	// The pending ledger row was cancelled, not completed.
	_, err = f.transactions.FindPending(ctx, id, model.TxTypeDeposit, nil)
	assert.Error(t, err)

	_, err = f.proposals.SubmitDepositPayment(ctx, f.customer, id)
	require.NoError(t, err)
}

func TestPhasePipeline(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.depositPaid(t)
	id := p.ID.String()

	_, err := f.proposals.CompletePhase(ctx, f.customer, id, 0)
	assert.ErrorIs(t, err, ErrForbidden)

	// Phases are strictly sequential.
	_, err = f.proposals.CompletePhase(ctx, f.sales, id, 1)
	assert.ErrorIs(t, err, ErrPreviousPhaseUnpaid)

	_, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 0)
	assert.ErrorIs(t, err, ErrPhaseNotCompleted)

	p, err = f.proposals.CompletePhase(ctx, f.sales, id, 0)
	require.NoError(t, err)
	assert.True(t, p.Phases[0].Completed)
	assert.Equal(t, f.sales.ID, p.Phases[0].CompletedBy)

	_, err = f.proposals.CompletePhase(ctx, f.sales, id, 0)
	assert.ErrorIs(t, err, ErrPhaseAlreadyCompleted)

	p, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 0)
	require.NoError(t, err)
	assert.True(t, p.Phases[0].PaymentSubmitted)

	idx := 0
	pending, err := f.transactions.FindPending(ctx, id, model.TxTypePhase, &idx)
	require.NoError(t, err)
	assert.True(t, pending.Amount.Equal(p.Phases[0].Amount))
	assert.Equal(t, "Design", pending.PhaseName)

	_, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 0)
	assert.ErrorIs(t, err, ErrPhaseAlreadySubmitted)

	p, err = f.proposals.ApprovePhasePayment(ctx, f.sales, id, 0)
	require.NoError(t, err)
	assert.True(t, p.Phases[0].PaymentApproved)

	project, err := f.projectRepo.GetByID(ctx, f.project.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProjectInProgress, project.Status, "one unpaid phase left")

	_, err = f.proposals.CompletePhase(ctx, f.sales, id, 1)
	require.NoError(t, err)
	_, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 1)
	require.NoError(t, err)
	_, err = f.proposals.ApprovePhasePayment(ctx, f.sales, id, 1)
	require.NoError(t, err)

	// Last payment approved: the project waits for final acceptance.
	project, err = f.projectRepo.GetByID(ctx, f.project.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ProjectPendingAcceptance, project.Status)
	require.NotNil(t, project.EndDate)

	_, err = f.proposals.ApprovePhasePayment(ctx, f.sales, id, 1)
	assert.ErrorIs(t, err, ErrPhaseAlreadyApproved)
	_, err = f.proposals.ApprovePhasePayment(ctx, f.sales, id, 5)
	assert.True(t, errors.Is(err, ErrPhaseIndex))
}

func TestRejectPhasePayment(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.depositPaid(t)
	id := p.ID.String()

	_, err := f.proposals.CompletePhase(ctx, f.sales, id, 0)
	require.NoError(t, err)
	_, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 0)
	require.NoError(t, err)

	p, err = f.proposals.RejectPhasePayment(ctx, f.sales, id, 0)
	require.NoError(t, err)
	assert.False(t, p.Phases[0].PaymentSubmitted)
	assert.False(t, p.Phases[0].PaymentApproved)

	_, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 0)
	require.NoError(t, err)
}

func TestPaymentQR(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p := f.sent(t)
	id := p.ID.String()

	url, err := f.proposals.PaymentQR(ctx, f.customer, id, nil)
	require.NoError(t, err)
	assert.Contains(t, url, "img.vietqr.io")
	assert.Contains(t, url, "970436")
	assert.Contains(t, url, "Coc+DuAn")

	idx := 1
	url, err = f.proposals.PaymentQR(ctx, f.customer, id, &idx)
	require.NoError(t, err)
	assert.Contains(t, url, "GD2")

	idx = 7
	_, err = f.proposals.PaymentQR(ctx, f.customer, id, &idx)
	assert.True(t, errors.Is(err, ErrPhaseIndex))

	_, err = f.proposals.PaymentQR(ctx, f.outsider, id, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}
