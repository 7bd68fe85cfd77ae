package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"
)

func newFinanceFixture(t *testing.T) (*workflowFixture, FinanceService) {
	t.Helper()
	f := newWorkflowFixture(t)
	users := repository.NewUserRepository(f.db)
	finance := NewFinanceService(
		f.transactions,
		repository.NewProposalRepository(f.db),
		NewProjectService(f.projectRepo, users),
	)
	return f, finance
}

// Runs a proposal through deposit and the first phase payment, then submits
// the second phase so the ledger holds both settled and pending rows.
func seedLedger(t *testing.T, f *workflowFixture) *model.Proposal {
	t.Helper()
	ctx := context.Background()
	p := f.depositPaid(t)
	id := p.ID.String()

	_, err := f.proposals.CompletePhase(ctx, f.sales, id, 0)
	require.NoError(t, err)
	_, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 0)
	require.NoError(t, err)
	_, err = f.proposals.ApprovePhasePayment(ctx, f.sales, id, 0)
	require.NoError(t, err)

	_, err = f.proposals.CompletePhase(ctx, f.sales, id, 1)
	require.NoError(t, err)
	p, err = f.proposals.SubmitPhasePayment(ctx, f.customer, id, 1)
	require.NoError(t, err)
	return p
}

func TestFinanceSummary(t *testing.T) {
	f, finance := newFinanceFixture(t)
	ctx := context.Background()
	seedLedger(t, f)

	_, err := finance.Summary(ctx, f.customer)
	assert.ErrorIs(t, err, ErrForbidden)

	summary, err := finance.Summary(ctx, f.admin)
	require.NoError(t, err)
	assert.True(t, summary.TotalCollected.Equal(decimal.NewFromInt(7000000)))
	assert.True(t, summary.DepositRevenue.Equal(decimal.NewFromInt(2000000)))
	assert.True(t, summary.PhaseRevenue.Equal(decimal.NewFromInt(5000000)))
	assert.Equal(t, 2, summary.CompletedCount)
	assert.True(t, summary.PendingAmount.Equal(decimal.NewFromInt(9000000)))
	assert.Equal(t, 1, summary.PendingReviews)
}

func TestProjectFinanceSummary(t *testing.T) {
	f, finance := newFinanceFixture(t)
	ctx := context.Background()
	seedLedger(t, f)
	projectID := f.project.ID.String()

	// The customer can read their own project's figures.
	got, err := finance.ProjectSummary(ctx, f.customer, projectID)
	require.NoError(t, err)
	assert.True(t, got.ContractValue.Equal(decimal.NewFromInt(14000000)))
	assert.True(t, got.DepositAmount.Equal(decimal.NewFromInt(2000000)))
	assert.True(t, got.DepositPaid)
	assert.Equal(t, 1, got.PhasesPaid)
	assert.Equal(t, 2, got.PhasesTotal)
	assert.True(t, got.PaidAmount.Equal(decimal.NewFromInt(7000000)))
	assert.True(t, got.RemainingDue.Equal(decimal.NewFromInt(7000000)))
	assert.Len(t, got.Transactions, 3)

	_, err = finance.ProjectSummary(ctx, f.outsider, projectID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRecordManualEntry(t *testing.T) {
	f, finance := newFinanceFixture(t)
	ctx := context.Background()
	projectID := f.project.ID.String()

	_, err := finance.RecordEntry(ctx, f.sales, ManualEntryRequest{
		ProjectID: projectID, Type: model.TxTypeRefund, Amount: decimal.NewFromInt(-500000),
	})
	assert.ErrorIs(t, err, ErrForbidden, "only admins book manual entries")

	_, err = finance.RecordEntry(ctx, f.admin, ManualEntryRequest{
		ProjectID: projectID, Type: model.TxTypeDeposit, Amount: decimal.NewFromInt(100),
	})
	assert.Error(t, err, "workflow types are not bookable by hand")

	entry, err := finance.RecordEntry(ctx, f.admin, ManualEntryRequest{
		ProjectID:   projectID,
		Type:        model.TxTypeRefund,
		Amount:      decimal.NewFromInt(-500000),
		Description: "partial deposit refund after scope cut",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, entry.Status)
	assert.Equal(t, f.customer.ID, entry.CustomerID.String())
	require.NotNil(t, entry.ApprovedBy)
	assert.Equal(t, f.admin.ID, entry.ApprovedBy.String())
}

func TestListTransactionsFilters(t *testing.T) {
	f, finance := newFinanceFixture(t)
	ctx := context.Background()
	seedLedger(t, f)

	_, _, err := finance.ListTransactions(ctx, f.customer, repository.TransactionFilter{})
	assert.ErrorIs(t, err, ErrForbidden)

	all, total, err := finance.ListTransactions(ctx, f.sales, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	pending, total, err := finance.ListTransactions(ctx, f.sales, repository.TransactionFilter{Status: model.TxPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)
	assert.Equal(t, model.TxTypePhase, pending[0].Type)

	deposits, _, err := finance.ListTransactions(ctx, f.sales, repository.TransactionFilter{Type: model.TxTypeDeposit})
	require.NoError(t, err)
	assert.Len(t, deposits, 1)
}
