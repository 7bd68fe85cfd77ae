package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"
)

func newFeedbackService(f *workflowFixture) FeedbackService {
	users := repository.NewUserRepository(f.db)
	txm := repository.NewTransactionManager(f.db)
	projectSvc := NewProjectService(f.projectRepo, users)
	return NewFeedbackService(repository.NewFeedbackRepository(f.db), f.projectRepo, txm, projectSvc, nil)
}

// awaitingAcceptance parks the fixture project where the payment pipeline
// leaves it once the last phase is paid.
func (f *workflowFixture) awaitingAcceptance(t *testing.T) {
	t.Helper()
	f.project.Status = model.ProjectPendingAcceptance
	require.NoError(t, f.db.Save(f.project).Error)
}

func intptr(n int) *int { return &n }

func TestSubmitAcceptanceCompletesProject(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := newFeedbackService(f)
	ctx := context.Background()
	id := f.project.ID.String()

	accept := AcceptanceRequest{
		AcceptanceStatus: model.AcceptanceAccepted,
		Rating:           intptr(5),
		Feedback:         "Smooth delivery, the checkout works great.",
	}

	_, err := svc.SubmitAcceptance(ctx, f.sales, id, accept)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SubmitAcceptance(ctx, f.outsider, id, accept)
	assert.ErrorIs(t, err, ErrForbidden)

	// still in negotiation: nothing to accept yet
	_, err = svc.SubmitAcceptance(ctx, f.customer, id, accept)
	assert.ErrorIs(t, err, ErrNotPendingAcceptance)

	f.awaitingAcceptance(t)

	noRating := accept
	noRating.Rating = nil
	_, err = svc.SubmitAcceptance(ctx, f.customer, id, noRating)
	assert.ErrorIs(t, err, ErrRatingRequired)

	outOfRange := accept
	outOfRange.Rating = intptr(6)
	_, err = svc.SubmitAcceptance(ctx, f.customer, id, outOfRange)
	assert.ErrorIs(t, err, ErrRatingRequired)

	fb, err := svc.SubmitAcceptance(ctx, f.customer, id, accept)
	require.NoError(t, err)
	assert.Equal(t, model.AcceptanceAccepted, fb.AcceptanceStatus)
	require.NotNil(t, fb.Rating)
	assert.Equal(t, 5, *fb.Rating)
	assert.NotNil(t, fb.AcceptedAt)
	assert.Nil(t, fb.RejectedAt)

	project, err := f.projectRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectCompleted, project.Status)
	assert.NotNil(t, project.EndDate)

	// completed projects take no further decisions
	_, err = svc.SubmitAcceptance(ctx, f.customer, id, accept)
	assert.ErrorIs(t, err, ErrNotPendingAcceptance)
}

func TestRevisionRoundTrip(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := newFeedbackService(f)
	ctx := context.Background()
	id := f.project.ID.String()
	f.awaitingAcceptance(t)

	_, err := svc.SubmitAcceptance(ctx, f.customer, id, AcceptanceRequest{
		AcceptanceStatus: model.AcceptanceRejected,
	})
	assert.ErrorIs(t, err, ErrRevisionReasonNeeded)

	fb, err := svc.SubmitAcceptance(ctx, f.customer, id, AcceptanceRequest{
		AcceptanceStatus: model.AcceptanceRejected,
		Complaint:        "Checkout breaks on mobile Safari",
		RevisionDetails:  "Fix the payment step layout below 400px",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AcceptanceRejected, fb.AcceptanceStatus)
	assert.NotNil(t, fb.RejectedAt)
	assert.False(t, fb.RevisionCompleted)

	project, err := f.projectRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectRevisionRequired, project.Status)

	// the customer may sharpen the request while revisions are open,
	// still one feedback row per project
	updated, err := svc.SubmitAcceptance(ctx, f.customer, id, AcceptanceRequest{
		AcceptanceStatus: model.AcceptanceRejected,
		RevisionDetails:  "Also the order confirmation email never arrives",
	})
	require.NoError(t, err)
	assert.Equal(t, fb.ID, updated.ID)

	_, err = svc.CompleteRevision(ctx, f.customer, fb.ID.String(), "done")
	assert.ErrorIs(t, err, ErrForbidden)

	fb, err = svc.CompleteRevision(ctx, f.sales, fb.ID.String(), "Both issues fixed and deployed to staging")
	require.NoError(t, err)
	assert.True(t, fb.RevisionCompleted)
	assert.NotNil(t, fb.RevisionCompletedAt)
	assert.Equal(t, "Both issues fixed and deployed to staging", fb.AdminResponse)
	require.NotNil(t, fb.RespondedByID)
	assert.Equal(t, f.sales.ID, fb.RespondedByID.String())

	project, err = f.projectRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectPendingAcceptance, project.Status)

	// second round: customer signs off this time
	fb, err = svc.SubmitAcceptance(ctx, f.customer, id, AcceptanceRequest{
		AcceptanceStatus: model.AcceptanceAccepted,
		Rating:           intptr(4),
		Feedback:         "Fixed, thanks.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AcceptanceAccepted, fb.AcceptanceStatus)
	assert.Nil(t, fb.RejectedAt)

	project, err = f.projectRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectCompleted, project.Status)

	// revision completion no longer applies once accepted
	_, err = svc.CompleteRevision(ctx, f.sales, fb.ID.String(), "again")
	assert.ErrorIs(t, err, ErrNotRevisionRequest)
}

func TestAcceptanceVisibilityAndResponses(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := newFeedbackService(f)
	ctx := context.Background()
	id := f.project.ID.String()
	f.awaitingAcceptance(t)

	_, err := svc.Get(ctx, f.customer, id)
	assert.ErrorIs(t, err, ErrFeedbackNotFound)

	fb, err := svc.SubmitAcceptance(ctx, f.customer, id, AcceptanceRequest{
		AcceptanceStatus: model.AcceptanceAccepted,
		Rating:           intptr(3),
		FeatureRequest:   "A loyalty points module would be nice",
	})
	require.NoError(t, err)

	// customer and staff both see it through the project guard
	got, err := svc.Get(ctx, f.customer, id)
	require.NoError(t, err)
	assert.Equal(t, fb.ID, got.ID)
	_, err = svc.Get(ctx, f.admin, id)
	require.NoError(t, err)
	_, err = svc.Get(ctx, f.outsider, id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Respond(ctx, f.customer, fb.ID.String(), "no")
	assert.ErrorIs(t, err, ErrForbidden)

	fb, err = svc.Respond(ctx, f.admin, fb.ID.String(), "Loyalty points are on the roadmap for Q4")
	require.NoError(t, err)
	assert.Equal(t, "Loyalty points are on the roadmap for Q4", fb.AdminResponse)
	assert.NotNil(t, fb.AdminRespondedAt)
	require.NotNil(t, fb.RespondedBy)
	assert.Equal(t, f.admin.ID, fb.RespondedBy.ID.String())

	_, _, err = svc.ListAll(ctx, f.customer, 1, 20)
	assert.ErrorIs(t, err, ErrForbidden)

	all, total, err := svc.ListAll(ctx, f.sales, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, all, 1)
	assert.Equal(t, fb.ID, all[0].ID)
}
