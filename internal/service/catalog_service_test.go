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

func newCatalogFixture(t *testing.T) (*workflowFixture, CatalogService) {
	t.Helper()
	f := newWorkflowFixture(t)
	users := repository.NewUserRepository(f.db)
	catalog := NewCatalogService(
		repository.NewCatalogRepository(f.db),
		f.projectRepo,
		users,
		repository.NewChatRepository(f.db),
		repository.NewTransactionManager(f.db),
		NewProjectService(f.projectRepo, users),
	)
	return f, catalog
}

func crmService() CreateServiceRequest {
	min := decimal.NewFromInt(50000000)
	return CreateServiceRequest{
		Name:          "CRM System",
		Category:      model.CategoryCRMSystem,
		KeyFeatures:   model.StringList{"lead pipeline", "reporting"},
		PriceRangeMin: &min,
	}
}

func TestServiceCatalogCRUD(t *testing.T) {
	f, catalog := newCatalogFixture(t)
	ctx := context.Background()

	_, err := catalog.CreateService(ctx, f.sales, crmService())
	assert.ErrorIs(t, err, ErrForbidden)

	svc, err := catalog.CreateService(ctx, f.admin, crmService())
	require.NoError(t, err)
	assert.Equal(t, "crm-system", svc.Slug)
	assert.True(t, svc.IsActive)

	_, err = catalog.CreateService(ctx, f.admin, crmService())
	assert.ErrorIs(t, err, ErrSlugTaken)

	req := crmService()
	req.Name = "Time Machine"
	req.Category = "time_travel"
	_, err = catalog.CreateService(ctx, f.admin, req)
	assert.Error(t, err, "unknown category must be rejected")

	bySlug, err := catalog.GetService(ctx, "crm-system")
	require.NoError(t, err)
	byID, err := catalog.GetService(ctx, svc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, bySlug.ID, byID.ID)

	_, err = catalog.GetService(ctx, "no-such-service")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestIntakeRequestLifecycle(t *testing.T) {
	f, catalog := newCatalogFixture(t)
	ctx := context.Background()

	svc, err := catalog.CreateService(ctx, f.admin, crmService())
	require.NoError(t, err)

	intake := CreateServiceRequestRequest{
		ServiceID:    svc.ID.String(),
		ContactName:  "Chi Nguyen",
		ContactEmail: "chi@mekong.vn",
		CompanyName:  "Mekong Retail",
	}

	_, err = catalog.SubmitRequest(ctx, f.sales, intake)
	assert.ErrorIs(t, err, ErrForbidden)

	request, err := catalog.SubmitRequest(ctx, f.customer, intake)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, request.Status)

	// Customers only ever see their own requests.
	mine, _, err := catalog.ListRequests(ctx, f.customer, "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, _, err := catalog.ListRequests(ctx, f.outsider, "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	request, err = catalog.ReviewRequest(ctx, f.sales, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestReviewing, request.Status)

	_, err = catalog.ReviewRequest(ctx, f.sales, request.ID.String())
	assert.ErrorIs(t, err, ErrRequestNotPending)

	request, err = catalog.ApproveRequest(ctx, f.sales, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestConverted, request.Status)
	require.NotNil(t, request.ProjectID)

	// The converted project opens in negotiation with a manager assigned.
	project, err := f.projectRepo.GetByID(ctx, request.ProjectID.String())
	require.NoError(t, err)
	assert.Equal(t, "CRM System - Mekong Retail", project.Name)
	assert.Equal(t, model.ProjectNegotiation, project.Status)
	require.NotNil(t, project.ManagerID)
	assert.Equal(t, f.sales.ID, project.ManagerID.String())
	require.NotNil(t, project.Customer)
	assert.Equal(t, f.customer.ID, project.Customer.UserID.String())

	_, err = catalog.ApproveRequest(ctx, f.sales, request.ID.String())
	assert.ErrorIs(t, err, ErrRequestNotPending)
	_, err = catalog.RejectRequest(ctx, f.sales, request.ID.String())
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestRejectIntakeRequest(t *testing.T) {
	f, catalog := newCatalogFixture(t)
	ctx := context.Background()

	svc, err := catalog.CreateService(ctx, f.admin, crmService())
	require.NoError(t, err)

	request, err := catalog.SubmitRequest(ctx, f.customer, CreateServiceRequestRequest{
		ServiceID:    svc.ID.String(),
		ContactName:  "Chi Nguyen",
		ContactEmail: "chi@mekong.vn",
	})
	require.NoError(t, err)

	_, err = catalog.RejectRequest(ctx, f.customer, request.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	request, err = catalog.RejectRequest(ctx, f.sales, request.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, request.Status)

	_, err = catalog.ApproveRequest(ctx, f.sales, request.ID.String())
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "crm-system", slugify("CRM System"))
	assert.Equal(t, "ui-ux-design", slugify("UI/UX  Design!"))
	assert.Equal(t, "e-commerce", slugify("E-commerce"))
}
