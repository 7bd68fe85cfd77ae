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

func newTemplateFixture(t *testing.T) (*workflowFixture, TemplateService) {
	t.Helper()
	f := newWorkflowFixture(t)
	return f, NewTemplateService(repository.NewTemplateRepository(f.db))
}

func crmTemplate() TemplateRequest {
	return TemplateRequest{
		Name:        "CRM rollout",
		Description: "Standard three-phase CRM delivery.",
		Category:    model.CategoryCRMSystem,
		Phases: model.TemplatePhases{
			{Name: "Discovery", DurationDays: 10, Percentage: 30},
			{Name: "Build", DurationDays: 30, Percentage: 50},
			{Name: "Rollout", DurationDays: 10, Percentage: 20},
		},
	}
}

func TestTemplateCRUD(t *testing.T) {
	f, templates := newTemplateFixture(t)
	ctx := context.Background()

	_, err := templates.Create(ctx, f.sales, crmTemplate())
	assert.ErrorIs(t, err, ErrForbidden)

	bad := crmTemplate()
	bad.Phases[2].Percentage = 30
	_, err = templates.Create(ctx, f.admin, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 100")

	tpl, err := templates.Create(ctx, f.admin, crmTemplate())
	require.NoError(t, err)
	assert.True(t, tpl.IsActive)

	got, err := templates.Get(ctx, tpl.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "CRM rollout", got.Name)

	inactive := false
	_, err = templates.Update(ctx, f.admin, tpl.ID.String(), TemplateRequest{IsActive: &inactive})
	require.NoError(t, err)

	// The public listing hides inactive templates.
	list, err := templates.List(ctx, "", false)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = templates.List(ctx, "", true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, templates.Delete(ctx, f.admin, tpl.ID.String()))
	_, err = templates.Get(ctx, tpl.ID.String())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateEstimate(t *testing.T) {
	f, templates := newTemplateFixture(t)
	ctx := context.Background()

	tpl, err := templates.Create(ctx, f.admin, crmTemplate())
	require.NoError(t, err)
	id := tpl.ID.String()

	_, err = templates.Estimate(ctx, id, decimal.Zero)
	assert.Error(t, err)

	est, err := templates.Estimate(ctx, id, decimal.NewFromInt(100000000))
	require.NoError(t, err)
	require.Len(t, est.Phases, 3)
	assert.True(t, est.Phases[0].Amount.Equal(decimal.NewFromInt(30000000)))
	assert.True(t, est.Phases[1].Amount.Equal(decimal.NewFromInt(50000000)))
	assert.True(t, est.Phases[2].Amount.Equal(decimal.NewFromInt(20000000)))

	// Odd prices do not round away money: the last phase absorbs the rest.
	price := decimal.NewFromInt(100000001)
	est, err = templates.Estimate(ctx, id, price)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, p := range est.Phases {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, sum.Equal(price))
}
