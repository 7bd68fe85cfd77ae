package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"
)

func newProjectFixture(t *testing.T) (*workflowFixture, ProjectService) {
	t.Helper()
	f := newWorkflowFixture(t)
	users := repository.NewUserRepository(f.db)
	return f, NewProjectService(f.projectRepo, users)
}

func TestProjectListIsRoleScoped(t *testing.T) {
	f, projects := newProjectFixture(t)
	ctx := context.Background()

	// A second project managed by nobody, owned by the same customer.
	other := model.Project{Name: "Support retainer", CustomerID: f.project.CustomerID}
	require.NoError(t, f.db.Create(&other).Error)

	list, total, err := projects.List(ctx, Actor{ID: f.admin.ID, Role: model.RoleAdmin}, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	// Sales only see projects they manage.
	list, _, err = projects.List(ctx, f.sales, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.project.ID, list[0].ID)

	// Customers see everything they own, managed or not.
	_, total, err = projects.List(ctx, f.customer, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Developers see nothing until assigned.
	list, _, err = projects.List(ctx, Actor{ID: f.devID, Role: model.RoleDeveloper}, "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProjectGetAccess(t *testing.T) {
	f, projects := newProjectFixture(t)
	ctx := context.Background()
	id := f.project.ID.String()

	_, err := projects.Get(ctx, f.customer, id)
	require.NoError(t, err)
	_, err = projects.Get(ctx, f.sales, id)
	require.NoError(t, err)
	_, err = projects.Get(ctx, f.outsider, id)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = projects.Get(ctx, Actor{ID: f.devID, Role: model.RoleDeveloper}, id)
	assert.ErrorIs(t, err, ErrForbidden, "unassigned developer")
}

func TestProjectUpdateStatus(t *testing.T) {
	f, projects := newProjectFixture(t)
	ctx := context.Background()
	id := f.project.ID.String()

	_, err := projects.UpdateStatus(ctx, f.customer, id, model.ProjectCompleted)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = projects.UpdateStatus(ctx, f.sales, id, "done")
	assert.Error(t, err, "unknown status")

	project, err := projects.UpdateStatus(ctx, f.sales, id, model.ProjectOnHold)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectOnHold, project.Status)
	assert.Nil(t, project.EndDate)

	// Closing the project stamps the end date.
	project, err = projects.UpdateStatus(ctx, f.sales, id, model.ProjectCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectCompleted, project.Status)
	require.NotNil(t, project.EndDate)
}

func TestAssignLeastBusyDeveloper(t *testing.T) {
	f, projects := newProjectFixture(t)
	ctx := context.Background()

	// The busy developer already carries an active project.
	busy := model.User{Email: "tu@operis.vn", Username: "tu", FullName: "Tu Dang", Password: "x", Role: model.RoleDeveloper, IsActive: true}
	require.NoError(t, f.db.Create(&busy).Error)
	active := model.Project{Name: "Busy work", CustomerID: f.project.CustomerID, Status: model.ProjectInProgress}
	require.NoError(t, f.db.Create(&active).Error)
	require.NoError(t, f.db.Model(&active).Association("Developers").Append(&busy))

	dev, err := projects.AssignLeastBusyDeveloper(ctx, f.project)
	require.NoError(t, err)
	require.NotNil(t, dev)
	assert.Equal(t, f.devID, dev.ID.String())

	got, err := f.projectRepo.GetByID(ctx, f.project.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Developers, 1)
	assert.Equal(t, f.devID, got.Developers[0].ID.String())
}
