package service

import (
	"context"
	"errors"
	"time"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"
)

// ErrForbidden marks access violations so handlers can map them to 403.
var ErrForbidden = errors.New("not authorized")

// ProjectService defines role-scoped access to projects and the developer
// assignment policy that kicks in once a deposit is approved.
type ProjectService interface {
	List(ctx context.Context, actor Actor, status string, page, limit int) ([]model.Project, int64, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Project, error)
	UpdateStatus(ctx context.Context, actor Actor, id, status string) (*model.Project, error)
	AssignLeastBusyDeveloper(ctx context.Context, project *model.Project) (*model.User, error)
	LeastBusySales(ctx context.Context) (*model.User, error)
	CanAccess(ctx context.Context, actor Actor, project *model.Project) bool
}

type projectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
}

func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository) ProjectService {
	return &projectService{projects: projects, users: users}
}

func (s *projectService) List(ctx context.Context, actor Actor, status string, page, limit int) ([]model.Project, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	filter := repository.ProjectFilter{Status: status, Page: page, Limit: limit}
	switch actor.Role {
	case model.RoleAdmin:
		// unrestricted
	case model.RoleSales:
		filter.ManagerID = actor.ID
	case model.RoleDeveloper:
		filter.DeveloperID = actor.ID
	case model.RoleCustomer:
		customer, err := s.users.GetCustomerByUserID(ctx, actor.ID)
		if err != nil {
			return nil, 0, errors.New("customer profile not found")
		}
		filter.CustomerID = customer.ID.String()
	default:
		return nil, 0, ErrForbidden
	}

	return s.projects.List(ctx, filter)
}

func (s *projectService) Get(ctx context.Context, actor Actor, id string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("project not found")
	}
	if !s.CanAccess(ctx, actor, project) {
		return nil, ErrForbidden
	}
	return project, nil
}

// UpdateStatus lets staff move a project between lifecycle stages, e.g.
// pending_acceptance to completed once the customer signs off, or in_progress
// to on_hold. Payment-driven transitions stay inside the proposal workflow.
func (s *projectService) UpdateStatus(ctx context.Context, actor Actor, id, status string) (*model.Project, error) {
	if actor.Role != model.RoleAdmin && actor.Role != model.RoleSales {
		return nil, ErrForbidden
	}
	if !model.ValidProjectStatus(status) {
		return nil, errors.New("unknown project status")
	}

	project, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	project.Status = status
	if status == model.ProjectCompleted && project.EndDate == nil {
		now := time.Now()
		project.EndDate = &now
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// CanAccess implements the per-page role guard: admins see everything, sales
// their managed projects, developers their assignments, customers their own.
func (s *projectService) CanAccess(_ context.Context, actor Actor, project *model.Project) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleSales:
		return project.ManagerID != nil && project.ManagerID.String() == actor.ID
	case model.RoleDeveloper:
		for _, dev := range project.Developers {
			if dev.ID.String() == actor.ID {
				return true
			}
		}
		return false
	case model.RoleCustomer:
		return project.Customer != nil && project.Customer.UserID.String() == actor.ID
	}
	return false
}

// AssignLeastBusyDeveloper picks the active developer with the fewest
// in-progress assignments and attaches them to the project. Returns nil
// without error when no developer exists yet.
func (s *projectService) AssignLeastBusyDeveloper(ctx context.Context, project *model.Project) (*model.User, error) {
	devs, _, err := s.users.List(ctx, model.RoleDeveloper, 1, 100)
	if err != nil {
		return nil, err
	}

	var best *model.User
	var bestCount int64 = -1
	for i := range devs {
		dev := &devs[i]
		if !dev.IsActive {
			continue
		}
		count, err := s.projects.CountActiveByDeveloper(ctx, dev.ID.String())
		if err != nil {
			return nil, err
		}
		if bestCount < 0 || count < bestCount {
			best = dev
			bestCount = count
		}
	}
	if best == nil {
		return nil, nil
	}

	full, err := s.users.GetByID(ctx, best.ID.String())
	if err != nil {
		return nil, err
	}
	if err := s.projects.AssignDeveloper(ctx, project, full); err != nil {
		return nil, err
	}
	return full, nil
}

// LeastBusySales finds the sales user managing the fewest negotiation-stage
// projects; admins are the fallback when no sales user exists.
func (s *projectService) LeastBusySales(ctx context.Context) (*model.User, error) {
	candidates, _, err := s.users.List(ctx, model.RoleSales, 1, 100)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates, _, err = s.users.List(ctx, model.RoleAdmin, 1, 100)
		if err != nil {
			return nil, err
		}
	}

	var best *model.User
	var bestCount int64 = -1
	for i := range candidates {
		u := &candidates[i]
		if !u.IsActive {
			continue
		}
		count, err := s.projects.CountActiveByManager(ctx, u.ID.String())
		if err != nil {
			return nil, err
		}
		if bestCount < 0 || count < bestCount {
			best = u
			bestCount = count
		}
	}
	if best == nil {
		return nil, errors.New("no sales or admin user available")
	}
	return s.users.GetByID(ctx, best.ID.String())
}
