package repository

import (
	"context"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/gorm"
)

// ProjectFilter narrows project listings by role and status.
type ProjectFilter struct {
	Status      string
	CustomerID  string // scope to a customer profile
	ManagerID   string // scope to a managing sales user
	DeveloperID string // scope to an assigned developer
	Page        int
	Limit       int
}

// ProjectRepository defines data access for Project entities.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error)
	Update(ctx context.Context, project *model.Project) error
	AssignDeveloper(ctx context.Context, project *model.Project, dev *model.User) error
	CountActiveByManager(ctx context.Context, managerID string) (int64, error)
	CountActiveByDeveloper(ctx context.Context, developerID string) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Create(project).Error
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := GetDB(ctx, r.db).
		Preload("Customer").Preload("Customer.User").
		Preload("Manager").Preload("Developers").
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Project{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.ManagerID != "" {
		q = q.Where("manager_id = ?", filter.ManagerID)
	}
	if filter.DeveloperID != "" {
		q = q.Joins("JOIN project_developers pd ON pd.project_id = projects.id").
			Where("pd.user_id = ?", filter.DeveloperID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Customer").Preload("Customer.User").Preload("Manager").
		Offset(offset).Limit(filter.Limit).Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Save(project).Error
}

func (r *projectRepository) AssignDeveloper(ctx context.Context, project *model.Project, dev *model.User) error {
	return GetDB(ctx, r.db).Model(project).Association("Developers").Append(dev)
}

func (r *projectRepository) CountActiveByManager(ctx context.Context, managerID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("manager_id = ? AND status = ?", managerID, model.ProjectNegotiation).
		Count(&count).Error
	return count, err
}

func (r *projectRepository) CountActiveByDeveloper(ctx context.Context, developerID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Project{}).
		Joins("JOIN project_developers pd ON pd.project_id = projects.id").
		Where("pd.user_id = ? AND projects.status = ?", developerID, model.ProjectInProgress).
		Count(&count).Error
	return count, err
}
