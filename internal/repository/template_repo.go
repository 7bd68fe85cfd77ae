package repository

import (
	"context"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/gorm"
)

// TemplateRepository defines data access for project templates.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.ProjectTemplate) error
	GetByID(ctx context.Context, id string) (*model.ProjectTemplate, error)
	List(ctx context.Context, category string, activeOnly bool) ([]model.ProjectTemplate, error)
	Update(ctx context.Context, tpl *model.ProjectTemplate) error
	Delete(ctx context.Context, id string) error
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tpl *model.ProjectTemplate) error {
	return GetDB(ctx, r.db).Create(tpl).Error
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*model.ProjectTemplate, error) {
	var tpl model.ProjectTemplate
	if err := GetDB(ctx, r.db).First(&tpl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) List(ctx context.Context, category string, activeOnly bool) ([]model.ProjectTemplate, error) {
	var templates []model.ProjectTemplate
	q := GetDB(ctx, r.db).Model(&model.ProjectTemplate{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("display_order ASC, name ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *model.ProjectTemplate) error {
	return GetDB(ctx, r.db).Save(tpl).Error
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ProjectTemplate{}).Error
}
