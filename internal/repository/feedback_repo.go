package repository

import (
	"context"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/gorm"
)

// FeedbackRepository defines data access for project acceptance feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *model.ProjectFeedback) error
	GetByID(ctx context.Context, id string) (*model.ProjectFeedback, error)
	GetByProject(ctx context.Context, projectID string) (*model.ProjectFeedback, error)
	Update(ctx context.Context, feedback *model.ProjectFeedback) error
	List(ctx context.Context, page, limit int) ([]model.ProjectFeedback, int64, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *model.ProjectFeedback) error {
	return GetDB(ctx, r.db).Create(feedback).Error
}

func (r *feedbackRepository) GetByID(ctx context.Context, id string) (*model.ProjectFeedback, error) {
	var feedback model.ProjectFeedback
	err := GetDB(ctx, r.db).
		Preload("Customer").Preload("RespondedBy").
		First(&feedback, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) GetByProject(ctx context.Context, projectID string) (*model.ProjectFeedback, error) {
	var feedback model.ProjectFeedback
	err := GetDB(ctx, r.db).
		Preload("Customer").Preload("RespondedBy").
		First(&feedback, "project_id = ?", projectID).Error
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) Update(ctx context.Context, feedback *model.ProjectFeedback) error {
	return GetDB(ctx, r.db).Save(feedback).Error
}

func (r *feedbackRepository) List(ctx context.Context, page, limit int) ([]model.ProjectFeedback, int64, error) {
	var feedbacks []model.ProjectFeedback
	var total int64

	q := GetDB(ctx, r.db).Model(&model.ProjectFeedback{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := q.Preload("Customer").Preload("RespondedBy").
		Offset(offset).Limit(limit).Order("created_at DESC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}
