package repository

import (
	"context"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProposalRepository defines data access for Proposal entities. GetForUpdate
// takes a row lock so workflow mutations can re-check their preconditions
// without racing duplicate submissions.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *model.Proposal) error
	GetByID(ctx context.Context, id string) (*model.Proposal, error)
	GetForUpdate(ctx context.Context, id string) (*model.Proposal, error)
	ListByProject(ctx context.Context, projectID string, includeDrafts bool) ([]model.Proposal, error)
	Update(ctx context.Context, proposal *model.Proposal) error
}

type proposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) Create(ctx context.Context, proposal *model.Proposal) error {
	return GetDB(ctx, r.db).Create(proposal).Error
}

func (r *proposalRepository) GetByID(ctx context.Context, id string) (*model.Proposal, error) {
	var proposal model.Proposal
	err := GetDB(ctx, r.db).
		Preload("Project").Preload("Project.Customer").Preload("Author").
		First(&proposal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepository) GetForUpdate(ctx context.Context, id string) (*model.Proposal, error) {
	q := GetDB(ctx, r.db)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var proposal model.Proposal
	if err := q.First(&proposal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepository) ListByProject(ctx context.Context, projectID string, includeDrafts bool) ([]model.Proposal, error) {
	var proposals []model.Proposal
	q := GetDB(ctx, r.db).
		Preload("Author").
		Where("project_id = ?", projectID)
	if !includeDrafts {
		q = q.Where("status <> ?", model.ProposalDraft)
	}
	if err := q.Order("created_at DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *proposalRepository) Update(ctx context.Context, proposal *model.Proposal) error {
	return GetDB(ctx, r.db).Save(proposal).Error
}
