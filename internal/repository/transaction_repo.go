package repository

import (
	"context"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/gorm"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Status    string
	Type      string
	ProjectID string
	Page      int
	Limit     int
}

// TransactionRepository defines data access for the payment ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	GetByID(ctx context.Context, id string) (*model.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)
	Update(ctx context.Context, tx *model.Transaction) error
	FindPending(ctx context.Context, proposalID, txType string, phaseIndex *int) (*model.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := GetDB(ctx, r.db).Preload("Project").First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	q := GetDB(ctx, r.db).Model(&model.Transaction{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := q.Offset(offset).Limit(filter.Limit).Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *model.Transaction) error {
	return GetDB(ctx, r.db).Save(tx).Error
}

func (r *transactionRepository) FindPending(ctx context.Context, proposalID, txType string, phaseIndex *int) (*model.Transaction, error) {
	var tx model.Transaction
	q := GetDB(ctx, r.db).
		Where("proposal_id = ? AND type = ? AND status = ?", proposalID, txType, model.TxPending)
	if phaseIndex != nil {
		q = q.Where("phase_index = ?", *phaseIndex)
	}
	if err := q.First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}
