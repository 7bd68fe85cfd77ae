package repository

import (
	"context"

	"github.com/hungle-gif/operisbe/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository defines data access for services and service requests.
type CatalogRepository interface {
	CreateService(ctx context.Context, svc *model.Service) error
	GetServiceBySlug(ctx context.Context, slug string) (*model.Service, error)
	GetServiceByID(ctx context.Context, id string) (*model.Service, error)
	ListServices(ctx context.Context, category string, activeOnly bool) ([]model.Service, error)
	UpdateService(ctx context.Context, svc *model.Service) error

	CreateRequest(ctx context.Context, req *model.ServiceRequest) error
	GetRequestByID(ctx context.Context, id string) (*model.ServiceRequest, error)
	ListRequests(ctx context.Context, status, customerID string, page, limit int) ([]model.ServiceRequest, int64, error)
	UpdateRequest(ctx context.Context, req *model.ServiceRequest) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateService(ctx context.Context, svc *model.Service) error {
	return GetDB(ctx, r.db).Create(svc).Error
}

func (r *catalogRepository) GetServiceBySlug(ctx context.Context, slug string) (*model.Service, error) {
	var svc model.Service
	if err := GetDB(ctx, r.db).First(&svc, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *catalogRepository) GetServiceByID(ctx context.Context, id string) (*model.Service, error) {
	var svc model.Service
	if err := GetDB(ctx, r.db).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *catalogRepository) ListServices(ctx context.Context, category string, activeOnly bool) ([]model.Service, error) {
	var services []model.Service
	q := GetDB(ctx, r.db).Model(&model.Service{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order(`"order" ASC, is_featured DESC, name ASC`).Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *catalogRepository) UpdateService(ctx context.Context, svc *model.Service) error {
	return GetDB(ctx, r.db).Save(svc).Error
}

func (r *catalogRepository) CreateRequest(ctx context.Context, req *model.ServiceRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *catalogRepository) GetRequestByID(ctx context.Context, id string) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	err := GetDB(ctx, r.db).Preload("Service").Preload("Requester").First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *catalogRepository) ListRequests(ctx context.Context, status, customerID string, page, limit int) ([]model.ServiceRequest, int64, error) {
	var requests []model.ServiceRequest
	var total int64

	q := GetDB(ctx, r.db).Model(&model.ServiceRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := q.Preload("Service").Preload("Requester").
		Offset(offset).Limit(limit).Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *catalogRepository) UpdateRequest(ctx context.Context, req *model.ServiceRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}
