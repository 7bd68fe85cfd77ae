package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"

	"github.com/shopspring/decimal"
)

var ErrTemplateNotFound = errors.New("project template not found")

type TemplateRequest struct {
	Name                 string               `json:"name" binding:"required"`
	Description          string               `json:"description" binding:"required"`
	Category             string               `json:"category"`
	Icon                 string               `json:"icon"`
	PriceMin             *decimal.Decimal     `json:"price_min"`
	PriceMax             *decimal.Decimal     `json:"price_max"`
	EstimatedDurationMin int                  `json:"estimated_duration_min"`
	EstimatedDurationMax int                  `json:"estimated_duration_max"`
	KeyFeatures          model.StringList     `json:"key_features"`
	Deliverables         model.StringList     `json:"deliverables"`
	Technologies         model.StringList     `json:"technologies"`
	Phases               model.TemplatePhases `json:"phases" binding:"dive"`
	TeamStructure        model.TeamStructure  `json:"team_structure"`
	IsActive             *bool                `json:"is_active"`
	DisplayOrder         int                  `json:"display_order"`
}

// TemplateEstimate previews the phase amounts a template would produce for a
// concrete price point.
type TemplateEstimate struct {
	TemplateID string           `json:"template_id"`
	Price      decimal.Decimal  `json:"price"`
	Phases     []EstimatedPhase `json:"phases"`
}

type EstimatedPhase struct {
	Name       string          `json:"name"`
	Days       int             `json:"days"`
	Percentage int             `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// TemplateService manages the admin-curated project blueprints shown on the
// public site.
type TemplateService interface {
	Create(ctx context.Context, actor Actor, req TemplateRequest) (*model.ProjectTemplate, error)
	Update(ctx context.Context, actor Actor, id string, req TemplateRequest) (*model.ProjectTemplate, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Get(ctx context.Context, id string) (*model.ProjectTemplate, error)
	List(ctx context.Context, category string, includeInactive bool) ([]model.ProjectTemplate, error)
	Estimate(ctx context.Context, id string, price decimal.Decimal) (*TemplateEstimate, error)
}

type templateService struct {
	templates repository.TemplateRepository
}

func NewTemplateService(templates repository.TemplateRepository) TemplateService {
	return &templateService{templates: templates}
}

func validateTemplatePhases(phases model.TemplatePhases) error {
	if len(phases) == 0 {
		return nil
	}
	total := 0
	for _, p := range phases {
		total += p.Percentage
	}
	if total != 100 {
		return fmt.Errorf("phase percentages must sum to 100, got %d", total)
	}
	return nil
}

func (s *templateService) Create(ctx context.Context, actor Actor, req TemplateRequest) (*model.ProjectTemplate, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if err := validateTemplatePhases(req.Phases); err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = model.CategoryWebDevelopment
	}
	if _, ok := model.ServiceCategories[category]; !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	tpl := &model.ProjectTemplate{
		Name:                 req.Name,
		Description:          req.Description,
		Category:             category,
		Icon:                 req.Icon,
		PriceMin:             req.PriceMin,
		PriceMax:             req.PriceMax,
		EstimatedDurationMin: req.EstimatedDurationMin,
		EstimatedDurationMax: req.EstimatedDurationMax,
		KeyFeatures:          req.KeyFeatures,
		Deliverables:         req.Deliverables,
		Technologies:         req.Technologies,
		Phases:               req.Phases,
		TeamStructure:        req.TeamStructure,
		IsActive:             true,
		DisplayOrder:         req.DisplayOrder,
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) Update(ctx context.Context, actor Actor, id string, req TemplateRequest) (*model.ProjectTemplate, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	tpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, ErrTemplateNotFound
	}
	if err := validateTemplatePhases(req.Phases); err != nil {
		return nil, err
	}

	if req.Name != "" {
		tpl.Name = req.Name
	}
	if req.Description != "" {
		tpl.Description = req.Description
	}
	if req.Category != "" {
		if _, ok := model.ServiceCategories[req.Category]; !ok {
			return nil, fmt.Errorf("unknown category %q", req.Category)
		}
		tpl.Category = req.Category
	}
	tpl.Icon = req.Icon
	tpl.PriceMin = req.PriceMin
	tpl.PriceMax = req.PriceMax
	tpl.EstimatedDurationMin = req.EstimatedDurationMin
	tpl.EstimatedDurationMax = req.EstimatedDurationMax
	tpl.KeyFeatures = req.KeyFeatures
	tpl.Deliverables = req.Deliverables
	tpl.Technologies = req.Technologies
	if req.Phases != nil {
		tpl.Phases = req.Phases
	}
	if req.TeamStructure != nil {
		tpl.TeamStructure = req.TeamStructure
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	tpl.DisplayOrder = req.DisplayOrder

	if err := s.templates.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) Delete(ctx context.Context, actor Actor, id string) error {
	if actor.Role != model.RoleAdmin {
		return ErrForbidden
	}
	if _, err := s.templates.GetByID(ctx, id); err != nil {
		return ErrTemplateNotFound
	}
	return s.templates.Delete(ctx, id)
}

func (s *templateService) Get(ctx context.Context, id string) (*model.ProjectTemplate, error) {
	tpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, ErrTemplateNotFound
	}
	return tpl, nil
}

func (s *templateService) List(ctx context.Context, category string, includeInactive bool) ([]model.ProjectTemplate, error) {
	return s.templates.List(ctx, category, !includeInactive)
}

// Estimate splits a price across the template's phases by percentage. The
// final phase absorbs rounding leftovers so the amounts always sum to the
// price.
func (s *templateService) Estimate(ctx context.Context, id string, price decimal.Decimal) (*TemplateEstimate, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("price must be positive")
	}
	tpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, ErrTemplateNotFound
	}

	est := &TemplateEstimate{TemplateID: tpl.ID.String(), Price: price}
	remaining := price
	hundred := decimal.NewFromInt(100)
	for i, p := range tpl.Phases {
		amount := price.Mul(decimal.NewFromInt(int64(p.Percentage))).Div(hundred).Round(0)
		if i == len(tpl.Phases)-1 {
			amount = remaining
		}
		remaining = remaining.Sub(amount)
		est.Phases = append(est.Phases, EstimatedPhase{
			Name:       p.Name,
			Days:       p.DurationDays,
			Percentage: p.Percentage,
			Amount:     amount,
		})
	}
	return est, nil
}
