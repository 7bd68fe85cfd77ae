package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrServiceNotFound   = errors.New("service not found")
	ErrRequestNotFound   = errors.New("service request not found")
	ErrRequestNotPending = errors.New("service request already reviewed")
	ErrSlugTaken         = errors.New("a service with this slug already exists")
)

type CreateServiceRequest struct {
	Name                 string           `json:"name" binding:"required"`
	Slug                 string           `json:"slug"`
	Category             string           `json:"category"`
	ShortDescription     string           `json:"short_description"`
	FullDescription      string           `json:"full_description"`
	KeyFeatures          model.StringList `json:"key_features"`
	ProcessStages        model.StringList `json:"process_stages"`
	Technologies         model.StringList `json:"technologies"`
	EstimatedDurationMin int              `json:"estimated_duration_min"`
	EstimatedDurationMax int              `json:"estimated_duration_max"`
	PriceRangeMin        *decimal.Decimal `json:"price_range_min"`
	PriceRangeMax        *decimal.Decimal `json:"price_range_max"`
	Icon                 string           `json:"icon"`
	Thumbnail            string           `json:"thumbnail"`
	IsFeatured           bool             `json:"is_featured"`
	Order                int              `json:"order"`
}

type CreateServiceRequestRequest struct {
	ServiceID           string           `json:"service_id" binding:"required"`
	ContactName         string           `json:"contact_name" binding:"required"`
	ContactEmail        string           `json:"contact_email" binding:"required,email"`
	ContactPhone        string           `json:"contact_phone"`
	CompanyName         string           `json:"company_name"`
	SystemUsersCount    int              `json:"system_users_count"`
	RequiredFunctions   model.StringList `json:"required_functions"`
	SpecialRequirements string           `json:"special_requirements"`
	WorkflowDescription string           `json:"workflow_description"`
}

// CatalogService exposes the public service catalog and the intake pipeline
// that turns an approved customer request into a project.
type CatalogService interface {
	CreateService(ctx context.Context, actor Actor, req CreateServiceRequest) (*model.Service, error)
	UpdateService(ctx context.Context, actor Actor, id string, req CreateServiceRequest) (*model.Service, error)
	GetService(ctx context.Context, slugOrID string) (*model.Service, error)
	ListServices(ctx context.Context, category string, includeInactive bool) ([]model.Service, error)
	Categories() map[string]string

	SubmitRequest(ctx context.Context, actor Actor, req CreateServiceRequestRequest) (*model.ServiceRequest, error)
	ListRequests(ctx context.Context, actor Actor, status string, page, limit int) ([]model.ServiceRequest, int64, error)
	ReviewRequest(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error)
	RejectRequest(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error)
	ApproveRequest(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error)
}

type catalogService struct {
	catalog    repository.CatalogRepository
	projects   repository.ProjectRepository
	users      repository.UserRepository
	chats      repository.ChatRepository
	txm        repository.TransactionManager
	projectSvc ProjectService
}

func NewCatalogService(
	catalog repository.CatalogRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	chats repository.ChatRepository,
	txm repository.TransactionManager,
	projectSvc ProjectService,
) CatalogService {
	return &catalogService{
		catalog:    catalog,
		projects:   projects,
		users:      users,
		chats:      chats,
		txm:        txm,
		projectSvc: projectSvc,
	}
}

// slugify builds a URL slug from a service name: lowercase, non-alphanumeric
// runs collapsed to single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func (s *catalogService) CreateService(ctx context.Context, actor Actor, req CreateServiceRequest) (*model.Service, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}
	if existing, err := s.catalog.GetServiceBySlug(ctx, slug); err == nil && existing != nil {
		return nil, ErrSlugTaken
	}

	category := req.Category
	if category == "" {
		category = model.CategoryWebDevelopment
	}
	if _, ok := model.ServiceCategories[category]; !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	svc := &model.Service{
		Name:                 req.Name,
		Slug:                 slug,
		Category:             category,
		ShortDescription:     req.ShortDescription,
		FullDescription:      req.FullDescription,
		KeyFeatures:          req.KeyFeatures,
		ProcessStages:        req.ProcessStages,
		Technologies:         req.Technologies,
		EstimatedDurationMin: req.EstimatedDurationMin,
		EstimatedDurationMax: req.EstimatedDurationMax,
		PriceRangeMin:        req.PriceRangeMin,
		PriceRangeMax:        req.PriceRangeMax,
		Icon:                 req.Icon,
		Thumbnail:            req.Thumbnail,
		IsActive:             true,
		IsFeatured:           req.IsFeatured,
		Order:                req.Order,
	}
	if svc.Icon == "" {
		svc.Icon = "briefcase"
	}
	if err := s.catalog.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) UpdateService(ctx context.Context, actor Actor, id string, req CreateServiceRequest) (*model.Service, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	svc, err := s.catalog.GetServiceByID(ctx, id)
	if err != nil {
		return nil, ErrServiceNotFound
	}

	if req.Name != "" {
		svc.Name = req.Name
	}
	if req.Slug != "" && req.Slug != svc.Slug {
		if existing, err := s.catalog.GetServiceBySlug(ctx, req.Slug); err == nil && existing != nil {
			return nil, ErrSlugTaken
		}
		svc.Slug = req.Slug
	}
	if req.Category != "" {
		if _, ok := model.ServiceCategories[req.Category]; !ok {
			return nil, fmt.Errorf("unknown category %q", req.Category)
		}
		svc.Category = req.Category
	}
	svc.ShortDescription = req.ShortDescription
	svc.FullDescription = req.FullDescription
	svc.KeyFeatures = req.KeyFeatures
	svc.ProcessStages = req.ProcessStages
	svc.Technologies = req.Technologies
	svc.EstimatedDurationMin = req.EstimatedDurationMin
	svc.EstimatedDurationMax = req.EstimatedDurationMax
	svc.PriceRangeMin = req.PriceRangeMin
	svc.PriceRangeMax = req.PriceRangeMax
	if req.Icon != "" {
		svc.Icon = req.Icon
	}
	svc.Thumbnail = req.Thumbnail
	svc.IsFeatured = req.IsFeatured
	svc.Order = req.Order

	if err := s.catalog.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) GetService(ctx context.Context, slugOrID string) (*model.Service, error) {
	if _, err := uuid.Parse(slugOrID); err == nil {
		if svc, err := s.catalog.GetServiceByID(ctx, slugOrID); err == nil {
			return svc, nil
		}
	}
	svc, err := s.catalog.GetServiceBySlug(ctx, slugOrID)
	if err != nil {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

func (s *catalogService) ListServices(ctx context.Context, category string, includeInactive bool) ([]model.Service, error) {
	return s.catalog.ListServices(ctx, category, !includeInactive)
}

func (s *catalogService) Categories() map[string]string {
	return model.ServiceCategories
}

func (s *catalogService) SubmitRequest(ctx context.Context, actor Actor, req CreateServiceRequestRequest) (*model.ServiceRequest, error) {
	if actor.Role != model.RoleCustomer {
		return nil, ErrForbidden
	}

	svc, err := s.catalog.GetServiceByID(ctx, req.ServiceID)
	if err != nil || !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	customerID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, err
	}
	usersCount := req.SystemUsersCount
	if usersCount <= 0 {
		usersCount = 1
	}

	request := &model.ServiceRequest{
		ServiceID:           svc.ID,
		CustomerID:          customerID,
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		CompanyName:         req.CompanyName,
		SystemUsersCount:    usersCount,
		RequiredFunctions:   req.RequiredFunctions,
		SpecialRequirements: req.SpecialRequirements,
		WorkflowDescription: req.WorkflowDescription,
		Status:              model.RequestPending,
	}
	if err := s.catalog.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	return s.catalog.GetRequestByID(ctx, request.ID.String())
}

func (s *catalogService) ListRequests(ctx context.Context, actor Actor, status string, page, limit int) ([]model.ServiceRequest, int64, error) {
	customerID := ""
	switch actor.Role {
	case model.RoleAdmin, model.RoleSales:
	case model.RoleCustomer:
		customerID = actor.ID
	default:
		return nil, 0, ErrForbidden
	}
	return s.catalog.ListRequests(ctx, status, customerID, page, limit)
}

func (s *catalogService) ReviewRequest(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error) {
	return s.moveRequest(ctx, actor, id, model.RequestPending, model.RequestReviewing)
}

func (s *catalogService) RejectRequest(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error) {
	request, err := s.getStaffRequest(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if request.Status == model.RequestConverted || request.Status == model.RequestRejected {
		return nil, ErrRequestNotPending
	}
	request.Status = model.RequestRejected
	if err := s.catalog.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// ApproveRequest converts an intake request into a project in negotiation,
// assigns the least busy salesperson as manager and seeds the project chat
// with both parties.
func (s *catalogService) ApproveRequest(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error) {
	request, err := s.getStaffRequest(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestPending && request.Status != model.RequestReviewing {
		return nil, ErrRequestNotPending
	}

	customer, err := s.users.GetCustomerByUserID(ctx, request.CustomerID.String())
	if err != nil {
		return nil, errors.New("customer profile not found for requester")
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		manager, err := s.projectSvc.LeastBusySales(txCtx)
		if err != nil {
			return err
		}

		name := request.CompanyName
		if name == "" {
			name = request.ContactName
		}
		svcName := ""
		if request.Service != nil {
			svcName = request.Service.Name
		}

		project := &model.Project{
			Name:        fmt.Sprintf("%s - %s", svcName, name),
			Description: buildRequestBrief(request),
			CustomerID:  customer.ID,
			ManagerID:   &manager.ID,
			Status:      model.ProjectNegotiation,
			Priority:    model.PriorityMedium,
		}
		if err := s.projects.Create(txCtx, project); err != nil {
			return err
		}

		if err := s.chats.EnsureParticipant(txCtx, project.ID.String(), manager.ID.String()); err != nil {
			return err
		}
		if err := s.chats.EnsureParticipant(txCtx, project.ID.String(), request.CustomerID.String()); err != nil {
			return err
		}

		request.Status = model.RequestConverted
		request.ProjectID = &project.ID
		return s.catalog.UpdateRequest(txCtx, request)
	})
	if err != nil {
		return nil, err
	}
	return s.catalog.GetRequestByID(ctx, id)
}

func (s *catalogService) getStaffRequest(ctx context.Context, actor Actor, id string) (*model.ServiceRequest, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}
	request, err := s.catalog.GetRequestByID(ctx, id)
	if err != nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

func (s *catalogService) moveRequest(ctx context.Context, actor Actor, id, from, to string) (*model.ServiceRequest, error) {
	request, err := s.getStaffRequest(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if request.Status != from {
		return nil, ErrRequestNotPending
	}
	request.Status = to
	if err := s.catalog.UpdateRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// buildRequestBrief flattens the intake answers into the project description
// shown to the sales team.
func buildRequestBrief(r *model.ServiceRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Contact: %s <%s>", r.ContactName, r.ContactEmail)
	if r.ContactPhone != "" {
		fmt.Fprintf(&b, " (%s)", r.ContactPhone)
	}
	if r.CompanyName != "" {
		fmt.Fprintf(&b, "\nCompany: %s", r.CompanyName)
	}
	fmt.Fprintf(&b, "\nExpected users: %d", r.SystemUsersCount)
	if len(r.RequiredFunctions) > 0 {
		fmt.Fprintf(&b, "\nRequired functions: %s", strings.Join(r.RequiredFunctions, ", "))
	}
	if r.WorkflowDescription != "" {
		fmt.Fprintf(&b, "\nWorkflow: %s", r.WorkflowDescription)
	}
	if r.SpecialRequirements != "" {
		fmt.Fprintf(&b, "\nSpecial requirements: %s", r.SpecialRequirements)
	}
	return b.String()
}
