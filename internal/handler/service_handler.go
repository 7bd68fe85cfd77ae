package handler

import (
	"net/http"

	"github.com/hungle-gif/operisbe/internal/middleware"
	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/service"
	"github.com/hungle-gif/operisbe/pkg/pagination"
	"github.com/hungle-gif/operisbe/pkg/response"

	"github.com/gin-gonic/gin"
)

type ServiceHandler struct {
	catalogService service.CatalogService
}

func NewServiceHandler(catalogService service.CatalogService) *ServiceHandler {
	return &ServiceHandler{catalogService: catalogService}
}

func (h *ServiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleSales)
	customer := middleware.RequireRole(model.RoleCustomer)

	services := router.Group("/api/services")
	{
		// catalog pages are public
		services.GET("", h.ListServices)
		services.GET("/categories", h.Categories)
		services.GET("/:slug", h.GetService)

		services.POST("", admin, h.CreateService)
		services.PUT("/:slug", admin, h.UpdateService)
	}

	requests := router.Group("/api/service-requests")
	{
		requests.POST("", customer, h.SubmitRequest)
		requests.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleSales, model.RoleCustomer), h.ListRequests)
		requests.POST("/:id/review", staff, h.ReviewRequest)
		requests.POST("/:id/approve", staff, h.ApproveRequest)
		requests.POST("/:id/reject", staff, h.RejectRequest)
	}
}

// ListServices returns the public catalog, optionally by category
func (h *ServiceHandler) ListServices(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true" && middleware.CurrentUserRole(c) == model.RoleAdmin

	services, err := h.catalogService.ListServices(c.Request.Context(), c.Query("category"), includeInactive)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, services))
}

// Categories lists the catalog categories with display labels
func (h *ServiceHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.catalogService.Categories()))
}

// GetService fetches one service by slug or id
func (h *ServiceHandler) GetService(c *gin.Context) {
	svc, err := h.catalogService.GetService(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, svc))
}

func (h *ServiceHandler) CreateService(c *gin.Context) {
	var req service.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	svc, err := h.catalogService.CreateService(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, svc))
}

func (h *ServiceHandler) UpdateService(c *gin.Context) {
	var req service.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	existing, err := h.catalogService.GetService(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	svc, err := h.catalogService.UpdateService(c.Request.Context(), actorFrom(c), existing.ID.String(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, svc))
}

// SubmitRequest files a customer's intake request for a service
func (h *ServiceHandler) SubmitRequest(c *gin.Context) {
	var req service.CreateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	request, err := h.catalogService.SubmitRequest(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, request))
}

// ListRequests shows the intake queue (staff) or the caller's own requests
func (h *ServiceHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.catalogService.ListRequests(c.Request.Context(), actorFrom(c), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(requests, total, params.Page, params.Limit)))
}

func (h *ServiceHandler) ReviewRequest(c *gin.Context) {
	request, err := h.catalogService.ReviewRequest(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

// ApproveRequest converts an intake request into a negotiation project
func (h *ServiceHandler) ApproveRequest(c *gin.Context) {
	request, err := h.catalogService.ApproveRequest(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}

func (h *ServiceHandler) RejectRequest(c *gin.Context) {
	request, err := h.catalogService.RejectRequest(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, request))
}
