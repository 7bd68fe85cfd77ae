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

type ProjectHandler struct {
	projectService service.ProjectService
	financeService service.FinanceService
}

func NewProjectHandler(projectService service.ProjectService, financeService service.FinanceService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, financeService: financeService}
}

func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSales, model.RoleDeveloper, model.RoleCustomer)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleSales)

	projects := router.Group("/api/projects")
	{
		projects.GET("", anyRole, h.ListProjects)
		projects.GET("/:id", anyRole, h.GetProject)
		projects.PUT("/:id/status", staff, h.UpdateStatus)
		projects.GET("/:id/financial-summary", anyRole, h.FinancialSummary)
	}
}

// ListProjects returns projects visible to the caller's role
// @Summary List projects
// @Tags projects
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	params := pagination.Parse(c)

	projects, total, err := h.projectService.List(c.Request.Context(), actorFrom(c), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(projects, total, params.Page, params.Limit)))
}

// GetProject returns a single project if the caller may see it
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectService.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves a project between lifecycle stages (staff only)
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, project))
}

// FinancialSummary returns contract value vs paid vs outstanding for a project
func (h *ProjectHandler) FinancialSummary(c *gin.Context) {
	summary, err := h.financeService.ProjectSummary(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
