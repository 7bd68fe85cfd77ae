package handler

import (
	"net/http"

	"github.com/hungle-gif/operisbe/internal/middleware"
	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/service"
	"github.com/hungle-gif/operisbe/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TemplateHandler struct {
	templateService service.TemplateService
}

func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)

	templates := router.Group("/api/project-templates")
	{
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.GET("/:id/estimate", h.Estimate)

		templates.POST("", admin, h.CreateTemplate)
		templates.PUT("/:id", admin, h.UpdateTemplate)
		templates.DELETE("/:id", admin, h.DeleteTemplate)
	}
}

// ListTemplates returns active project templates; admins may include inactive
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true" && middleware.CurrentUserRole(c) == model.RoleAdmin

	templates, err := h.templateService.List(c.Request.Context(), c.Query("category"), includeInactive)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, templates))
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.templateService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

// Estimate previews per-phase amounts for a given price
func (h *TemplateHandler) Estimate(c *gin.Context) {
	price, err := decimal.NewFromString(c.Query("price"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "price must be a number"))
		return
	}

	estimate, err := h.templateService.Estimate(c.Request.Context(), c.Param("id"), price)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, estimate))
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tpl, err := h.templateService.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tpl))
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tpl, err := h.templateService.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tpl))
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templateService.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "template deleted"}))
}
