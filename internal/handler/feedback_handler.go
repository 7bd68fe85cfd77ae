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

type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

func (h *FeedbackHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSales, model.RoleDeveloper, model.RoleCustomer)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleSales)
	customer := middleware.RequireRole(model.RoleCustomer)

	router.POST("/api/projects/:id/acceptance", customer, h.SubmitAcceptance)
	router.GET("/api/projects/:id/acceptance", anyRole, h.GetAcceptance)

	acceptance := router.Group("/api/acceptance", staff)
	{
		acceptance.GET("", h.ListAcceptances)
		acceptance.POST("/:id/respond", h.Respond)
		acceptance.POST("/:id/complete-revision", h.CompleteRevision)
	}
}

// SubmitAcceptance records the customer's handover decision
// @Summary Accept a delivered project or request revisions
// @Tags acceptance
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body service.AcceptanceRequest true "Decision"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/projects/{id}/acceptance [post]
func (h *FeedbackHandler) SubmitAcceptance(c *gin.Context) {
	var req service.AcceptanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	feedback, err := h.feedbackService.SubmitAcceptance(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, feedback))
}

// GetAcceptance returns a project's acceptance feedback
func (h *FeedbackHandler) GetAcceptance(c *gin.Context) {
	feedback, err := h.feedbackService.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, feedback))
}

type feedbackResponseRequest struct {
	AdminResponse string `json:"admin_response" binding:"required"`
}

// Respond attaches a staff reply to customer feedback
func (h *FeedbackHandler) Respond(c *gin.Context) {
	var req feedbackResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	feedback, err := h.feedbackService.Respond(c.Request.Context(), actorFrom(c), c.Param("id"), req.AdminResponse)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, feedback))
}

// CompleteRevision marks requested revisions as delivered and re-opens review
func (h *FeedbackHandler) CompleteRevision(c *gin.Context) {
	var req feedbackResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	feedback, err := h.feedbackService.CompleteRevision(c.Request.Context(), actorFrom(c), c.Param("id"), req.AdminResponse)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, feedback))
}

// ListAcceptances returns all acceptance submissions for the staff dashboard
func (h *FeedbackHandler) ListAcceptances(c *gin.Context) {
	params := pagination.Parse(c)

	feedbacks, total, err := h.feedbackService.ListAll(c.Request.Context(), actorFrom(c), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(feedbacks, total, params.Page, params.Limit)))
}
