package handler

import (
	"net/http"
	"strconv"

	"github.com/hungle-gif/operisbe/internal/middleware"
	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/service"
	"github.com/hungle-gif/operisbe/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProposalHandler struct {
	proposalService service.ProposalService
}

func NewProposalHandler(proposalService service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

func (h *ProposalHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSales, model.RoleDeveloper, model.RoleCustomer)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleSales)
	customer := middleware.RequireRole(model.RoleCustomer)

	router.POST("/api/projects/:id/proposals", staff, h.CreateProposal)
	router.GET("/api/projects/:id/proposals", anyRole, h.ListProposals)

	proposals := router.Group("/api/proposals/:id")
	{
		proposals.GET("", anyRole, h.GetProposal)
		proposals.PUT("", staff, h.UpdateProposal)
		proposals.POST("/send", staff, h.SendProposal)

		proposals.POST("/approve-section", customer, h.ApproveSection)
		proposals.POST("/accept", customer, h.Accept)
		proposals.POST("/reject", customer, h.Reject)

		proposals.POST("/submit-payment", customer, h.SubmitDepositPayment)
		proposals.POST("/approve-payment", staff, h.ApproveDepositPayment)
		proposals.POST("/reject-payment", staff, h.RejectDepositPayment)

		proposals.POST("/phases/:index/complete", staff, h.CompletePhase)
		proposals.POST("/phases/:index/submit-payment", customer, h.SubmitPhasePayment)
		proposals.POST("/phases/:index/approve-payment", staff, h.ApprovePhasePayment)
		proposals.POST("/phases/:index/reject-payment", staff, h.RejectPhasePayment)

		proposals.GET("/payment-qr", anyRole, h.PaymentQR)
	}
}

func phaseIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "phase index must be a number"))
		return 0, false
	}
	return idx, true
}

// CreateProposal creates a draft proposal for a project
// @Summary Create proposal draft
// @Tags proposals
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body service.CreateProposalRequest true "Proposal payload"
// @Success 201 {object} response.Response
// @Security BearerAuth
// @Router /api/projects/{id}/proposals [post]
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	var req service.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	proposal, err := h.proposalService.Create(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, proposal))
}

// ListProposals lists a project's proposals; drafts are hidden from customers
func (h *ProposalHandler) ListProposals(c *gin.Context) {
	proposals, err := h.proposalService.ListByProject(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposals))
}

// GetProposal returns one proposal; a customer's first view of a sent
// proposal marks it viewed
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	proposal, err := h.proposalService.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// UpdateProposal edits proposal sections while negotiation is still open
func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
	var req service.UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	proposal, err := h.proposalService.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// SendProposal moves a validated draft to sent
func (h *ProposalHandler) SendProposal(c *gin.Context) {
	proposal, err := h.proposalService.Send(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

type approveSectionRequest struct {
	Section string `json:"section" binding:"required"`
}

// ApproveSection sets one customer approval flag; the fifth flag accepts the
// proposal
func (h *ProposalHandler) ApproveSection(c *gin.Context) {
	var req approveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	proposal, err := h.proposalService.ApproveSection(c.Request.Context(), actorFrom(c), c.Param("id"), req.Section)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// Accept accepts the proposal outright
func (h *ProposalHandler) Accept(c *gin.Context) {
	var req service.CustomerResponseRequest
	_ = c.ShouldBindJSON(&req)

	proposal, err := h.proposalService.Accept(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// Reject sends the proposal back to negotiation with a reason
func (h *ProposalHandler) Reject(c *gin.Context) {
	var req service.CustomerResponseRequest
	_ = c.ShouldBindJSON(&req)

	proposal, err := h.proposalService.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// SubmitDepositPayment records that the customer transferred the deposit
func (h *ProposalHandler) SubmitDepositPayment(c *gin.Context) {
	proposal, err := h.proposalService.SubmitDepositPayment(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// ApproveDepositPayment confirms the deposit arrived and starts the project
func (h *ProposalHandler) ApproveDepositPayment(c *gin.Context) {
	proposal, err := h.proposalService.ApproveDepositPayment(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// RejectDepositPayment clears a deposit submission that could not be verified
func (h *ProposalHandler) RejectDepositPayment(c *gin.Context) {
	proposal, err := h.proposalService.RejectDepositPayment(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// CompletePhase marks a development phase finished
func (h *ProposalHandler) CompletePhase(c *gin.Context) {
	idx, ok := phaseIndex(c)
	if !ok {
		return
	}
	proposal, err := h.proposalService.CompletePhase(c.Request.Context(), actorFrom(c), c.Param("id"), idx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// SubmitPhasePayment records the customer's transfer for a completed phase
func (h *ProposalHandler) SubmitPhasePayment(c *gin.Context) {
	idx, ok := phaseIndex(c)
	if !ok {
		return
	}
	proposal, err := h.proposalService.SubmitPhasePayment(c.Request.Context(), actorFrom(c), c.Param("id"), idx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// ApprovePhasePayment confirms a phase payment arrived
func (h *ProposalHandler) ApprovePhasePayment(c *gin.Context) {
	idx, ok := phaseIndex(c)
	if !ok {
		return
	}
	proposal, err := h.proposalService.ApprovePhasePayment(c.Request.Context(), actorFrom(c), c.Param("id"), idx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// RejectPhasePayment clears a phase submission that could not be verified
func (h *ProposalHandler) RejectPhasePayment(c *gin.Context) {
	idx, ok := phaseIndex(c)
	if !ok {
		return
	}
	proposal, err := h.proposalService.RejectPhasePayment(c.Request.Context(), actorFrom(c), c.Param("id"), idx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, proposal))
}

// PaymentQR returns the VietQR image URL for the deposit or a phase
// @Summary Payment QR code URL
// @Tags proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Param phase query int false "Phase index; omit for the deposit"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/proposals/{id}/payment-qr [get]
func (h *ProposalHandler) PaymentQR(c *gin.Context) {
	var phase *int
	if raw := c.Query("phase"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "phase must be a number"))
			return
		}
		phase = &idx
	}

	url, err := h.proposalService.PaymentQR(c.Request.Context(), actorFrom(c), c.Param("id"), phase)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"qr_url": url}))
}
