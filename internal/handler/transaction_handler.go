package handler

import (
	"net/http"

	"github.com/hungle-gif/operisbe/internal/middleware"
	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"
	"github.com/hungle-gif/operisbe/internal/service"
	"github.com/hungle-gif/operisbe/pkg/pagination"
	"github.com/hungle-gif/operisbe/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	financeService service.FinanceService
}

func NewTransactionHandler(financeService service.FinanceService) *TransactionHandler {
	return &TransactionHandler{financeService: financeService}
}

func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleSales)

	admin := middleware.RequireRole(model.RoleAdmin)

	router.GET("/api/transactions", staff, h.ListTransactions)
	router.POST("/api/transactions", admin, h.CreateTransaction)
	router.GET("/api/finance/dashboard", admin, h.Dashboard)
}

// ListTransactions filters the payment ledger
// @Summary List transactions
// @Tags finance
// @Produce json
// @Param status query string false "pending|completed|failed|cancelled"
// @Param type query string false "deposit|phase|refund|adjustment"
// @Param project_id query string false "Project ID"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.TransactionFilter{
		Status:    c.Query("status"),
		Type:      c.Query("type"),
		ProjectID: c.Query("project_id"),
		Page:      params.Page,
		Limit:     params.Limit,
	}

	txs, total, err := h.financeService.ListTransactions(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(txs, total, params.Page, params.Limit)))
}

// CreateTransaction books a manual refund or adjustment
// @Summary Record a manual ledger entry
// @Tags finance
// @Accept json
// @Produce json
// @Param request body service.ManualEntryRequest true "Entry"
// @Success 201 {object} response.Response
// @Security BearerAuth
// @Router /api/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req service.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	entry, err := h.financeService.RecordEntry(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// Dashboard returns revenue totals for the admin overview
func (h *TransactionHandler) Dashboard(c *gin.Context) {
	summary, err := h.financeService.Summary(c.Request.Context(), actorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
