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

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSales, model.RoleDeveloper, model.RoleCustomer)

	chat := router.Group("/api/projects/:id", anyRole)
	{
		chat.GET("/messages", h.ListMessages)
		chat.POST("/messages", h.SendMessage)
		chat.POST("/messages/:mid/read", h.MarkRead)
		chat.GET("/unread-count", h.UnreadCount)
	}
}

// ListMessages returns a project's messages oldest-first
func (h *ChatHandler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	messages, err := h.chatService.List(c.Request.Context(), actorFrom(c), c.Param("id"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, messages))
}

// SendMessage posts a message into the project conversation
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, msg))
}

// MarkRead marks one message as read by the caller
func (h *ChatHandler) MarkRead(c *gin.Context) {
	msg, err := h.chatService.MarkRead(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("mid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, msg))
}

// UnreadCount returns how many messages from others the caller has not read
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	count, err := h.chatService.UnreadCount(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"unread": count}))
}
