package handler

import (
	"errors"
	"net/http"

	"github.com/hungle-gif/operisbe/internal/middleware"
	"github.com/hungle-gif/operisbe/internal/service"
	"github.com/hungle-gif/operisbe/pkg/response"

	"github.com/gin-gonic/gin"
)

// actorFrom builds the service-layer actor from the authenticated request.
func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   middleware.CurrentUserID(c),
		Role: middleware.CurrentUserRole(c),
	}
}

// fail maps service errors onto HTTP statuses: authorization failures become
// 403, missing records 404, everything else is treated as a bad request.
func fail(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrProposalNotFound),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrFeedbackNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, response.Error(status, err.Error()))
}
