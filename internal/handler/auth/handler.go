// Package auth exposes login over HTTP.
package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/service/auth"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/httputil"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, token)
}
