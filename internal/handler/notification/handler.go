// Package notification exposes the notification feed over HTTP.
package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/middleware"
	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/service/notification"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("", h.Create)
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.CountUnread)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
	}
}

func (h *Handler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) List(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	notifications, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) CountUnread(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	count, err := h.service.CountUnread(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"unread": count})
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid notification id"))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	if err := h.service.MarkAllRead(c.Request.Context(), actor); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}
