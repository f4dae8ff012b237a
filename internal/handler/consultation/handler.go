// Package consultation exposes consultation management over HTTP.
package consultation

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/middleware"
	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/service/consultation"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/httputil"
)

type Handler struct {
	service *consultation.Service
}

func NewHandler(service *consultation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.POST("", h.Create)
		consultations.POST("/admin", h.AdminCreate)
		consultations.GET("", h.List)
		consultations.GET("/upcoming", h.ListUpcoming)
		consultations.GET("/:id", h.Get)
		consultations.POST("/:id/accept", h.Accept)
		consultations.POST("/:id/complete", h.Complete)
		consultations.POST("/:id/cancel", h.Cancel)
		consultations.POST("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreateConsultationRequest
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

func (h *Handler) AdminCreate(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.AdminCreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	created, err := h.service.AdminCreate(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Get(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid consultation id"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) List(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	filters := &model.ConsultationFilters{}
	if status := c.Query("status"); status != "" {
		filters.Status = model.ConsultationStatus(status)
	}

	consultations, err := h.service.List(c.Request.Context(), actor, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, consultations)
}

func (h *Handler) ListUpcoming(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	consultations, err := h.service.ListUpcoming(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, consultations)
}

func (h *Handler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

type updateStatusRequest struct {
	Status model.ConsultationStatus `json:"status"`
	Type   model.ConsultationType   `json:"type"`
	Notes  string                   `json:"notes"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid consultation id"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), actor, id, req.Status, req.Type, req.Notes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Consultation, error)) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid consultation id"))
		return
	}

	updated, err := op(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}
