// Package scan exposes scan upload, analysis and the scan-driven
// consultation booking flow over HTTP.
package scan

import (
	"fmt"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hoosuem8800/portal-api/internal/middleware"
	"github.com/hoosuem8800/portal-api/internal/model"
	"github.com/hoosuem8800/portal-api/internal/service/scan"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/httputil"
)

const maxUploadSize = 20 << 20 // 20 MiB

type Handler struct {
	service   *scan.Service
	uploadDir string
}

func NewHandler(service *scan.Service, uploadDir string) *Handler {
	return &Handler{service: service, uploadDir: uploadDir}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	scans := r.Group("/scans")
	{
		scans.POST("", h.Upload)
		scans.GET("", h.List)
		scans.GET("/:id", h.Get)
		scans.POST("/:id/analyze", h.Analyze)
		scans.POST("/:id/suggest-consultation", h.SuggestConsultation)
		scans.POST("/:id/create-consultation", h.BookConsultation)
	}
}

func (h *Handler) Upload(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		file, err = c.FormFile("image")
	}
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("no file provided, use the file or image field"))
		return
	}
	if file.Size > maxUploadSize {
		httputil.RespondWithError(c, apperrors.Validation("file exceeds the upload size limit"))
		return
	}

	dst := filepath.Join(h.uploadDir, fmt.Sprintf("%s%s", uuid.New(), filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	created, err := h.service.Upload(c.Request.Context(), actor, dst, c.PostForm("notes"))
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
		httputil.RespondWithError(c, apperrors.Validation("invalid scan id"))
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

	filters := &model.ScanFilters{}
	if status := c.Query("status"); status != "" {
		filters.Status = model.ScanStatus(status)
	}

	scans, err := h.service.List(c.Request.Context(), actor, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, scans)
}

func (h *Handler) Analyze(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid scan id"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		file, err = c.FormFile("image")
	}
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("no file provided, use the file or image field"))
		return
	}

	src, err := file.Open()
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	defer src.Close()

	analyzed, err := h.service.Analyze(c.Request.Context(), actor, id, file.Filename, src)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, analyzed)
}

func (h *Handler) SuggestConsultation(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid scan id"))
		return
	}

	suggestion, err := h.service.SuggestConsultation(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, suggestion)
}

func (h *Handler) BookConsultation(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid scan id"))
		return
	}

	var req model.BookConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	result, err := h.service.BookConsultation(c.Request.Context(), actor, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}
