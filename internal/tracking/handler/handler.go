package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/internal/tracking/repository"
	"leadpilot_backend/internal/tracking/service"
	"leadpilot_backend/internal/tracking/transport"
	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/validator"
)

// Handler handles HTTP requests for lead tracking.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid tracking ID"
)

// New creates a new tracking handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create records a lead match manually.
// POST /api/v1/trackings
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tracking, err := h.svc.CreateMatch(c.Request.Context(), &domain.Tracking{
		UserID:          identity.UserID(),
		LeadID:          req.LeadID,
		Score:           req.Score,
		Priority:        req.Priority,
		MatchedCriteria: req.MatchedCriteria,
		Source:          req.Source,
		Notes:           req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, tracking)
}

// List returns the caller's tracking records.
// GET /api/v1/trackings
func (h *Handler) List(c *gin.Context) {
	var req transport.ListTrackingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), identity.UserID(), repository.ListFilter{
		Status:   domain.Status(req.Status),
		Priority: req.Priority,
		Source:   req.Source,
		MinScore: req.MinScore,
		MaxScore: req.MaxScore,
		SortBy:   req.SortBy,
		SortDir:  req.SortDir,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ListTrackingsResponse{
		Items:  items,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

// Get returns one tracking record.
// GET /api/v1/trackings/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tracking, err := h.svc.Get(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tracking)
}

// UpdateStatus moves a tracking record through its lifecycle.
// PATCH /api/v1/trackings/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tracking, err := h.svc.UpdateStatus(c.Request.Context(), identity.UserID(), id, domain.Status(req.Status), req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, tracking)
}

// AddAction appends an activity entry.
// POST /api/v1/trackings/:id/actions
func (h *Handler) AddAction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.AddActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	action, err := h.svc.AddAction(c.Request.Context(), identity.UserID(), id, domain.ActionType(req.Type), req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, action)
}

// ListActions returns the activity log for a tracking record.
// GET /api/v1/trackings/:id/actions
func (h *Handler) ListActions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	actions, err := h.svc.ListActions(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": actions})
}

// Stats returns the caller's pipeline aggregate.
// GET /api/v1/trackings/stats
func (h *Handler) Stats(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// Trending returns the caller's top matches by score then recency.
// GET /api/v1/trackings/trending
func (h *Handler) Trending(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.svc.Trending(c.Request.Context(), identity.UserID(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": entries})
}

// Delete removes a tracking record.
// DELETE /api/v1/trackings/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), identity.UserID(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}
