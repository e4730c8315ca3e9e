package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/internal/preferences/service"
	"leadpilot_backend/internal/preferences/transport"
	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/validator"
)

// Handler handles HTTP requests for user preferences.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const msgInvalidRequest = "invalid request"

// New creates a new preferences handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Save creates or replaces the caller's preferences.
// PUT /api/v1/preferences
func (h *Handler) Save(c *gin.Context) {
	var req transport.SavePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	pref := &domain.Preference{
		UserID:        identity.UserID(),
		Geographic:    req.Geographic,
		Business:      req.Business,
		Triggers:      req.Triggers,
		Notifications: req.Notifications,
		API:           req.API,
		CustomFilters: req.CustomFilters,
		DataKeys:      req.DataKeys,
	}
	if req.Scoring != nil {
		pref.Scoring = *req.Scoring
	}

	saved, err := h.svc.Save(c.Request.Context(), pref)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(saved))
}

// Get returns the caller's preferences.
// GET /api/v1/preferences
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	pref, err := h.svc.Get(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(pref))
}

// Delete removes the caller's preferences.
// DELETE /api/v1/preferences
func (h *Handler) Delete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), identity.UserID())) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// Stats returns the caller's sync statistics.
// GET /api/v1/preferences/stats
func (h *Handler) Stats(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	pref, err := h.svc.Get(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pref.Stats)
}

func toResponse(pref *domain.Preference) transport.PreferenceResponse {
	return transport.PreferenceResponse{
		ID:                  pref.ID.String(),
		UserID:              pref.UserID.String(),
		Geographic:          pref.Geographic,
		Business:            pref.Business,
		Triggers:            pref.Triggers,
		Scoring:             pref.Scoring,
		Notifications:       pref.Notifications,
		ConfiguredProviders: pref.ConfiguredProviders(),
		CustomFilters:       pref.CustomFilters,
		DataKeys:            pref.DataKeys,
		Stats:               pref.Stats,
		CreatedAt:           pref.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           pref.UpdatedAt.Format(time.RFC3339),
	}
}
