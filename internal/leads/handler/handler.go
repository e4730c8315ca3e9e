package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/repository"
	"leadpilot_backend/internal/leads/service"
	"leadpilot_backend/platform/httpkit"
)

// Handler handles HTTP requests for the shared lead pool.
type Handler struct {
	svc *service.Service
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid lead ID"
)

// New creates a new leads handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type listLeadsRequest struct {
	Provider     string `form:"provider"`
	Industry     string `form:"industry"`
	Country      string `form:"country"`
	MinEmployees int    `form:"minEmployees"`
	Search       string `form:"search"`
	Limit        int    `form:"limit"`
	Offset       int    `form:"offset"`
}

// List returns a filtered page of leads.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	var req listLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), repository.ListFilter{
		Provider:     req.Provider,
		Industry:     req.Industry,
		Country:      req.Country,
		MinEmployees: req.MinEmployees,
		Search:       req.Search,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items, "total": total})
}

// Get returns one lead.
// GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Delete removes one lead (admin only).
// DELETE /api/v1/admin/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}
