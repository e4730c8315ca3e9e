package companies

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadpilot_backend/platform/httpkit"
	"leadpilot_backend/platform/validator"
)

// Handler handles HTTP requests for company records.
type Handler struct {
	repo *Repository
	val  *validator.Validator
}

type companyRequest struct {
	Name         string   `json:"name" validate:"required,max=300"`
	Domain       string   `json:"domain" validate:"max=300"`
	Industry     string   `json:"industry" validate:"max=200"`
	SizeBucket   string   `json:"sizeBucket" validate:"max=50"`
	RevenueRange string   `json:"revenueRange" validate:"max=50"`
	Technologies []string `json:"technologies" validate:"max=100,dive,max=100"`
	City         string   `json:"city" validate:"max=200"`
	Country      string   `json:"country" validate:"max=200"`
}

// NewHandler creates a companies handler.
func NewHandler(repo *Repository, val *validator.Validator) *Handler {
	return &Handler{repo: repo, val: val}
}

// Create adds a new company record.
// POST /api/v1/companies
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	created, err := h.repo.Create(c.Request.Context(), companyFromRequest(req, identity.UserID()))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, created)
}

// Get returns a single company.
// GET /api/v1/companies/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid company id", nil)
		return
	}

	company, err := h.repo.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, company)
}

// List returns companies matching the query filters.
// GET /api/v1/companies
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	companies, err := h.repo.List(c.Request.Context(), ListFilter{
		Industry: c.Query("industry"),
		Country:  c.Query("country"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"companies": companies})
}

// Update replaces a company's fields.
// PUT /api/v1/companies/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid company id", nil)
		return
	}

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	company := companyFromRequest(req, uuid.Nil)
	company.ID = id
	updated, err := h.repo.Update(c.Request.Context(), company)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, updated)
}

// Delete removes a company record.
// DELETE /api/v1/companies/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid company id", nil)
		return
	}

	if httpkit.HandleError(c, h.repo.Delete(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

func companyFromRequest(req companyRequest, createdBy uuid.UUID) *Company {
	return &Company{
		Name:         strings.TrimSpace(req.Name),
		Domain:       strings.ToLower(strings.TrimSpace(req.Domain)),
		Industry:     strings.TrimSpace(req.Industry),
		SizeBucket:   req.SizeBucket,
		RevenueRange: req.RevenueRange,
		Technologies: req.Technologies,
		City:         strings.TrimSpace(req.City),
		Country:      strings.TrimSpace(req.Country),
		CreatedBy:    createdBy,
	}
}
