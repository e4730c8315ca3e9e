// Package companies provides a thin CRUD context for manually curated
// company records. Unlike leads, these rows are entered by users rather
// than fetched from providers.
package companies

import (
	"time"

	"github.com/google/uuid"
)

// Company is a manually curated company record.
type Company struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Domain       string    `json:"domain"`
	Industry     string    `json:"industry"`
	SizeBucket   string    `json:"sizeBucket"`
	RevenueRange string    `json:"revenueRange"`
	Technologies []string  `json:"technologies"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	CreatedBy    uuid.UUID `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListFilter narrows company listings.
type ListFilter struct {
	Industry string
	Country  string
	Search   string
	Limit    int
	Offset   int
}
