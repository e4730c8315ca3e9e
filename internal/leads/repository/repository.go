// Package repository persists leads in PostgreSQL. Leads are shared across
// users; per-user state lives in the tracking tables.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/leads/domain"
	"leadpilot_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

// ListFilter narrows List results.
type ListFilter struct {
	Provider     string
	Industry     string
	Country      string
	MinEmployees int
	Search       string
	Limit        int
	Offset       int
}

// Repository defines lead persistence operations.
type Repository interface {
	Upsert(ctx context.Context, lead *domain.Lead) (*domain.Lead, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Lead, int, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]*domain.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const leadColumns = `id, external_id, provider, name, website, industry, employee_count, annual_revenue, company_size, revenue_range, city, state, country, technologies, trigger_events, contact, custom_fields, created_at, updated_at`

// Upsert inserts a lead or refreshes the existing row with the same
// case-folded (name, website) pair. The second return value reports whether
// a new row was created.
func (r *Repo) Upsert(ctx context.Context, lead *domain.Lead) (*domain.Lead, bool, error) {
	contact, err := json.Marshal(lead.Contact)
	if err != nil {
		return nil, false, fmt.Errorf("marshal contact: %w", err)
	}
	custom, err := json.Marshal(orEmptyFields(lead.CustomFields))
	if err != nil {
		return nil, false, fmt.Errorf("marshal custom fields: %w", err)
	}

	query := `
		INSERT INTO leads (id, external_id, provider, name, website, industry, employee_count, annual_revenue, company_size, revenue_range, city, state, country, technologies, trigger_events, contact, custom_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (lower(name), lower(website)) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			provider = EXCLUDED.provider,
			industry = EXCLUDED.industry,
			employee_count = EXCLUDED.employee_count,
			annual_revenue = EXCLUDED.annual_revenue,
			company_size = EXCLUDED.company_size,
			revenue_range = EXCLUDED.revenue_range,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			country = EXCLUDED.country,
			technologies = EXCLUDED.technologies,
			trigger_events = EXCLUDED.trigger_events,
			contact = EXCLUDED.contact,
			custom_fields = EXCLUDED.custom_fields,
			updated_at = NOW()
		RETURNING ` + leadColumns + `, (xmax = 0) AS inserted`

	var saved domain.Lead
	var contactRaw, customRaw []byte
	var inserted bool
	err = r.pool.QueryRow(ctx, query,
		uuid.New(), lead.ExternalID, lead.Provider, lead.Name, lead.Website,
		lead.Industry, lead.EmployeeCount, lead.AnnualRevenue,
		lead.CompanySize, lead.RevenueRange,
		lead.City, lead.State, lead.Country,
		lead.Technologies, lead.TriggerEvents, contact, custom,
	).Scan(
		&saved.ID, &saved.ExternalID, &saved.Provider, &saved.Name, &saved.Website,
		&saved.Industry, &saved.EmployeeCount, &saved.AnnualRevenue,
		&saved.CompanySize, &saved.RevenueRange,
		&saved.City, &saved.State, &saved.Country,
		&saved.Technologies, &saved.TriggerEvents, &contactRaw, &customRaw,
		&saved.CreatedAt, &saved.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert lead: %w", err)
	}
	if err := unmarshalLeadDocs(&saved, contactRaw, customRaw); err != nil {
		return nil, false, err
	}
	return &saved, inserted, nil
}

// GetByID retrieves one lead.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(leadNotFoundMessage)
		}
		return nil, fmt.Errorf("get lead by id: %w", err)
	}
	return lead, nil
}

// List returns a filtered page of leads plus the total count.
func (r *Repo) List(ctx context.Context, filter ListFilter) ([]*domain.Lead, int, error) {
	where := `WHERE 1=1`
	var args []any

	if filter.Provider != "" {
		args = append(args, filter.Provider)
		where += fmt.Sprintf(` AND provider = $%d`, len(args))
	}
	if filter.Industry != "" {
		args = append(args, filter.Industry)
		where += fmt.Sprintf(` AND lower(industry) = lower($%d)`, len(args))
	}
	if filter.Country != "" {
		args = append(args, filter.Country)
		where += fmt.Sprintf(` AND lower(country) = lower($%d)`, len(args))
	}
	if filter.MinEmployees > 0 {
		args = append(args, filter.MinEmployees)
		where += fmt.Sprintf(` AND employee_count >= $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR website ILIKE $%d)`, len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// ListSince returns leads created or refreshed after the given time. The
// matcher pass uses this to score stored leads against updated preferences.
func (r *Repo) ListSince(ctx context.Context, since time.Time, limit int) ([]*domain.Lead, error) {
	if limit <= 0 || limit > 5000 {
		limit = 1000
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE updated_at >= $1 ORDER BY updated_at ASC LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list leads since: %w", err)
	}
	defer rows.Close()
	return collectLeads(rows)
}

// Delete removes one lead. Tracking rows referencing it cascade.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var lead domain.Lead
	var contactRaw, customRaw []byte
	err := row.Scan(
		&lead.ID, &lead.ExternalID, &lead.Provider, &lead.Name, &lead.Website,
		&lead.Industry, &lead.EmployeeCount, &lead.AnnualRevenue,
		&lead.CompanySize, &lead.RevenueRange,
		&lead.City, &lead.State, &lead.Country,
		&lead.Technologies, &lead.TriggerEvents, &contactRaw, &customRaw,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalLeadDocs(&lead, contactRaw, customRaw); err != nil {
		return nil, err
	}
	return &lead, nil
}

func collectLeads(rows pgx.Rows) ([]*domain.Lead, error) {
	var leads []*domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func unmarshalLeadDocs(lead *domain.Lead, contactRaw, customRaw []byte) error {
	if len(contactRaw) > 0 {
		if err := json.Unmarshal(contactRaw, &lead.Contact); err != nil {
			return fmt.Errorf("unmarshal lead contact: %w", err)
		}
	}
	if len(customRaw) > 0 {
		if err := json.Unmarshal(customRaw, &lead.CustomFields); err != nil {
			return fmt.Errorf("unmarshal lead custom fields: %w", err)
		}
	}
	return nil
}

func orEmptyFields(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
