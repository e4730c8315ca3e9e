package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/platform/apperr"
)

// Repository provides Postgres persistence for company records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a company repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyColumns = `id, name, domain, industry, size_bucket, revenue_range,
	technologies, city, country, created_by, created_at, updated_at`

// Create inserts a new company.
func (r *Repository) Create(ctx context.Context, company *Company) (*Company, error) {
	query := `
		INSERT INTO companies (name, domain, industry, size_bucket, revenue_range,
			technologies, city, country, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + companyColumns

	row := r.pool.QueryRow(ctx, query,
		company.Name, company.Domain, company.Industry, company.SizeBucket,
		company.RevenueRange, company.Technologies, company.City, company.Country,
		company.CreatedBy)

	created, err := scanCompany(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Conflict("company with this domain already exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "create company", err)
	}
	return created, nil
}

// GetByID fetches a company by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "get company", err)
	}
	return company, nil
}

// List returns companies matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
	args := []any{}

	if filter.Industry != "" {
		args = append(args, filter.Industry)
		query += fmt.Sprintf(` AND lower(industry) = lower($%d)`, len(args))
	}
	if filter.Country != "" {
		args = append(args, filter.Country)
		query += fmt.Sprintf(` AND lower(country) = lower($%d)`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND (name ILIKE $%d OR domain ILIKE $%d)`, len(args), len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, max(filter.Offset, 0))
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list companies", err)
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan company", err)
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// Update replaces the mutable fields of a company.
func (r *Repository) Update(ctx context.Context, company *Company) (*Company, error) {
	query := `
		UPDATE companies
		SET name = $2, domain = $3, industry = $4, size_bucket = $5,
			revenue_range = $6, technologies = $7, city = $8, country = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + companyColumns

	row := r.pool.QueryRow(ctx, query,
		company.ID, company.Name, company.Domain, company.Industry,
		company.SizeBucket, company.RevenueRange, company.Technologies,
		company.City, company.Country)

	updated, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update company", err)
	}
	return updated, nil
}

// Delete removes a company.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete company", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("company not found")
	}
	return nil
}

func scanCompany(row pgx.Row) (*Company, error) {
	var company Company
	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Domain,
		&company.Industry,
		&company.SizeBucket,
		&company.RevenueRange,
		&company.Technologies,
		&company.City,
		&company.Country,
		&company.CreatedBy,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &company, nil
}
