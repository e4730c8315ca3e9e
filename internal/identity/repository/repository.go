// Package repository provides Postgres persistence for user accounts.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/identity/domain"
	"leadpilot_backend/platform/apperr"
)

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.Summary, error)
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	SetRoles(ctx context.Context, id uuid.UUID, roles []string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// Repo is the pgx-backed implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, roles, active, created_at, updated_at`

// Create inserts a new user account.
func (r *Repo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, password_hash, full_name, roles, active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, user.FullName, user.Roles)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "create user", err)
	}
	return created, nil
}

// GetByID fetches a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "get user", err)
	}
	return user, nil
}

// GetByEmail fetches a user by email, case-insensitively.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "get user by email", err)
	}
	return user, nil
}

// List returns summaries of all users, newest first.
func (r *Repo) List(ctx context.Context) ([]domain.Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, roles, active
		FROM users
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list users", err)
	}
	defer rows.Close()

	var summaries []domain.Summary
	for rows.Next() {
		var (
			id      uuid.UUID
			summary domain.Summary
		)
		if err := rows.Scan(&id, &summary.Email, &summary.Roles, &summary.Active); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan user", err)
		}
		summary.ID = id.String()
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// ListActiveIDs returns the IDs of all active users, for sweep enumeration.
func (r *Repo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list active users", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan user id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetRoles replaces a user's role list.
func (r *Repo) SetRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET roles = $2, updated_at = now() WHERE id = $1`, id, roles)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "set user roles", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// SetActive enables or disables a user account.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "set user active", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Roles,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
