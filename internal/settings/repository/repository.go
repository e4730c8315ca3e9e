// Package repository persists per-user provider sync schedules.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/platform/apperr"
)

const apiConfigNotFoundMessage = "api config not found"

// Run outcome labels stored on a config after each attempt.
const (
	RunStatusPending = "pending"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// APIConfig is one scheduled provider sync for one user.
type APIConfig struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	Provider      string     `json:"provider"`
	Schedule      string     `json:"schedule"`
	Enabled       bool       `json:"enabled"`
	RetryAttempts int        `json:"retryAttempts"`
	RetryDelaySec int        `json:"retryDelaySec"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	LastStatus    string     `json:"lastStatus,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Repository defines api config persistence operations.
type Repository interface {
	Upsert(ctx context.Context, cfg *APIConfig) (*APIConfig, error)
	GetByID(ctx context.Context, id uuid.UUID) (*APIConfig, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*APIConfig, error)
	ListEnabled(ctx context.Context) ([]*APIConfig, error)
	SetLastRun(ctx context.Context, id uuid.UUID, status, lastError string) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new api config repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const apiConfigColumns = `id, user_id, provider, schedule, enabled, retry_attempts, retry_delay_sec, last_run_at, last_status, last_error, created_at, updated_at`

// Upsert inserts or replaces the schedule for a (user, provider) pair.
func (r *Repo) Upsert(ctx context.Context, cfg *APIConfig) (*APIConfig, error) {
	query := `
		INSERT INTO api_configs (id, user_id, provider, schedule, enabled, retry_attempts, retry_delay_sec)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			schedule = EXCLUDED.schedule,
			enabled = EXCLUDED.enabled,
			retry_attempts = EXCLUDED.retry_attempts,
			retry_delay_sec = EXCLUDED.retry_delay_sec,
			updated_at = NOW()
		RETURNING ` + apiConfigColumns

	saved, err := scanAPIConfig(r.pool.QueryRow(ctx, query,
		uuid.New(), cfg.UserID, cfg.Provider, cfg.Schedule, cfg.Enabled,
		cfg.RetryAttempts, cfg.RetryDelaySec,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert api config: %w", err)
	}
	return saved, nil
}

// GetByID retrieves one api config.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*APIConfig, error) {
	cfg, err := scanAPIConfig(r.pool.QueryRow(ctx,
		`SELECT `+apiConfigColumns+` FROM api_configs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apiConfigNotFoundMessage)
		}
		return nil, fmt.Errorf("get api config by id: %w", err)
	}
	return cfg, nil
}

// ListByUser returns a user's schedules.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*APIConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+apiConfigColumns+` FROM api_configs WHERE user_id = $1 ORDER BY provider ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api configs by user: %w", err)
	}
	defer rows.Close()
	return collectAPIConfigs(rows)
}

// ListEnabled returns every enabled schedule. The cron runner installs
// these on startup and on reload.
func (r *Repo) ListEnabled(ctx context.Context) ([]*APIConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+apiConfigColumns+` FROM api_configs WHERE enabled ORDER BY user_id, provider`)
	if err != nil {
		return nil, fmt.Errorf("list enabled api configs: %w", err)
	}
	defer rows.Close()
	return collectAPIConfigs(rows)
}

// SetLastRun records the outcome of the latest run.
func (r *Repo) SetLastRun(ctx context.Context, id uuid.UUID, status, lastError string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_configs SET last_run_at = NOW(), last_status = $1, last_error = $2, updated_at = NOW() WHERE id = $3`,
		status, lastError, id)
	if err != nil {
		return fmt.Errorf("set api config last run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apiConfigNotFoundMessage)
	}
	return nil
}

// Delete removes one schedule owned by the user.
func (r *Repo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM api_configs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete api config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apiConfigNotFoundMessage)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIConfig(row rowScanner) (*APIConfig, error) {
	var cfg APIConfig
	err := row.Scan(
		&cfg.ID, &cfg.UserID, &cfg.Provider, &cfg.Schedule, &cfg.Enabled,
		&cfg.RetryAttempts, &cfg.RetryDelaySec,
		&cfg.LastRunAt, &cfg.LastStatus, &cfg.LastError,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func collectAPIConfigs(rows pgx.Rows) ([]*APIConfig, error) {
	var configs []*APIConfig
	for rows.Next() {
		cfg, err := scanAPIConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api config: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api configs: %w", err)
	}
	return configs, nil
}
