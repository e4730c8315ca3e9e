// Package repository persists user preferences in PostgreSQL. The nested
// preference groups are stored as JSONB so the matching configuration can
// evolve without schema churn.
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

	"leadpilot_backend/internal/preferences/domain"
	"leadpilot_backend/platform/apperr"
)

const preferenceNotFoundMessage = "preferences not found"

// Repository defines preference persistence operations.
type Repository interface {
	Upsert(ctx context.Context, pref *domain.Preference) (*domain.Preference, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Preference, error)
	UpdateStats(ctx context.Context, userID uuid.UUID, stats domain.Stats) error
	Delete(ctx context.Context, userID uuid.UUID) error
	ListWithAPIKeys(ctx context.Context) ([]*domain.Preference, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new preferences repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const preferenceColumns = `id, user_id, geographic, business, triggers, scoring, notifications, api_settings, custom_filters, data_keys, stats, created_at, updated_at`

// Upsert inserts the preference row for a user or replaces the existing one.
// Stats are preserved across replacements; they are owned by the sync engine.
func (r *Repo) Upsert(ctx context.Context, pref *domain.Preference) (*domain.Preference, error) {
	geographic, business, triggers, scoring, notifications, apiSettings, err := marshalGroups(pref)
	if err != nil {
		return nil, err
	}
	customFilters, err := json.Marshal(orEmptyMap(pref.CustomFilters))
	if err != nil {
		return nil, fmt.Errorf("marshal custom filters: %w", err)
	}
	dataKeys, err := json.Marshal(orEmptyMap(pref.DataKeys))
	if err != nil {
		return nil, fmt.Errorf("marshal data keys: %w", err)
	}
	stats, err := json.Marshal(pref.Stats)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}

	query := `
		INSERT INTO user_preferences (id, user_id, geographic, business, triggers, scoring, notifications, api_settings, custom_filters, data_keys, stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			geographic = EXCLUDED.geographic,
			business = EXCLUDED.business,
			triggers = EXCLUDED.triggers,
			scoring = EXCLUDED.scoring,
			notifications = EXCLUDED.notifications,
			api_settings = EXCLUDED.api_settings,
			custom_filters = EXCLUDED.custom_filters,
			data_keys = EXCLUDED.data_keys,
			updated_at = NOW()
		RETURNING ` + preferenceColumns

	row := r.pool.QueryRow(ctx, query,
		uuid.New(), pref.UserID,
		geographic, business, triggers, scoring, notifications, apiSettings,
		customFilters, dataKeys, stats,
	)
	saved, err := scanPreference(row)
	if err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}
	return saved, nil
}

// GetByUserID retrieves the preference row for a user.
func (r *Repo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Preference, error) {
	query := `SELECT ` + preferenceColumns + ` FROM user_preferences WHERE user_id = $1`

	row := r.pool.QueryRow(ctx, query, userID)
	pref, err := scanPreference(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(preferenceNotFoundMessage)
		}
		return nil, fmt.Errorf("get preferences by user id: %w", err)
	}
	return pref, nil
}

// UpdateStats replaces the stats document for a user. Called by the sync
// engine after every run, including failed ones.
func (r *Repo) UpdateStats(ctx context.Context, userID uuid.UUID, stats domain.Stats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	query := `UPDATE user_preferences SET stats = $1, updated_at = NOW() WHERE user_id = $2`

	tag, err := r.pool.Exec(ctx, query, payload, userID)
	if err != nil {
		return fmt.Errorf("update preference stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(preferenceNotFoundMessage)
	}
	return nil
}

// Delete removes the preference row for a user.
func (r *Repo) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(preferenceNotFoundMessage)
	}
	return nil
}

// ListWithAPIKeys returns preferences of users that have at least one
// provider key configured. The daily sweep iterates this set.
func (r *Repo) ListWithAPIKeys(ctx context.Context) ([]*domain.Preference, error) {
	query := `
		SELECT ` + preferenceColumns + `
		FROM user_preferences
		WHERE api_settings -> 'keys' IS NOT NULL AND api_settings -> 'keys' <> '{}'::jsonb
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list preferences with api keys: %w", err)
	}
	defer rows.Close()

	var prefs []*domain.Preference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		if len(pref.ConfiguredProviders()) == 0 {
			continue
		}
		prefs = append(prefs, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}
	return prefs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreference(row rowScanner) (*domain.Preference, error) {
	var pref domain.Preference
	var geographic, business, triggers, scoring, notifications, apiSettings, customFilters, dataKeys, stats []byte
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&pref.ID, &pref.UserID,
		&geographic, &business, &triggers, &scoring, &notifications, &apiSettings,
		&customFilters, &dataKeys, &stats,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, group := range []struct {
		raw  []byte
		dest any
	}{
		{geographic, &pref.Geographic},
		{business, &pref.Business},
		{triggers, &pref.Triggers},
		{scoring, &pref.Scoring},
		{notifications, &pref.Notifications},
		{apiSettings, &pref.API},
		{customFilters, &pref.CustomFilters},
		{dataKeys, &pref.DataKeys},
		{stats, &pref.Stats},
	} {
		if len(group.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(group.raw, group.dest); err != nil {
			return nil, fmt.Errorf("unmarshal preference group: %w", err)
		}
	}

	pref.CreatedAt = createdAt
	pref.UpdatedAt = updatedAt
	return &pref, nil
}

func marshalGroups(pref *domain.Preference) (geographic, business, triggers, scoring, notifications, apiSettings []byte, err error) {
	if geographic, err = json.Marshal(pref.Geographic); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal geographic: %w", err)
	}
	if business, err = json.Marshal(pref.Business); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal business: %w", err)
	}
	if triggers, err = json.Marshal(pref.Triggers); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal triggers: %w", err)
	}
	if scoring, err = json.Marshal(pref.Scoring); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal scoring: %w", err)
	}
	if notifications, err = json.Marshal(pref.Notifications); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal notifications: %w", err)
	}
	if apiSettings, err = json.Marshal(pref.API); err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("marshal api settings: %w", err)
	}
	return geographic, business, triggers, scoring, notifications, apiSettings, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
