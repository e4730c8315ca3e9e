// Package repository persists lead tracking records in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadpilot_backend/internal/tracking/domain"
	"leadpilot_backend/platform/apperr"
)

const (
	trackingNotFoundMessage = "tracking record not found"
	duplicateMatchMessage   = "lead already matched for this user"

	uniqueViolationCode = "23505"
)

// ListFilter narrows and orders ListByUser results.
type ListFilter struct {
	Status   domain.Status
	Priority string
	Source   string
	MinScore int
	MaxScore int
	SortBy   string
	SortDir  string
	Limit    int
	Offset   int
}

// Repository defines tracking persistence operations.
type Repository interface {
	CreateMatch(ctx context.Context, tracking *domain.Tracking) (*domain.Tracking, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Tracking, error)
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, to domain.Status, note string, strict bool) (*domain.Tracking, error)
	AddAction(ctx context.Context, userID uuid.UUID, action *domain.Action) (*domain.Action, error)
	AddNotification(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*domain.Tracking, int, error)
	ListActions(ctx context.Context, userID, trackingID uuid.UUID) ([]*domain.Action, error)
	StatsByUser(ctx context.Context, userID uuid.UUID) (*domain.Stats, error)
	Trending(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]*domain.TrendingEntry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tracking repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const trackingColumns = `id, user_id, lead_id, status, score, priority, matched_criteria, source, notes, matched_at, viewed_at, contacted_at, converted_at, created_at, updated_at`

// CreateMatch inserts a new tracking record. The (user_id, lead_id) pair is
// unique; a second match for the same pair maps to a conflict error.
func (r *Repo) CreateMatch(ctx context.Context, tracking *domain.Tracking) (*domain.Tracking, error) {
	query := `
		INSERT INTO lead_trackings (id, user_id, lead_id, status, score, priority, matched_criteria, source, notes, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + trackingColumns

	matchedAt := tracking.MatchedAt
	if matchedAt.IsZero() {
		matchedAt = time.Now().UTC()
	}
	status := tracking.Status
	if status == "" {
		status = domain.StatusMatched
	}

	row := r.pool.QueryRow(ctx, query,
		uuid.New(), tracking.UserID, tracking.LeadID, status,
		tracking.Score, tracking.Priority, tracking.MatchedCriteria,
		tracking.Source, tracking.Notes, matchedAt,
	)
	saved, err := scanTracking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, apperr.Conflict(duplicateMatchMessage)
		}
		return nil, fmt.Errorf("create tracking match: %w", err)
	}
	return saved, nil
}

// GetByID retrieves one tracking record owned by userID.
func (r *Repo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Tracking, error) {
	query := `SELECT ` + trackingColumns + ` FROM lead_trackings WHERE id = $1 AND user_id = $2`

	tracking, err := scanTracking(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(trackingNotFoundMessage)
		}
		return nil, fmt.Errorf("get tracking by id: %w", err)
	}
	return tracking, nil
}

// UpdateStatus moves a tracking record to a new status. The status change
// and its audit action are written in one transaction; the lifecycle check
// runs against the row's current status under a row lock.
func (r *Repo) UpdateStatus(ctx context.Context, userID, id uuid.UUID, to domain.Status, note string, strict bool) (*domain.Tracking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	var from domain.Status
	err = tx.QueryRow(ctx,
		`SELECT status FROM lead_trackings WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	).Scan(&from)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(trackingNotFoundMessage)
		}
		return nil, fmt.Errorf("lock tracking row: %w", err)
	}

	if !domain.CanTransition(from, to, strict) {
		return nil, apperr.Validation(fmt.Sprintf("cannot transition from %s to %s", from, to))
	}

	query := `
		UPDATE lead_trackings SET
			status = $1,
			viewed_at = CASE WHEN $1 = 'viewed' AND viewed_at IS NULL THEN NOW() ELSE viewed_at END,
			contacted_at = CASE WHEN $1 = 'contacted' AND contacted_at IS NULL THEN NOW() ELSE contacted_at END,
			converted_at = CASE WHEN $1 = 'converted' AND converted_at IS NULL THEN NOW() ELSE converted_at END,
			updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING ` + trackingColumns

	tracking, err := scanTracking(tx.QueryRow(ctx, query, to, id, userID))
	if err != nil {
		return nil, fmt.Errorf("update tracking status: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO lead_tracking_actions (id, tracking_id, type, note, performed_by) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), id, domain.ActionStatusChange, statusChangeNote(from, to, note), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("record status change action: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}
	return tracking, nil
}

// AddAction appends an activity entry to a tracking record the user owns.
func (r *Repo) AddAction(ctx context.Context, userID uuid.UUID, action *domain.Action) (*domain.Action, error) {
	query := `
		INSERT INTO lead_tracking_actions (id, tracking_id, type, note, performed_by)
		SELECT $1, t.id, $2, $3, $4
		FROM lead_trackings t
		WHERE t.id = $5 AND t.user_id = $6
		RETURNING id, tracking_id, type, note, performed_by, created_at`

	var saved domain.Action
	err := r.pool.QueryRow(ctx, query,
		uuid.New(), action.Type, action.Note, action.PerformedBy, action.TrackingID, userID,
	).Scan(&saved.ID, &saved.TrackingID, &saved.Type, &saved.Note, &saved.PerformedBy, &saved.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(trackingNotFoundMessage)
		}
		return nil, fmt.Errorf("add tracking action: %w", err)
	}
	return &saved, nil
}

// AddNotification records a delivered notification against a tracking record.
func (r *Repo) AddNotification(ctx context.Context, notification *domain.Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO lead_tracking_notifications (id, tracking_id, channel, message) VALUES ($1, $2, $3, $4)`,
		uuid.New(), notification.TrackingID, notification.Channel, notification.Message,
	)
	if err != nil {
		return fmt.Errorf("add tracking notification: %w", err)
	}
	return nil
}

// sortColumns whitelists sortable fields. Anything else falls back to the
// match time.
var sortColumns = map[string]string{
	"score":      "score",
	"matched_at": "matched_at",
	"updated_at": "updated_at",
	"status":     "status",
	"priority":   "priority",
}

// ListByUser returns a filtered, sorted page of the user's tracking records
// together with the unfiltered-by-page total.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*domain.Tracking, int, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		where += fmt.Sprintf(` AND priority = $%d`, len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		where += fmt.Sprintf(` AND source = $%d`, len(args))
	}
	if filter.MinScore > 0 {
		args = append(args, filter.MinScore)
		where += fmt.Sprintf(` AND score >= $%d`, len(args))
	}
	if filter.MaxScore > 0 {
		args = append(args, filter.MaxScore)
		where += fmt.Sprintf(` AND score <= $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lead_trackings `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trackings: %w", err)
	}

	sortBy, ok := sortColumns[filter.SortBy]
	if !ok {
		sortBy = "matched_at"
	}
	sortDir := "DESC"
	if filter.SortDir == "asc" {
		sortDir = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM lead_trackings %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		trackingColumns, where, sortBy, sortDir, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list trackings: %w", err)
	}
	defer rows.Close()

	var trackings []*domain.Tracking
	for rows.Next() {
		tracking, err := scanTracking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tracking: %w", err)
		}
		trackings = append(trackings, tracking)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate trackings: %w", err)
	}
	return trackings, total, nil
}

// ListActions returns the activity log for a tracking record the user owns,
// newest first.
func (r *Repo) ListActions(ctx context.Context, userID, trackingID uuid.UUID) ([]*domain.Action, error) {
	if _, err := r.GetByID(ctx, userID, trackingID); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, tracking_id, type, note, performed_by, created_at FROM lead_tracking_actions WHERE tracking_id = $1 ORDER BY created_at DESC`,
		trackingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tracking actions: %w", err)
	}
	defer rows.Close()

	var actions []*domain.Action
	for rows.Next() {
		var action domain.Action
		if err := rows.Scan(&action.ID, &action.TrackingID, &action.Type, &action.Note, &action.PerformedBy, &action.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tracking action: %w", err)
		}
		actions = append(actions, &action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking actions: %w", err)
	}
	return actions, nil
}

// StatsByUser aggregates the user's pipeline in one round trip.
func (r *Repo) StatsByUser(ctx context.Context, userID uuid.UUID) (*domain.Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG(score), 0),
			COUNT(*) FILTER (WHERE priority = 'high'),
			COUNT(*) FILTER (WHERE status = 'converted')
		FROM lead_trackings
		WHERE user_id = $1`

	stats := &domain.Stats{ByStatus: make(map[domain.Status]int)}
	var converted int
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.Total, &stats.AverageScore, &stats.HighPriority, &converted,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate tracking stats: %w", err)
	}
	if stats.Total > 0 {
		stats.ConversionRate = float64(converted) / float64(stats.Total) * 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM lead_trackings WHERE user_id = $1 GROUP BY status`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return stats, nil
}

// Trending returns the user's top matches since the given time, ranked by
// score then recency.
func (r *Repo) Trending(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]*domain.TrendingEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	query := `
		SELECT id, lead_id, score, priority, matched_at
		FROM lead_trackings
		WHERE user_id = $1 AND matched_at >= $2
		ORDER BY score DESC, matched_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending leads: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TrendingEntry
	for rows.Next() {
		var entry domain.TrendingEntry
		if err := rows.Scan(&entry.TrackingID, &entry.LeadID, &entry.Score, &entry.Priority, &entry.MatchedAt); err != nil {
			return nil, fmt.Errorf("scan trending entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trending entries: %w", err)
	}
	return entries, nil
}

// Delete removes a tracking record and its dependent rows (cascade).
func (r *Repo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM lead_trackings WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete tracking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(trackingNotFoundMessage)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracking(row rowScanner) (*domain.Tracking, error) {
	var t domain.Tracking
	err := row.Scan(
		&t.ID, &t.UserID, &t.LeadID, &t.Status, &t.Score, &t.Priority,
		&t.MatchedCriteria, &t.Source, &t.Notes, &t.MatchedAt,
		&t.ViewedAt, &t.ContactedAt, &t.ConvertedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func statusChangeNote(from, to domain.Status, note string) string {
	base := fmt.Sprintf("status changed from %s to %s", from, to)
	if note == "" {
		return base
	}
	return base + ": " + note
}
