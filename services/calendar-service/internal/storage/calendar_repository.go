package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/coachcal/coachcal/libs/db"
	"github.com/coachcal/coachcal/services/calendar-service/internal/model"
)

type CalendarRepository struct {
	pool *db.Pool
}

func NewCalendarRepository(pool *db.Pool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

func (r *CalendarRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateSlot inserts one availability slot and returns its id.
func (r *CalendarRepository) CreateSlot(ctx context.Context, tx pgx.Tx, coachID string, start, end time.Time) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO availability_slots (coach_id, start_time, end_time)
		VALUES ($1, $2, $3)
		RETURNING id
	`, coachID, start, end).Scan(&id)
	return id, err
}

// CreateSlotBatch inserts every window in one transaction. The recurrence
// expansion is atomic: either all generated slots land or none do.
func (r *CalendarRepository) CreateSlotBatch(ctx context.Context, tx pgx.Tx, coachID string, windows [][2]time.Time) ([]int64, error) {
	ids := make([]int64, 0, len(windows))
	for _, w := range windows {
		id, err := r.CreateSlot(ctx, tx, coachID, w[0], w[1])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteSlot removes a single slot owned by the coach.
func (r *CalendarRepository) DeleteSlot(ctx context.Context, coachID string, slotID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE id = $1 AND coach_id = $2
	`, slotID, coachID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteSlotBatch removes the matched recurring slots in one statement
// inside the caller's transaction: all-or-nothing, never partial.
func (r *CalendarRepository) DeleteSlotBatch(ctx context.Context, tx pgx.Tx, coachID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := tx.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE coach_id = $1 AND id = ANY($2)
	`, coachID, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListSlots returns the coach's slots intersecting [start, end).
func (r *CalendarRepository) ListSlots(ctx context.Context, coachID string, start, end time.Time) ([]model.AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, coach_id, start_time, end_time, created_at
		FROM availability_slots
		WHERE coach_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, coachID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.AvailabilitySlot
	for rows.Next() {
		var s model.AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.CoachID, &s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return slots, nil
}

// ListUpcomingSlots returns every slot dated from start onward, for
// recurrence matching.
func (r *CalendarRepository) ListUpcomingSlots(ctx context.Context, coachID string, start time.Time) ([]model.AvailabilitySlot, error) {
	return r.ListSlots(ctx, coachID, start, start.AddDate(1, 0, 0))
}

// CreateSession inserts a booking request.
func (r *CalendarRepository) CreateSession(ctx context.Context, tx pgx.Tx, sess *model.CoachingSession) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO coaching_sessions
			(id, coach_id, student_id, offering, kind, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sess.ID, sess.CoachID, sess.StudentID, sess.Offering, sess.Kind, sess.Status,
		sess.StartTime, sess.EndTime)
	return err
}

// ListSessions returns the coach's non-canceled sessions intersecting
// [start, end). Unscheduled sessions have no window and never intersect.
func (r *CalendarRepository) ListSessions(ctx context.Context, coachID string, start, end time.Time) ([]model.CoachingSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, coach_id, student_id, offering, kind, status, start_time, end_time, created_at
		FROM coaching_sessions
		WHERE coach_id = $1
			AND status <> 'canceled'
			AND start_time IS NOT NULL
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, coachID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListRecentSessions returns the coach's latest sessions regardless of
// scheduling state, newest first.
func (r *CalendarRepository) ListRecentSessions(ctx context.Context, coachID string, limit int) ([]model.CoachingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, coach_id, student_id, offering, kind, status, start_time, end_time, created_at
		FROM coaching_sessions
		WHERE coach_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, coachID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]model.CoachingSession, error) {
	var sessions []model.CoachingSession
	for rows.Next() {
		var s model.CoachingSession
		if err := rows.Scan(&s.ID, &s.CoachID, &s.StudentID, &s.Offering, &s.Kind, &s.Status,
			&s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return sessions, nil
}

// IsConflict reports a Postgres exclusion-constraint violation; the database
// is the overlap authority, not this service.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
