package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/coachcal/coachcal/libs/db"
	"github.com/coachcal/coachcal/services/calendar-service/internal/model"
)

// PolicyRepository caches per-coach booking policies replicated from
// profile-service events.
type PolicyRepository struct {
	pool *db.Pool
}

func NewPolicyRepository(pool *db.Pool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

func (r *PolicyRepository) Upsert(ctx context.Context, tx pgx.Tx, p model.CoachPolicy) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO coach_policies (coach_id, advance_notice_hours, max_horizon_months, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (coach_id) DO UPDATE
		SET advance_notice_hours = EXCLUDED.advance_notice_hours,
			max_horizon_months = EXCLUDED.max_horizon_months,
			updated_at = now()
	`, p.CoachID, p.AdvanceNoticeHours, p.MaxHorizonMonths)
	return err
}

func (r *PolicyRepository) Get(ctx context.Context, coachID string) (model.CoachPolicy, bool, error) {
	var p model.CoachPolicy
	err := r.pool.QueryRow(ctx, `
		SELECT coach_id, advance_notice_hours, max_horizon_months
		FROM coach_policies
		WHERE coach_id = $1
	`, coachID).Scan(&p.CoachID, &p.AdvanceNoticeHours, &p.MaxHorizonMonths)
	if IsNotFound(err) {
		return model.CoachPolicy{}, false, nil
	}
	if err != nil {
		return model.CoachPolicy{}, false, err
	}
	return p, true, nil
}
