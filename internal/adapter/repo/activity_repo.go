package repo

import (
	"context"
	"time"

	"engine/internal/domain"
	"engine/internal/infra"
	"engine/internal/sqlinline"
)

// ActivityCounterRepositoryPG implements domain.ActivityCounterRepository backed by PostgreSQL.
type ActivityCounterRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewActivityCounterRepository constructs the repository.
func NewActivityCounterRepository(sql infra.SQLExecutor) *ActivityCounterRepositoryPG {
	return &ActivityCounterRepositoryPG{sql: sql}
}

// Increment upserts the counter row and returns its new value in one statement.
func (r *ActivityCounterRepositoryPG) Increment(ctx context.Context, userID string, activityType domain.ActivityType, day time.Time) (int64, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QIncrementActivityCount, userID, string(activityType), day)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the stored counter or 0 when the row does not exist.
func (r *ActivityCounterRepositoryPG) Count(ctx context.Context, userID string, activityType domain.ActivityType, day time.Time) (int64, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectActivityCount, userID, string(activityType), day)
	var count int64
	if err := row.Scan(&count); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// Range lists recorded days in [from, to] ascending.
func (r *ActivityCounterRepositoryPG) Range(ctx context.Context, userID string, activityType domain.ActivityType, from, to time.Time) ([]domain.DailyCount, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectActivityRange, userID, string(activityType), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DailyCount{}
	for rows.Next() {
		var item domain.DailyCount
		if err := rows.Scan(&item.Date, &item.Count); err != nil {
			return nil, err
		}
		item.Date = domain.Day(item.Date)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ domain.ActivityCounterRepository = (*ActivityCounterRepositoryPG)(nil)
