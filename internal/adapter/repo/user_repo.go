package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"engine/internal/domain"
	"engine/internal/infra"
	"engine/internal/sqlinline"
)

// ProfileRepositoryPG implements domain.ProfileRepository backed by PostgreSQL.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// GetByID fetches a profile by user id.
func (r *ProfileRepositoryPG) GetByID(ctx context.Context, userID string) (*domain.UserAccount, error) {
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QSelectProfileByID, userID))
}

// ListExpiredTrials returns trial profiles whose window closed at or before now.
func (r *ProfileRepositoryPG) ListExpiredTrials(ctx context.Context, now time.Time, fallback time.Duration) ([]domain.UserAccount, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectExpiredTrials, now, int64(fallback/time.Second))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserAccount
	for rows.Next() {
		u, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireTrial applies the class change and clears trial timestamps in one
// conditional update. Zero affected rows means either another writer already
// moved the user out of trial (false, nil) or the profile is gone (ErrNotFound).
func (r *ProfileRepositoryPG) ExpireTrial(ctx context.Context, userID string, to domain.UserClass, at time.Time) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QExpireTrial, userID, string(to), at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, userID); err != nil {
		return false, err
	}
	return false, nil
}

// SetClass records an external billing change.
func (r *ProfileRepositoryPG) SetClass(ctx context.Context, userID string, class domain.UserClass) (*domain.UserAccount, error) {
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QUpdateProfileClass, userID, string(class)))
}

// StartTrial opens a trial window for the profile.
func (r *ProfileRepositoryPG) StartTrial(ctx context.Context, userID string, startedAt, endsAt time.Time) (*domain.UserAccount, error) {
	if !endsAt.After(startedAt) {
		return nil, fmt.Errorf("%w: trial must end after it starts", domain.ErrInvalidInput)
	}
	return scanProfile(r.sql.QueryRow(ctx, sqlinline.QStartTrial, userID, startedAt, endsAt))
}

func scanProfile(row pgx.Row) (*domain.UserAccount, error) {
	var (
		u     domain.UserAccount
		class string
	)
	if err := row.Scan(&u.ID, &class, &u.TrialStartedAt, &u.TrialEndsAt, &u.TrialExpiredAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.UserClass = domain.UserClass(class)
	return &u, nil
}

var _ domain.ProfileRepository = (*ProfileRepositoryPG)(nil)
