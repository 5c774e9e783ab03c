package sqlinline

const QSelectProfileByID = `--sql 4cff2835-fb7a-4b2d-8832-c1612fc8428b
select user_id, user_class, trial_started_at, trial_ends_at, trial_expired_at, created_at, updated_at
from profiles
where user_id = $1::text
limit 1;
`

// Trials without an explicit end fall back to created_at + $2 seconds.
const QSelectExpiredTrials = `--sql 4b73200b-0540-46a0-8831-337737c58b99
select user_id, user_class, trial_started_at, trial_ends_at, trial_expired_at, created_at, updated_at
from profiles
where user_class = 'trial'
  and coalesce(trial_ends_at, created_at + make_interval(secs => $2::bigint)) <= $1::timestamptz
order by coalesce(trial_ends_at, created_at + make_interval(secs => $2::bigint)) asc, user_id asc;
`

// The user_class guard makes a second writer for the same user a no-op.
const QExpireTrial = `--sql edf2df70-f43b-4f29-9e03-23ca92f7353a
update profiles set
    user_class = $2::text,
    trial_started_at = null,
    trial_ends_at = null,
    trial_expired_at = $3::timestamptz,
    updated_at = now()
where user_id = $1::text
  and user_class = 'trial';
`

const QUpdateProfileClass = `--sql 0816a591-06b3-4184-abab-47855bf12687
update profiles set
    user_class = $2::text,
    trial_started_at = null,
    trial_ends_at = null,
    updated_at = now()
where user_id = $1::text
returning user_id, user_class, trial_started_at, trial_ends_at, trial_expired_at, created_at, updated_at;
`

const QStartTrial = `--sql 84e2dafc-b6be-4355-897c-1d0f9c849a21
update profiles set
    user_class = 'trial',
    trial_started_at = $2::timestamptz,
    trial_ends_at = $3::timestamptz,
    trial_expired_at = null,
    updated_at = now()
where user_id = $1::text
returning user_id, user_class, trial_started_at, trial_ends_at, trial_expired_at, created_at, updated_at;
`
