package sqlinline

// user_activity_counts has a unique (user_id, activity_type, activity_date)
// constraint; the increment relies on it to upsert atomically.

const QIncrementActivityCount = `--sql b005c34d-5bbe-488d-895e-22ec7ceb8a1e
insert into user_activity_counts (user_id, activity_type, activity_date, count, created_at, updated_at)
values ($1::text, $2::text, $3::date, 1, now(), now())
on conflict (user_id, activity_type, activity_date) do update set
    count = user_activity_counts.count + 1,
    updated_at = now()
returning count;
`

const QSelectActivityCount = `--sql 7861cc4f-7fc4-42e9-ad4f-eb58d55f0974
select count
from user_activity_counts
where user_id = $1::text
  and activity_type = $2::text
  and activity_date = $3::date
limit 1;
`

const QSelectActivityRange = `--sql d9fd9cae-1eb9-46f0-9a26-fb52c7267f75
select activity_date, count
from user_activity_counts
where user_id = $1::text
  and activity_type = $2::text
  and activity_date between $3::date and $4::date
  and count > 0
order by activity_date asc;
`
