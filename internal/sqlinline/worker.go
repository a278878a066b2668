package sqlinline

const jobColumns = `id::text, batch_id::text, keyword_id::text, keyword, priority, status,
       quality_score::float8, blog_post_id::text, error_message, started_at, finished_at, created_at`

const batchColumns = `id::text, total, completed, failed, status, options, created_at, updated_at`

// QInsertBatchWithJobs inserts nothing unless every keyword id exists.
const QInsertBatchWithJobs = `--sql 9e020881-fc4f-477c-8292-f0f66b68e263
with requested as (
    select k.id, k.keyword, k.priority, ids.ord
    from unnest($2::uuid[]) with ordinality as ids(id, ord)
    join content_keywords k on k.id = ids.id
),
batch as (
    insert into generation_batches (id, total, completed, failed, status, options, created_at, updated_at)
    select $1::uuid, count(*), 0, 0, 'running', $4::jsonb, now(), now()
    from requested
    having count(*) = cardinality($2::uuid[])
    returning ` + batchColumns + `
),
jobs as (
    insert into generation_jobs (id, batch_id, keyword_id, keyword, priority, position, status, created_at)
    select gen_random_uuid(), batch.id, requested.id, requested.keyword,
           $3::int + requested.priority, requested.ord, 'queued', now()
    from batch cross join requested
)
select ` + batchColumns + ` from batch;
`

// QClaimNextJob claims at most one queued job; a null $1 claims across batches.
const QClaimNextJob = `--sql 059ac5eb-7963-4a0c-963a-3bb86294c37f
with next_job as (
    select id
    from generation_jobs
    where status = 'queued'
      and ($1::uuid is null or batch_id = $1::uuid)
    order by priority desc, created_at asc, position asc
    for update skip locked
    limit 1
),
updated as (
    update generation_jobs
    set status = 'running', started_at = now()
    where id in (select id from next_job)
      and status = 'queued'
    returning ` + jobColumns + `
)
select * from updated;
`

// QFinishJob closes a running job and advances its batch counters and status together.
const QFinishJob = `--sql 6acfb6eb-4b0c-497b-953e-77b38e18e018
with job as (
    update generation_jobs
    set status = case when $2::bool then 'completed' else 'failed' end,
        quality_score = $3::numeric,
        blog_post_id = $4::uuid,
        error_message = $5::text,
        finished_at = now()
    where id = $1::uuid
      and status = 'running'
    returning batch_id
),
batch as (
    update generation_batches b
    set completed = b.completed + case when $2::bool then 1 else 0 end,
        failed = b.failed + case when $2::bool then 0 else 1 end,
        status = case
            when b.completed + b.failed + 1 < b.total then 'running'
            when b.failed + case when $2::bool then 0 else 1 end = 0 then 'completed'
            when b.completed + case when $2::bool then 1 else 0 end = 0 then 'failed'
            else 'partial'
        end,
        updated_at = now()
    from job
    where b.id = job.batch_id
      and b.status = 'running'
    returning b.id::text, b.total, b.completed, b.failed, b.status, b.options, b.created_at, b.updated_at
)
select * from batch;
`

// QFailStaleJobs fails jobs left running by a worker that died or could not
// record the outcome, and advances their batches like QFinishJob does.
const QFailStaleJobs = `--sql 5c2e9a17-83d4-4f0b-a6e1-d94b07c3f28a
with stale as (
    update generation_jobs
    set status = 'failed',
        error_message = 'generation abandoned: job was left running',
        finished_at = now()
    where status = 'running'
      and started_at < now() - make_interval(secs => $1::double precision)
    returning batch_id
),
per_batch as (
    select batch_id, count(*)::int as n
    from stale
    group by batch_id
),
batch as (
    update generation_batches b
    set failed = b.failed + p.n,
        status = case
            when b.completed + b.failed + p.n < b.total then 'running'
            when b.completed = 0 then 'failed'
            else 'partial'
        end,
        updated_at = now()
    from per_batch p
    where b.id = p.batch_id
      and b.status = 'running'
    returning b.id
)
select (select count(*) from stale)::bigint;
`

const QSelectBatch = `--sql ad1229b5-1dc3-448b-9668-379c73b67ca1
select ` + batchColumns + `
from generation_batches
where id = $1::uuid;
`

const QSelectBatchJobs = `--sql 6d079ef7-c2aa-45d7-9e89-6798e53e7f97
select ` + jobColumns + `
from generation_jobs
where batch_id = $1::uuid
order by priority desc, created_at asc, position asc;
`
