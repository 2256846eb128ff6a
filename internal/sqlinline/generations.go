package sqlinline

const QUpsertGenerationJob = `--sql 3c2f6a1e-9b7d-4e58-a0c4-61d2b7f4e913
insert into generation_jobs (id, kind, prompt, status, result_url, attempts, failure_reason, error_message, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::text, nullif($5::text, ''), $6::int, nullif($7::text, ''), nullif($8::text, ''), $9::timestamptz, $10::timestamptz)
on conflict (id) do update set
    status = excluded.status,
    result_url = excluded.result_url,
    attempts = excluded.attempts,
    failure_reason = excluded.failure_reason,
    error_message = excluded.error_message,
    updated_at = excluded.updated_at
where generation_jobs.status not in ('completed', 'failed');
`

const QSelectGenerationJob = `--sql 9e41b0d7-2a6c-4f83-bd15-c07a5e2f8d46
select id, kind, prompt, status, coalesce(result_url, ''), attempts,
       coalesce(failure_reason, ''), coalesce(error_message, ''), created_at, updated_at
from generation_jobs
where id = $1::text;
`

const QSelectActiveGenerationJobs = `--sql 5d8a7c30-e1f4-4b96-8a2d-3b9f0c6e7a15
select id, kind, prompt, status, coalesce(result_url, ''), attempts,
       coalesce(failure_reason, ''), coalesce(error_message, ''), created_at, updated_at
from generation_jobs
where status in ('pending', 'processing')
order by created_at asc;
`
