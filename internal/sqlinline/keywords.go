package sqlinline

const keywordColumns = `id::text, keyword, locale, coalesce(category, ''), status, priority,
       blog_post_id::text, error_message, failure_count, created_at, updated_at`

const QSelectKeyword = `--sql aee72852-5605-4ea6-91fe-669eb9d66187
select ` + keywordColumns + `
from content_keywords
where id = $1::uuid;
`

// QBeginKeywordGeneration only matches rows no other run holds.
const QBeginKeywordGeneration = `--sql 4b6bf38c-0ca0-407d-aedd-5e505457775e
update content_keywords
set status = 'generating', updated_at = now()
where id = $1::uuid
  and status <> 'generating'
returning ` + keywordColumns + `;
`

const QMarkKeywordGenerated = `--sql cf72d7da-2582-41f6-9507-eac8772d2771
update content_keywords
set blog_post_id = $2::uuid,
    status = $3::text,
    error_message = null,
    failure_count = 0,
    updated_at = now()
where id = $1::uuid;
`

// QRollbackKeyword lands in error once failure_count reaches $3 (0 disables the limit).
const QRollbackKeyword = `--sql 7a285bc4-b9fb-435c-a20a-5ca74968d331
update content_keywords
set failure_count = failure_count + 1,
    status = case
        when $3::int > 0 and failure_count + 1 >= $3::int then 'error'
        else 'pending'
    end,
    error_message = $2::text,
    updated_at = now()
where id = $1::uuid
  and status = 'generating'
returning status;
`

const QSetKeywordStatus = `--sql f7e565b8-d070-46aa-a034-d5b7027202bc
update content_keywords
set status = $2::text, updated_at = now()
where id = $1::uuid
returning ` + keywordColumns + `;
`

const QListPendingKeywords = `--sql 9e1cc977-bf05-4699-9e06-ad34033b2f64
select ` + keywordColumns + `
from content_keywords k
where k.status = 'pending'
  and not exists (
      select 1 from generation_jobs j
      where j.keyword_id = k.id and j.status in ('queued', 'running')
  )
order by k.priority desc, k.created_at asc
limit $1::int;
`

const QResetStaleKeywords = `--sql 876ed2fb-2751-465d-b50e-b7c23d96be1b
update content_keywords
set status = 'pending',
    error_message = 'generation abandoned: keyword was left generating',
    updated_at = now()
where status = 'generating'
  and updated_at < now() - make_interval(secs => $1::double precision);
`
