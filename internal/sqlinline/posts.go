package sqlinline

// LocaleSuffix is replaced with a locale column suffix (en, ko, zh_cn, ...) before execution.
const LocaleSuffix = "{{locale}}"

const QInsertPost = `--sql 96067462-eea4-4f22-b5bc-d8daab3faf77
insert into blog_posts (
    id, slug, locale, category, keyword_id, author_persona_id,
    title_{{locale}}, excerpt_{{locale}}, content_{{locale}},
    meta_title_{{locale}}, meta_description_{{locale}},
    tags, faq_schema, images, status, generation_cost, quality_score,
    published_at, created_at, updated_at
)
values (
    $1::uuid, $2::text, $3::text, nullif($4::text, ''), $5::uuid, $6::uuid,
    $7::text, $8::text, $9::text,
    $10::text, $11::text,
    $12::text[], $13::jsonb, $14::jsonb, $15::text, $16::numeric, $17::numeric,
    $18::timestamptz, now(), now()
)
returning created_at;
`

// QSelectPostBySlug returns the whole row as json so locale columns can be picked after the fact.
const QSelectPostBySlug = `--sql 50a3d343-c0fb-425e-8351-8a42adb84e26
select p.id::text, p.slug, p.locale, coalesce(p.category, ''), p.keyword_id::text,
       p.author_persona_id::text, p.status, coalesce(p.generation_cost, 0)::float8,
       p.quality_score::float8, p.published_at, p.created_at,
       coalesce(p.tags, '{}'::text[]), coalesce(p.faq_schema, '[]'::jsonb), coalesce(p.images, '[]'::jsonb),
       to_jsonb(p)
from blog_posts p
where p.slug = $1::text;
`

const QDeletePost = `--sql b81d4f60-2e7a-4c39-9a05-6f3e1c8d27b4
delete from blog_posts
where id = $1::uuid;
`
