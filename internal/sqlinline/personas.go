package sqlinline

// QSelectPersonaForLocale prefers a persona whose specialties include the category,
// then the least used one.
const QSelectPersonaForLocale = `--sql dc11cca7-00bd-4be4-9512-f47db00bad11
select id::text, name, coalesce(specialty, ''), coalesce(experience, ''), coalesce(voice, ''),
       coalesce(greetings ->> $1::text, ''), coalesce(perspective, ''), usage_count
from author_personas
where is_active
  and $1::text = any(languages)
order by ($2::text <> '' and $2::text = any(specialties)) desc, usage_count asc, created_at asc
limit 1;
`

const QIncrementPersonaUsage = `--sql 3f8fe9ad-6efd-442b-9b65-e3762decf855
update author_personas
set usage_count = usage_count + 1, updated_at = now()
where id = $1::uuid;
`
