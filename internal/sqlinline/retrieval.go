package sqlinline

// QSelectNearestSnippets orders by pgvector cosine distance, then by how well the source post performed.
const QSelectNearestSnippets = `--sql 9ae3257a-bb7d-4dae-ab57-2212b3c8d3b2
select coalesce(post_id::text, ''), coalesce(title, ''), snippet,
       coalesce(performance_score, 0)::float8,
       (embedding <=> $1::text::vector)::float8 as distance
from content_snippets
where locale = $2::text
  and ($3::text = '' or category = $3::text)
order by distance asc, performance_score desc nulls last
limit $4::int;
`
