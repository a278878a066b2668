package sqlinline

// provider_keys holds API keys set through cmd/apikey. Environment variables
// take precedence at startup.

const QSelectProviderKey = `--sql 1b6f0e3c-52a4-4d8e-9c71-0f3e6a2d4b85
select api_key
from provider_keys
where provider = $1::text
  and revoked_at is null
limit 1;
`

const QUpsertProviderKey = `--sql c4e27a90-3d1b-4f6a-8e25-7b9d0c1f6a34
insert into provider_keys (provider, api_key, source, created_at, updated_at)
values ($1::text, $2::text, $3::text, now(), now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    source = excluded.source,
    revoked_at = null,
    updated_at = now();
`

const QRevokeProviderKey = `--sql 8f30d6b2-a7c9-4e15-b4d8-26e1f9a05c7d
update provider_keys
set revoked_at = now(), updated_at = now()
where provider = $1::text
  and revoked_at is null;
`
