package sqlinline

const QSelectIntegrationToken = `--sql 7b1e4c92-5d3a-4f0e-9c68-d4a2f1b8e037
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql a4d92e6f-18c3-4b7a-b5e0-2f6c9d3a81e4
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
