package storage

const schema = `
-- The 'kv' table holds one serialized blob per engine key.
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at DATETIME NOT NULL
);
`
