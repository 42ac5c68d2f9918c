package ledger

const schemaSQL = `
CREATE TABLE IF NOT EXISTS usage_records (
    id               TEXT PRIMARY KEY,
    user_id          TEXT NOT NULL,
    trip_id          TEXT,
    model_id         TEXT NOT NULL,
    action           TEXT,
    input_tokens     INTEGER NOT NULL,
    output_tokens    INTEGER NOT NULL,
    cost_nanos       INTEGER NOT NULL,
    created_at_ns    INTEGER NOT NULL,
    recorded_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_user_time ON usage_records(user_id, created_at_ns);
CREATE INDEX IF NOT EXISTS idx_usage_trip ON usage_records(trip_id);
CREATE INDEX IF NOT EXISTS idx_usage_time ON usage_records(created_at_ns);
`
