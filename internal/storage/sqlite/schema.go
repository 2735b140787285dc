package sqlite

// schema defines the scribe database layout. All timestamps are stored
// as RFC3339 UTC strings.
const schema = `
-- Dedup ledger: one row per (entity fingerprint, doc angle).
CREATE TABLE IF NOT EXISTS dedup_records (
    fingerprint   TEXT NOT NULL,
    angle         TEXT NOT NULL,
    last_acted_at TEXT NOT NULL,
    PRIMARY KEY (fingerprint, angle)
);

CREATE INDEX IF NOT EXISTS idx_dedup_angle ON dedup_records(angle);

-- One row per generated calendar day.
CREATE TABLE IF NOT EXISTS schedule_days (
    date         TEXT PRIMARY KEY,  -- YYYY-MM-DD in the configured timezone
    generated_at TEXT NOT NULL
);

-- Ordered slots within a day. fired flips to 1 before the cycle runs so
-- a crash mid-cycle never re-fires the same slot after restart.
CREATE TABLE IF NOT EXISTS schedule_slots (
    date    TEXT NOT NULL REFERENCES schedule_days(date) ON DELETE CASCADE,
    seq     INTEGER NOT NULL,
    fire_at TEXT NOT NULL,
    fired   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (date, seq)
);

-- Audit trail: one row per completed cycle, success or not.
CREATE TABLE IF NOT EXISTS cycle_results (
    id          TEXT PRIMARY KEY,
    fired_at    TEXT NOT NULL,
    repo        TEXT,
    fingerprint TEXT,
    entity_name TEXT,
    angle       TEXT,
    outcome     TEXT NOT NULL,
    detail      TEXT,
    commit_id   TEXT
);

CREATE INDEX IF NOT EXISTS idx_cycle_results_fired_at ON cycle_results(fired_at);
CREATE INDEX IF NOT EXISTS idx_cycle_results_outcome ON cycle_results(outcome);
`
