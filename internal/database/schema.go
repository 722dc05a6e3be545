package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Users table: challenge participants, created lazily on first reference
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    address TEXT,  -- Ethereum address, populated from on-chain truth
    name TEXT,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Challenges table: one row per validated on-chain challenge.
-- The id is the canonical on-chain challenge identifier, never generated here.
CREATE TABLE IF NOT EXISTS challenges (
    id TEXT PRIMARY KEY,
    challenger INTEGER NOT NULL,
    challengee INTEGER NOT NULL,

    -- On-chain terms, stored verbatim in smallest on-chain units:
    -- bounty in wei, distance in cm, pace in cm/s
    bounty INTEGER NOT NULL,
    distance INTEGER NOT NULL,
    pace INTEGER,

    complete BOOLEAN NOT NULL DEFAULT 0,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    FOREIGN KEY (challenger) REFERENCES users(id),
    FOREIGN KEY (challengee) REFERENCES users(id)
);

-- Payments table: one-to-one with challenges, tracks bounty settlement
CREATE TABLE IF NOT EXISTS payments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    challenge_id TEXT NOT NULL UNIQUE,
    complete BOOLEAN NOT NULL DEFAULT 0,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    FOREIGN KEY (challenge_id) REFERENCES challenges(id)
);

-- Access grants table: Strava token pairs, at most one per athlete.
-- An empty scope means the athlete revoked access.
CREATE TABLE IF NOT EXISTS access_grants (
    athlete_id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,

    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    expires_at INTEGER NOT NULL,
    scope TEXT NOT NULL,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    FOREIGN KEY (user_id) REFERENCES users(id)
);

-- Webhook queue: raw events awaiting processing by the worker
CREATE TABLE IF NOT EXISTS webhook_queue (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    data TEXT NOT NULL,

    processing BOOLEAN NOT NULL DEFAULT 0,
    attempts INTEGER NOT NULL DEFAULT 0,
    not_before INTEGER NOT NULL DEFAULT 0,

    created_at INTEGER NOT NULL
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_users_address ON users(address);
CREATE INDEX IF NOT EXISTS idx_challenges_challengee ON challenges(challengee);
CREATE INDEX IF NOT EXISTS idx_challenges_challenger ON challenges(challenger);
CREATE INDEX IF NOT EXISTS idx_challenges_complete ON challenges(complete);
CREATE INDEX IF NOT EXISTS idx_payments_challenge_id ON payments(challenge_id);
CREATE INDEX IF NOT EXISTS idx_access_grants_user_id ON access_grants(user_id);
CREATE INDEX IF NOT EXISTS idx_webhook_queue_ready ON webhook_queue(processing, not_before);
`
