package db

const postgresSchema = `
CREATE TABLE IF NOT EXISTS interview_history (
    seq          BIGSERIAL PRIMARY KEY,
    id           TEXT NOT NULL UNIQUE,
    user_id      TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    role         TEXT NOT NULL,
    mode         TEXT NOT NULL,
    question_set TEXT NOT NULL,
    difficulty   TEXT NOT NULL DEFAULT '',
    question     TEXT NOT NULL,
    answer       TEXT NOT NULL,
    feedback     TEXT NOT NULL,
    score        INTEGER NOT NULL CHECK (score BETWEEN 0 AND 10)
);

CREATE INDEX IF NOT EXISTS idx_interview_history_user
    ON interview_history (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS leaderboard (
    user_id     TEXT PRIMARY KEY,
    total_score BIGINT NOT NULL CHECK (total_score >= 0),
    attempts    BIGINT NOT NULL CHECK (attempts > 0),
    updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS session_snapshots (
    user_id  TEXT PRIMARY KEY,
    snapshot JSONB NOT NULL,
    saved_at TIMESTAMPTZ NOT NULL
);
`

// SQLite stores timestamps as unix nanoseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS interview_history (
    seq          INTEGER PRIMARY KEY AUTOINCREMENT,
    id           TEXT NOT NULL UNIQUE,
    user_id      TEXT NOT NULL,
    created_at   INTEGER NOT NULL,
    role         TEXT NOT NULL,
    mode         TEXT NOT NULL,
    question_set TEXT NOT NULL,
    difficulty   TEXT NOT NULL DEFAULT '',
    question     TEXT NOT NULL,
    answer       TEXT NOT NULL,
    feedback     TEXT NOT NULL,
    score        INTEGER NOT NULL CHECK (score BETWEEN 0 AND 10)
);

CREATE INDEX IF NOT EXISTS idx_interview_history_user
    ON interview_history (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS leaderboard (
    user_id     TEXT PRIMARY KEY,
    total_score INTEGER NOT NULL CHECK (total_score >= 0),
    attempts    INTEGER NOT NULL CHECK (attempts > 0),
    updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session_snapshots (
    user_id  TEXT PRIMARY KEY,
    snapshot TEXT NOT NULL,
    saved_at INTEGER NOT NULL
);
`
