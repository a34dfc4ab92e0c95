package store

const schema = `
CREATE TABLE IF NOT EXISTS venues (
    id           TEXT PRIMARY KEY,
    username     TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    rating       REAL NOT NULL DEFAULT 0,
    price_tier   INTEGER NOT NULL DEFAULT 0,
    dress_code   TEXT NOT NULL DEFAULT '',
    capacity     INTEGER NOT NULL DEFAULT 0,
    min_age      INTEGER NOT NULL DEFAULT 0,
    followers    INTEGER NOT NULL DEFAULT 0,
    features     TEXT NOT NULL DEFAULT '[]',
    genres       TEXT NOT NULL DEFAULT '[]',
    tables       TEXT NOT NULL DEFAULT '[]',
    events       TEXT NOT NULL DEFAULT '[]',
    latitude     REAL,
    longitude    REAL,
    updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_venues_username ON venues(username);

CREATE TABLE IF NOT EXISTS reviews (
    id         TEXT PRIMARY KEY,
    venue_id   TEXT NOT NULL REFERENCES venues(id),
    reviewer   TEXT NOT NULL DEFAULT '',
    rating     INTEGER NOT NULL DEFAULT 0,
    text       TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_venue ON reviews(venue_id);
CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(created_at);

CREATE TABLE IF NOT EXISTS venue_scores (
    venue_id         TEXT PRIMARY KEY REFERENCES venues(id),
    trending         INTEGER NOT NULL DEFAULT 0,
    luxury           INTEGER NOT NULL DEFAULT 0,
    student_friendly INTEGER NOT NULL DEFAULT 0,
    big_groups       INTEGER NOT NULL DEFAULT 0,
    date_night       INTEGER NOT NULL DEFAULT 0,
    live_music       INTEGER NOT NULL DEFAULT 0,
    last_updated     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scores_updated ON venue_scores(last_updated);
`
