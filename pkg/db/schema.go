package db

// migrationsSQL is applied statement by statement by InitDB. Every statement
// must be idempotent.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS datasets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	last_processed_line INTEGER NOT NULL DEFAULT -1,
	added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(path, url)
);

CREATE TABLE IF NOT EXISTS reviews (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	dataset_id INTEGER NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	line INTEGER NOT NULL,
	reviewer_id TEXT,
	asin TEXT,
	review_text TEXT NOT NULL,
	summary TEXT,
	overall REAL,
	unix_review_time INTEGER,
	UNIQUE(dataset_id, line)
);

CREATE INDEX IF NOT EXISTS idx_reviews_dataset_line ON reviews(dataset_id, line);

CREATE INDEX IF NOT EXISTS idx_reviews_asin ON reviews(asin)
`
