package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	twitch_id    TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	type             TEXT NOT NULL CHECK(type IN ('daily', 'progress', 'one-time')),
	check_in_enabled INTEGER NOT NULL DEFAULT 0 CHECK(check_in_enabled IN (0, 1)),
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,

	-- Daily task fields.
	target_days      INTEGER,

	-- Progress task fields. current_value is a materialized view over
	-- progress_entries, rewritten after every ledger mutation.
	target_value     REAL,
	current_value    REAL,
	unit             TEXT,

	-- One-time task fields.
	completed_at     TEXT
);

CREATE TABLE IF NOT EXISTS daily_completions (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id        TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	completed_date TEXT NOT NULL,
	UNIQUE(task_id, completed_date)
);

CREATE TABLE IF NOT EXISTS progress_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	entry_date TEXT NOT NULL,
	value      REAL NOT NULL CHECK(value > 0)
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at);
CREATE INDEX IF NOT EXISTS idx_daily_completions_task_id ON daily_completions(task_id);
CREATE INDEX IF NOT EXISTS idx_progress_entries_task_id ON progress_entries(task_id);
CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
