package migrate

// Default returns the built-in WorkAny schema registry. These are the
// migrations the API sidecar's datastore needs; the launcher applies them
// before the sidecar first touches the database.
func Default() *Registry {
	return NewRegistry(
		Migration{
			Version:     1,
			Description: "create_tasks_and_messages_tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS tasks (
					id TEXT PRIMARY KEY NOT NULL,
					prompt TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'running',
					cost REAL,
					duration INTEGER,
					created_at TEXT NOT NULL DEFAULT (datetime('now')),
					updated_at TEXT NOT NULL DEFAULT (datetime('now'))
				);

				CREATE TABLE IF NOT EXISTS messages (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					task_id TEXT NOT NULL,
					type TEXT NOT NULL,
					content TEXT,
					tool_name TEXT,
					tool_input TEXT,
					subtype TEXT,
					error_message TEXT,
					created_at TEXT NOT NULL DEFAULT (datetime('now')),
					FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
				);

				CREATE INDEX IF NOT EXISTS idx_messages_task_id ON messages(task_id);
			`,
		},
		Migration{
			Version:     2,
			Description: "add_tool_result_fields",
			SQL: `
				ALTER TABLE messages ADD COLUMN tool_output TEXT;
				ALTER TABLE messages ADD COLUMN tool_use_id TEXT;
			`,
		},
		Migration{
			Version:     3,
			Description: "create_files_table",
			SQL: `
				CREATE TABLE IF NOT EXISTS files (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					task_id TEXT NOT NULL,
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					path TEXT NOT NULL,
					preview TEXT,
					thumbnail TEXT,
					is_favorite INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL DEFAULT (datetime('now')),
					FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
				);

				CREATE INDEX IF NOT EXISTS idx_files_task_id ON files(task_id);
			`,
		},
		Migration{
			Version:     4,
			Description: "create_settings_table",
			SQL: `
				CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY NOT NULL,
					value TEXT NOT NULL,
					updated_at TEXT NOT NULL DEFAULT (datetime('now'))
				);
			`,
		},
		Migration{
			Version:     5,
			Description: "create_sessions_table_and_update_tasks",
			SQL: `
				CREATE TABLE IF NOT EXISTS sessions (
					id TEXT PRIMARY KEY NOT NULL,
					prompt TEXT NOT NULL,
					task_count INTEGER NOT NULL DEFAULT 0,
					created_at TEXT NOT NULL DEFAULT (datetime('now')),
					updated_at TEXT NOT NULL DEFAULT (datetime('now'))
				);

				ALTER TABLE tasks ADD COLUMN session_id TEXT;
				ALTER TABLE tasks ADD COLUMN task_index INTEGER DEFAULT 1;

				CREATE INDEX IF NOT EXISTS idx_tasks_session_id ON tasks(session_id);
			`,
		},
		Migration{
			Version:     6,
			Description: "add_attachments_to_messages",
			SQL: `
				ALTER TABLE messages ADD COLUMN attachments TEXT;
			`,
		},
		Migration{
			Version:     7,
			Description: "add_favorite_to_tasks",
			SQL: `
				ALTER TABLE tasks ADD COLUMN favorite INTEGER DEFAULT 0;
			`,
		},
	)
}
