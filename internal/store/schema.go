package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// schemaStatements returns the idempotent DDL for the given engine. Only
// boolean and timestamp column types differ: SQLite stores booleans as 0/1
// integers and timestamps as datetime text, Postgres uses native types.
func schemaStatements(engine string) []string {
	timestamp := "DATETIME DEFAULT (datetime('now'))"
	boolean := "INTEGER DEFAULT 0"
	if engine == EnginePostgres {
		timestamp = "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"
		boolean = "BOOLEAN DEFAULT FALSE"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			emoji TEXT DEFAULT '🤖',
			role TEXT,
			status TEXT DEFAULT 'active',
			notify_handle TEXT,
			created_at ` + timestamp + `
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			client TEXT,
			description TEXT,
			color TEXT DEFAULT '#6366f1',
			status TEXT DEFAULT 'active',
			created_at ` + timestamp + `
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT DEFAULT 'backlog',
			priority TEXT DEFAULT 'medium',
			assignee_id TEXT,
			project_id TEXT,
			tags TEXT,
			due_date TEXT,
			created_at ` + timestamp + `,
			updated_at ` + timestamp + `
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at ` + timestamp + `
		)`,
		`CREATE TABLE IF NOT EXISTS task_history (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			action TEXT NOT NULL,
			field TEXT,
			old_value TEXT,
			new_value TEXT,
			actor TEXT DEFAULT 'System',
			created_at ` + timestamp + `
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			agent_id TEXT,
			task_id TEXT,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			read ` + boolean + `,
			created_at ` + timestamp + `
		)`,
	}
}

// historyActionPatch backfills the action column on Postgres deployments
// created before it existed. The SQLite DDL always includes the column, so
// no patch is needed there.
const historyActionPatch = `
DO $patch$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM information_schema.columns
		WHERE table_name = 'task_history' AND column_name = 'action'
	) THEN
		ALTER TABLE task_history ADD COLUMN action TEXT NOT NULL DEFAULT 'update';
	END IF;
END $patch$;
`

// defaultAgents are seeded, in order, the first time the board comes up.
var defaultAgents = []struct {
	Name  string
	Emoji string
	Role  string
}{
	{"Scooby", "🐕", "Coordinator"},
	{"Coder", "💻", "Development"},
	{"Researcher", "🔍", "Research & Analysis"},
	{"Builder", "🔧", "Workflows & Automation"},
}

// Init brings the database to the expected shape and seeds the default
// agents on a fresh install. Safe to re-run; request serving must not start
// until it returns nil.
func Init(db DB) error {
	for _, stmt := range schemaStatements(db.Engine()) {
		if _, err := db.Execute(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if db.Engine() == EnginePostgres {
		if _, err := db.Execute(historyActionPatch); err != nil {
			return fmt.Errorf("patch task_history: %w", err)
		}
	}

	return seedAgents(db)
}

// seedAgents inserts the default agent set, but only when no agent exists
// at all — a single user-created agent suppresses seeding forever.
func seedAgents(db DB) error {
	var count int
	if err := db.FetchOne(`SELECT COUNT(*) FROM agents`).Scan(&count); err != nil {
		return fmt.Errorf("count agents: %w", err)
	}
	if count > 0 {
		return nil
	}

	// Millisecond offsets keep the seed order stable under created_at sorts.
	now := time.Now().UTC()
	for i, a := range defaultAgents {
		_, err := db.Execute(
			`INSERT INTO agents (id, name, emoji, role, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), a.Name, a.Emoji, a.Role, "active", now.Add(time.Duration(i)*time.Millisecond),
		)
		if err != nil {
			return fmt.Errorf("seed agent %s: %w", a.Name, err)
		}
	}
	return nil
}
