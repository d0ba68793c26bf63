package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at path and ensures the schema
// exists. Schema creation is idempotent.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS columns (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			order_index INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			column_id TEXT NOT NULL REFERENCES columns(id),
			order_index INTEGER NOT NULL DEFAULT 0,
			is_default INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'medium',
			project TEXT NOT NULL DEFAULT '',
			column_id TEXT NOT NULL DEFAULT 'uncategorized',
			category_id TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS team_members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			summary TEXT NOT NULL,
			plus TEXT NOT NULL DEFAULT '',
			delta TEXT NOT NULL DEFAULT '',
			intent INTEGER NOT NULL,
			framing INTEGER NOT NULL,
			alignment INTEGER NOT NULL,
			boundaries INTEGER NOT NULL,
			concision INTEGER NOT NULL,
			follow INTEGER NOT NULL,
			tone INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recommendations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id),
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			rationale TEXT NOT NULL DEFAULT '',
			pushed_to_kanban INTEGER NOT NULL DEFAULT 0,
			kanban_external_id INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_column ON categories(column_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db, nil
}

// seedColumn bundles a column with the default categories seeded under it.
type seedColumn struct {
	column     Column
	categories []Category
}

var seedData = []seedColumn{
	{column: Column{ID: "uncategorized", Title: "Uncategorized", Color: "#94a3b8", OrderIndex: 0}},
	{
		column: Column{ID: "today", Title: "Today", Color: "#f97316", OrderIndex: 1},
		categories: []Category{
			{ID: "today_big_tasks", Name: "Big Tasks", ColumnID: "today", OrderIndex: 0, IsDefault: true},
			{ID: "today_quick_wins", Name: "Quick Wins", ColumnID: "today", OrderIndex: 1, IsDefault: true},
		},
	},
	// Categories for follow-up are synthesized from the roster at read
	// time and never stored.
	{column: Column{ID: "follow-up", Title: "Follow-up", Color: "#8b5cf6", OrderIndex: 2}},
	{column: Column{ID: "later", Title: "Later", Color: "#0ea5e9", OrderIndex: 3}},
	{column: Column{ID: "completed", Title: "Completed", Color: "#22c55e", OrderIndex: 4}},
}

// Seed inserts the board's column and default-category rows if the
// columns table is empty. Running it against a seeded database is a
// no-op.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM columns`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count columns: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, sc := range seedData {
		_, err := tx.Exec(
			`INSERT INTO columns (id, title, color, order_index) VALUES (?, ?, ?, ?)`,
			sc.column.ID, sc.column.Title, sc.column.Color, sc.column.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to seed column %s: %w", sc.column.ID, err)
		}
		for _, cat := range sc.categories {
			_, err := tx.Exec(
				`INSERT INTO categories (id, name, column_id, order_index, is_default) VALUES (?, ?, ?, ?, ?)`,
				cat.ID, cat.Name, cat.ColumnID, cat.OrderIndex, cat.IsDefault,
			)
			if err != nil {
				return fmt.Errorf("failed to seed category %s: %w", cat.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}
