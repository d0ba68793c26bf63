package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store handles database operations for the board's collections:
// columns, categories, tasks, team members, and the coach feature's
// conversations and recommendations.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ---- columns ----

func (s *Store) ListColumns(ctx context.Context) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, color, order_index FROM columns ORDER BY order_index`)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.ID, &c.Title, &c.Color, &c.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return columns, nil
}

// ---- categories ----

// ListCategories returns the stored categories for a column, ordered by
// order_index. An empty columnID returns every stored category.
func (s *Store) ListCategories(ctx context.Context, columnID string) ([]Category, error) {
	query := `SELECT id, name, column_id, order_index, is_default FROM categories`
	args := []any{}
	if columnID != "" {
		query += ` WHERE column_id = ?`
		args = append(args, columnID)
	}
	query += ` ORDER BY order_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ColumnID, &c.OrderIndex, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns nil without error when no row matches.
func (s *Store) GetCategory(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, column_id, order_index, is_default FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.ColumnID, &c.OrderIndex, &c.IsDefault)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

func (s *Store) InsertCategory(ctx context.Context, c *Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, column_id, order_index, is_default) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ColumnID, c.OrderIndex, c.IsDefault)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// CategoryNameExists reports whether a category with the given name
// (case-insensitive) already exists under the column.
func (s *Store) CategoryNameExists(ctx context.Context, columnID, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE column_id = ? AND LOWER(name) = LOWER(?)`,
		columnID, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}

func (s *Store) UpdateCategoryName(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// ---- tasks ----

const taskColumns = `id, title, priority, project, column_id, category_id, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Priority, &t.Project, &t.ColumnID, &t.CategoryID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

// ListTasks returns every task in a column, newest first. An empty
// columnID returns all tasks.
func (s *Store) ListTasks(ctx context.Context, columnID string) ([]Task, error) {
	if columnID == "" {
		return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	}
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE column_id = ? ORDER BY created_at DESC`, columnID)
}

func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return &t, nil
}

// InsertTask writes the task and fills in its store-assigned ID and
// timestamps.
func (s *Store) InsertTask(ctx context.Context, t *Task) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (title, priority, project, column_id, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Priority, t.Project, t.ColumnID, t.CategoryID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}
	t.ID = id
	return nil
}

// UpdateTask rewrites the task's mutable fields. Placement changes go
// through UpdateTaskPlacement.
func (s *Store) UpdateTask(ctx context.Context, t *Task) error {
	t.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, priority = ?, project = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Priority, t.Project, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *Store) UpdateTaskPlacement(ctx context.Context, id int64, columnID string, categoryID *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET column_id = ?, category_id = ?, updated_at = ? WHERE id = ?`,
		columnID, categoryID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update task placement: %w", err)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// ---- team members ----

const memberColumns = `id, name, email, avatar, color, is_active, created_at`

// ListTeamMembers returns the roster sorted by name. With activeOnly
// set, soft-deleted members are excluded.
func (s *Store) ListTeamMembers(ctx context.Context, activeOnly bool) ([]TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Avatar, &m.Color, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read team members: %w", err)
	}
	return members, nil
}

func (s *Store) CountTeamMembers(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM team_members`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}
	return count, nil
}

func (s *Store) GetTeamMember(ctx context.Context, id int64) (*TeamMember, error) {
	var m TeamMember
	err := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Avatar, &m.Color, &m.IsActive, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team member: %w", err)
	}
	return &m, nil
}

func (s *Store) InsertTeamMember(ctx context.Context, m *TeamMember) error {
	m.CreatedAt = time.Now().UTC()
	m.IsActive = true

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO team_members (name, email, avatar, color, is_active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		m.Name, m.Email, m.Avatar, m.Color, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read team member id: %w", err)
	}
	m.ID = id
	return nil
}

func (s *Store) UpdateTeamMember(ctx context.Context, m *TeamMember) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE team_members SET name = ?, email = ?, avatar = ?, color = ? WHERE id = ?`,
		m.Name, m.Email, m.Avatar, m.Color, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update team member: %w", err)
	}
	return nil
}

// DeactivateTeamMember soft-deletes: the row stays, is_active flips off.
func (s *Store) DeactivateTeamMember(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE team_members SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate team member: %w", err)
	}
	return nil
}

// ---- coach ----

func (s *Store) InsertConversation(ctx context.Context, c *Conversation) error {
	c.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (summary, plus, delta, intent, framing, alignment, boundaries, concision, follow, tone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Summary, c.Plus, c.Delta, c.Intent, c.Framing, c.Alignment, c.Boundaries, c.Concision, c.Follow, c.Tone, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read conversation id: %w", err)
	}
	c.ID = id
	return nil
}

func (s *Store) InsertRecommendation(ctx context.Context, r *Recommendation) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recommendations (conversation_id, kind, title, body, rationale, pushed_to_kanban, kanban_external_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ConversationID, r.Kind, r.Title, r.Body, r.Rationale, r.PushedToKanban, r.KanbanExternalID)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read recommendation id: %w", err)
	}
	r.ID = id
	return nil
}
