package database

import "time"

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Recommendation kinds emitted by the coach rule engine.
const (
	KindExercise = "EXERCISE"
	KindRead     = "READ"
	KindScript   = "SCRIPT"
	KindTask     = "TASK"
)

// Column is a top-level board lane. Columns are seeded once and never
// deleted in normal operation.
type Column struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Color      string `json:"color"`
	OrderIndex int    `json:"order_index"`
}

// Category is a named subgroup of tasks within a column. Categories
// flagged is_default are seed data and protected from deletion.
type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ColumnID   string `json:"column_id"`
	OrderIndex int    `json:"order_index"`
	IsDefault  bool   `json:"is_default"`
}

type Task struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Priority   string    `json:"priority"`
	Project    string    `json:"project,omitempty"`
	ColumnID   string    `json:"column_id"`
	CategoryID *string   `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TeamMember is a roster entry. Deletion is soft: is_active flips to
// false and the row stays.
type TeamMember struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar"`
	Color     string    `json:"color"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is one coaching submission: a summary, optional
// plus/delta reflections, and the seven rubric scores (each 1-5).
type Conversation struct {
	ID         int64     `json:"id"`
	Summary    string    `json:"summary"`
	Plus       string    `json:"plus,omitempty"`
	Delta      string    `json:"delta,omitempty"`
	Intent     int       `json:"intent"`
	Framing    int       `json:"framing"`
	Alignment  int       `json:"alignment"`
	Boundaries int       `json:"boundaries"`
	Concision  int       `json:"concision"`
	Follow     int       `json:"follow"`
	Tone       int       `json:"tone"`
	CreatedAt  time.Time `json:"created_at"`
}

type Recommendation struct {
	ID               int64  `json:"id"`
	ConversationID   int64  `json:"conversation_id"`
	Kind             string `json:"kind"`
	Title            string `json:"title"`
	Body             string `json:"body"`
	Rationale        string `json:"rationale"`
	PushedToKanban   bool   `json:"pushed_to_kanban"`
	KanbanExternalID *int64 `json:"kanban_external_id,omitempty"`
}
