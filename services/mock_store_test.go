package services

import (
	"context"
	"strings"
	"sync"

	"github.com/sretter/boardflow/database"
)

// mockStore implements BoardStore, PlacementStore, and CoachStore over
// in-memory slices. The mutex matters because move persistence runs in
// a background goroutine.
type mockStore struct {
	mu sync.Mutex

	columns    []database.Column
	categories []database.Category
	tasks      []database.Task
	members    []database.TeamMember

	conversations   []database.Conversation
	recommendations []database.Recommendation

	nextTaskID         int64
	nextConversationID int64

	listColumnsErr     error
	listTasksErr       error
	listMembersErr     error
	insertTaskErr      error
	updateTaskErr      error
	deleteTaskErr      error
	updatePlacementErr error
	insertCategoryErr  error
	deleteCategoryErr  error
	insertConvErr      error
	insertRecErr       error

	// When non-empty, successive ListTeamMembers(activeOnly=true) calls
	// consume these scripted responses before falling back to members.
	activeMemberResponses [][]database.TeamMember
	countAllOverride      *int

	activeMemberCalls int
	getCategoryCalls  int
	placementCalls    []placementCall
	deletedCategories []string

	// placementDone receives one value per UpdateTaskPlacement call, so
	// tests can wait for background persistence deterministically.
	placementDone chan struct{}
}

type placementCall struct {
	taskID     int64
	columnID   string
	categoryID *string
}

func newMockStore() *mockStore {
	return &mockStore{
		columns: []database.Column{
			{ID: "uncategorized", Title: "Uncategorized", OrderIndex: 0},
			{ID: "today", Title: "Today", OrderIndex: 1},
			{ID: "follow-up", Title: "Follow-up", OrderIndex: 2},
			{ID: "later", Title: "Later", OrderIndex: 3},
			{ID: "completed", Title: "Completed", OrderIndex: 4},
		},
		categories: []database.Category{
			{ID: "today_big_tasks", Name: "Big Tasks", ColumnID: "today", OrderIndex: 0, IsDefault: true},
			{ID: "today_quick_wins", Name: "Quick Wins", ColumnID: "today", OrderIndex: 1, IsDefault: true},
		},
		nextTaskID:         1,
		nextConversationID: 1,
		placementDone:      make(chan struct{}, 16),
	}
}

// ---- BoardStore ----

func (m *mockStore) ListColumns(ctx context.Context) ([]database.Column, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listColumnsErr != nil {
		return nil, m.listColumnsErr
	}
	return append([]database.Column(nil), m.columns...), nil
}

func (m *mockStore) ListCategories(ctx context.Context, columnID string) ([]database.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Category
	for _, c := range m.categories {
		if columnID == "" || c.ColumnID == columnID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStore) ListTasks(ctx context.Context, columnID string) ([]database.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listTasksErr != nil {
		return nil, m.listTasksErr
	}
	var out []database.Task
	for _, t := range m.tasks {
		if columnID == "" || t.ColumnID == columnID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) ListTeamMembers(ctx context.Context, activeOnly bool) ([]database.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listMembersErr != nil {
		return nil, m.listMembersErr
	}
	if activeOnly {
		m.activeMemberCalls++
		if len(m.activeMemberResponses) > 0 {
			resp := m.activeMemberResponses[0]
			m.activeMemberResponses = m.activeMemberResponses[1:]
			return resp, nil
		}
	}
	var out []database.TeamMember
	for _, mem := range m.members {
		if !activeOnly || mem.IsActive {
			out = append(out, mem)
		}
	}
	return out, nil
}

func (m *mockStore) CountTeamMembers(ctx context.Context, activeOnly bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !activeOnly && m.countAllOverride != nil {
		return *m.countAllOverride, nil
	}
	count := 0
	for _, mem := range m.members {
		if !activeOnly || mem.IsActive {
			count++
		}
	}
	return count, nil
}

// ---- PlacementStore ----

func (m *mockStore) InsertTask(ctx context.Context, t *database.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertTaskErr != nil {
		return m.insertTaskErr
	}
	t.ID = m.nextTaskID
	m.nextTaskID++
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *mockStore) UpdateTask(ctx context.Context, t *database.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateTaskErr != nil {
		return m.updateTaskErr
	}
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i].Title = t.Title
			m.tasks[i].Priority = t.Priority
			m.tasks[i].Project = t.Project
		}
	}
	return nil
}

func (m *mockStore) UpdateTaskPlacement(ctx context.Context, id int64, columnID string, categoryID *string) error {
	m.mu.Lock()
	err := m.updatePlacementErr
	if err == nil {
		m.placementCalls = append(m.placementCalls, placementCall{taskID: id, columnID: columnID, categoryID: categoryID})
		for i := range m.tasks {
			if m.tasks[i].ID == id {
				m.tasks[i].ColumnID = columnID
				m.tasks[i].CategoryID = categoryID
			}
		}
	}
	m.mu.Unlock()
	m.placementDone <- struct{}{}
	return err
}

func (m *mockStore) DeleteTask(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteTaskErr != nil {
		return m.deleteTaskErr
	}
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockStore) GetCategory(ctx context.Context, id string) (*database.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCategoryCalls++
	for _, c := range m.categories {
		if c.ID == id {
			cat := c
			return &cat, nil
		}
	}
	return nil, nil
}

func (m *mockStore) InsertCategory(ctx context.Context, c *database.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertCategoryErr != nil {
		return m.insertCategoryErr
	}
	m.categories = append(m.categories, *c)
	return nil
}

func (m *mockStore) CategoryNameExists(ctx context.Context, columnID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.ColumnID == columnID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) UpdateCategoryName(ctx context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].ID == id {
			m.categories[i].Name = name
		}
	}
	return nil
}

func (m *mockStore) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteCategoryErr != nil {
		return m.deleteCategoryErr
	}
	m.deletedCategories = append(m.deletedCategories, id)
	for i := range m.categories {
		if m.categories[i].ID == id {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			break
		}
	}
	return nil
}

// ---- CoachStore ----

func (m *mockStore) InsertConversation(ctx context.Context, c *database.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertConvErr != nil {
		return m.insertConvErr
	}
	c.ID = m.nextConversationID
	m.nextConversationID++
	m.conversations = append(m.conversations, *c)
	return nil
}

func (m *mockStore) InsertRecommendation(ctx context.Context, r *database.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertRecErr != nil {
		return m.insertRecErr
	}
	r.ID = int64(len(m.recommendations) + 1)
	m.recommendations = append(m.recommendations, *r)
	return nil
}

// ---- assertion helpers ----

func (m *mockStore) placementCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.placementCalls)
}

func (m *mockStore) taskByID(id int64) *database.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			task := t
			return &task
		}
	}
	return nil
}
