package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sretter/boardflow/database"
	"github.com/sretter/boardflow/services"
)

// fakeStore backs the services with a small fixed board.
type fakeStore struct {
	tasks           []database.Task
	conversations   []database.Conversation
	recommendations []database.Recommendation
	nextID          int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) ListColumns(ctx context.Context) ([]database.Column, error) {
	return []database.Column{
		{ID: "uncategorized", Title: "Uncategorized", OrderIndex: 0},
		{ID: "today", Title: "Today", OrderIndex: 1},
		{ID: "later", Title: "Later", OrderIndex: 2},
	}, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, columnID string) ([]database.Category, error) {
	categories := []database.Category{
		{ID: "today_big_tasks", Name: "Big Tasks", ColumnID: "today", IsDefault: true},
	}
	if columnID == "" {
		return categories, nil
	}
	var out []database.Category
	for _, c := range categories {
		if c.ColumnID == columnID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTasks(ctx context.Context, columnID string) ([]database.Task, error) {
	var out []database.Task
	for _, t := range f.tasks {
		if columnID == "" || t.ColumnID == columnID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTeamMembers(ctx context.Context, activeOnly bool) ([]database.TeamMember, error) {
	return nil, nil
}

func (f *fakeStore) CountTeamMembers(ctx context.Context, activeOnly bool) (int, error) {
	return 0, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, t *database.Task) error {
	t.ID = f.nextID
	f.nextID++
	f.tasks = append(f.tasks, *t)
	return nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, t *database.Task) error { return nil }

func (f *fakeStore) UpdateTaskPlacement(ctx context.Context, id int64, columnID string, categoryID *string) error {
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id int64) error { return nil }

func (f *fakeStore) GetCategory(ctx context.Context, id string) (*database.Category, error) {
	return nil, nil
}

func (f *fakeStore) InsertCategory(ctx context.Context, c *database.Category) error { return nil }

func (f *fakeStore) CategoryNameExists(ctx context.Context, columnID, name string) (bool, error) {
	return false, nil
}

func (f *fakeStore) UpdateCategoryName(ctx context.Context, id, name string) error { return nil }

func (f *fakeStore) DeleteCategory(ctx context.Context, id string) error { return nil }

func (f *fakeStore) InsertConversation(ctx context.Context, c *database.Conversation) error {
	c.ID = int64(len(f.conversations) + 1)
	f.conversations = append(f.conversations, *c)
	return nil
}

func (f *fakeStore) InsertRecommendation(ctx context.Context, r *database.Recommendation) error {
	r.ID = int64(len(f.recommendations) + 1)
	f.recommendations = append(f.recommendations, *r)
	return nil
}

func newTestRouter(store *fakeStore) *mux.Router {
	logger := zap.NewNop()
	boardService := services.NewBoardService(store, services.DefaultRosterColumnID)
	placementService := services.NewPlacementService(store, boardService, logger)
	coachService := services.NewCoachService(store, placementService, logger)

	boardHandler := NewBoardHandler(placementService, logger)
	taskHandler := NewTaskHandler(placementService, store, logger)
	coachHandler := NewCoachHandler(coachService, logger)

	r := mux.NewRouter()
	r.HandleFunc("/api/board", boardHandler.GetBoard).Methods("GET")
	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}/move", taskHandler.MoveTask).Methods("POST", "PATCH")
	r.HandleFunc("/api/coach/conversations", coachHandler.SubmitConversation).Methods("POST")
	return r
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetBoard(t *testing.T) {
	store := newFakeStore()
	store.tasks = []database.Task{{ID: 1, Title: "memo", ColumnID: "later"}}
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/board", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var board []services.BoardColumn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 3)
	assert.Equal(t, "uncategorized", board[0].ID)
	assert.Equal(t, 1, board[2].Count)
}

func TestCreateTaskValidation(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := postJSON(t, router, "/api/tasks", map[string]any{"column_id": "today"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/tasks", map[string]any{"title": "no column"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/tasks", map[string]any{"title": "ok", "column_id": "today", "category_id": "today_big_tasks"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task database.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, database.PriorityMedium, task.Priority)
}

func TestMoveTaskErrors(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	rec := postJSON(t, router, "/api/tasks/abc/move", map[string]any{"column_id": "later"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/tasks/42/move", map[string]any{"column_id": "later"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Rubric scores outside [1,5] must be rejected at the HTTP layer
// before the rule engine runs.
func TestSubmitConversationRejectsOutOfRangeScores(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	base := map[string]any{
		"summary": "one on one", "intent": 3, "framing": 3, "alignment": 3,
		"boundaries": 3, "concision": 3, "follow": 3, "tone": 3,
	}

	for _, tc := range []struct {
		field string
		value int
	}{
		{"intent", 0},
		{"concision", 6},
	} {
		body := map[string]any{}
		for k, v := range base {
			body[k] = v
		}
		body[tc.field] = tc.value

		rec := postJSON(t, router, "/api/coach/conversations", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s=%d", tc.field, tc.value)
	}
	assert.Empty(t, store.conversations)

	rec := postJSON(t, router, "/api/coach/conversations", base)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Conversation    database.Conversation    `json:"conversation"`
		Recommendations []database.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "Executive Summaries 101", resp.Recommendations[0].Title)
}
