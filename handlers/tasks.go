package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sretter/boardflow/database"
	"github.com/sretter/boardflow/services"
)

// TaskLister is the read surface for the task list endpoint.
type TaskLister interface {
	ListTasks(ctx context.Context, columnID string) ([]database.Task, error)
}

// TaskHandler routes task CRUD and moves through the placement engine.
type TaskHandler struct {
	placement *services.PlacementService
	store     TaskLister
	logger    *zap.Logger
}

func NewTaskHandler(placement *services.PlacementService, store TaskLister, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{placement: placement, store: store, logger: logger}
}

// ListTasks returns tasks, optionally filtered by ?column_id=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.ListTasks(r.Context(), r.URL.Query().Get("column_id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if tasks == nil {
		tasks = []database.Task{}
	}
	respondJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string `json:"title"`
		Priority   string `json:"priority"`
		Project    string `json:"project"`
		ColumnID   string `json:"column_id"`
		CategoryID string `json:"category_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	task, err := h.placement.Create(r.Context(), services.TaskDraft{
		Title:      req.Title,
		Priority:   req.Priority,
		Project:    req.Project,
		ColumnID:   req.ColumnID,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       int64   `json:"id"`
		Title    *string `json:"title"`
		Priority *string `json:"priority"`
		Project  *string `json:"project"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.ID == 0 {
		respondError(w, h.logger, &services.ValidationError{Msg: "id is required"})
		return
	}

	task, err := h.placement.Update(r.Context(), req.ID, services.TaskUpdate{
		Title:    req.Title,
		Priority: req.Priority,
		Project:  req.Project,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.ID == 0 {
		respondError(w, h.logger, &services.ValidationError{Msg: "id is required"})
		return
	}

	if err := h.placement.Delete(r.Context(), req.ID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// MoveTask relocates a task. The target category is optional; dropping
// onto a column that has categories lands in its default category.
func (h *TaskHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, h.logger, &services.ValidationError{Msg: "invalid task id"})
		return
	}

	var req struct {
		ColumnID   string `json:"column_id"`
		CategoryID string `json:"category_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	task, err := h.placement.Move(r.Context(), taskID, req.ColumnID, req.CategoryID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}
