package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sretter/boardflow/database"
	"github.com/sretter/boardflow/services"
)

// CategoryLister is the read surface for the category list endpoint.
type CategoryLister interface {
	ListCategories(ctx context.Context, columnID string) ([]database.Category, error)
}

// CategoryHandler routes category CRUD through the placement engine.
type CategoryHandler struct {
	placement *services.PlacementService
	store     CategoryLister
	logger    *zap.Logger
}

func NewCategoryHandler(placement *services.PlacementService, store CategoryLister, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{placement: placement, store: store, logger: logger}
}

// ListCategories returns stored categories, optionally filtered by
// ?column_id=. Synthesized roster categories only appear in the board
// view.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context(), r.URL.Query().Get("column_id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if categories == nil {
		categories = []database.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		ColumnID   string `json:"column_id"`
		OrderIndex *int   `json:"order_index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	category, err := h.placement.CreateCategory(r.Context(), req.Name, req.ColumnID, req.OrderIndex)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.ID == "" {
		respondError(w, h.logger, &services.ValidationError{Msg: "id is required"})
		return
	}

	category, err := h.placement.RenameCategory(r.Context(), req.ID, req.Name)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.ID == "" {
		respondError(w, h.logger, &services.ValidationError{Msg: "id is required"})
		return
	}

	if err := h.placement.DeleteCategory(r.Context(), req.ID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
