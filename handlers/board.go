package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sretter/boardflow/services"
)

// BoardHandler serves the assembled board view.
type BoardHandler struct {
	placement *services.PlacementService
	logger    *zap.Logger
}

func NewBoardHandler(placement *services.PlacementService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{placement: placement, logger: logger}
}

// GetBoard returns the full board. ?refresh=true forces a fresh
// assembly instead of serving the mirror.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "true"

	board, err := h.placement.Board(r.Context(), force)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// RefreshBoard rebuilds the mirror from the store, reconciling any
// drift left behind by failed background persistence.
func (h *BoardHandler) RefreshBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.placement.Refresh(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}
