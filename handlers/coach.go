package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sretter/boardflow/services"
)

// CoachHandler serves coaching submissions.
type CoachHandler struct {
	coach  *services.CoachService
	logger *zap.Logger
}

func NewCoachHandler(coach *services.CoachService, logger *zap.Logger) *CoachHandler {
	return &CoachHandler{coach: coach, logger: logger}
}

// SubmitConversation validates a submission, persists it, and returns
// the conversation with its recommendations.
func (h *CoachHandler) SubmitConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Summary    string `json:"summary"`
		Plus       string `json:"plus"`
		Delta      string `json:"delta"`
		Intent     int    `json:"intent"`
		Framing    int    `json:"framing"`
		Alignment  int    `json:"alignment"`
		Boundaries int    `json:"boundaries"`
		Concision  int    `json:"concision"`
		Follow     int    `json:"follow"`
		Tone       int    `json:"tone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	conversation, recommendations, err := h.coach.Submit(r.Context(), services.ConversationInput{
		Summary: req.Summary,
		Plus:    req.Plus,
		Delta:   req.Delta,
		Rubric: services.Rubric{
			Intent:     req.Intent,
			Framing:    req.Framing,
			Alignment:  req.Alignment,
			Boundaries: req.Boundaries,
			Concision:  req.Concision,
			Follow:     req.Follow,
			Tone:       req.Tone,
		},
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"conversation":    conversation,
		"recommendations": recommendations,
	})
}
