package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sretter/boardflow/database"
	"github.com/sretter/boardflow/services"
)

// TeamStore is the roster persistence surface.
type TeamStore interface {
	ListTeamMembers(ctx context.Context, activeOnly bool) ([]database.TeamMember, error)
	GetTeamMember(ctx context.Context, id int64) (*database.TeamMember, error)
	InsertTeamMember(ctx context.Context, m *database.TeamMember) error
	UpdateTeamMember(ctx context.Context, m *database.TeamMember) error
	DeactivateTeamMember(ctx context.Context, id int64) error
}

// TeamHandler serves roster CRUD. Deletion is soft: members are
// deactivated, never removed, so tasks filed under their synthesized
// categories keep their history.
type TeamHandler struct {
	store  TeamStore
	logger *zap.Logger
}

func NewTeamHandler(store TeamStore, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{store: store, logger: logger}
}

type teamMemberRequest struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Color  string `json:"color"`
}

// ListMembers returns active members; ?all=true includes deactivated
// ones.
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "true"
	members, err := h.store.ListTeamMembers(r.Context(), !all)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if members == nil {
		members = []database.TeamMember{}
	}
	respondJSON(w, http.StatusOK, members)
}

func (h *TeamHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req teamMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, h.logger, &services.ValidationError{Msg: "name is required"})
		return
	}

	member := &database.TeamMember{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: avatarOrInitials(req.Avatar, req.Name),
		Color:  req.Color,
	}
	if err := h.store.InsertTeamMember(r.Context(), member); err != nil {
		respondError(w, h.logger, &services.StoreError{Op: "failed to create team member", Err: err})
		return
	}
	respondJSON(w, http.StatusCreated, member)
}

func (h *TeamHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req teamMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.ID == 0 {
		respondError(w, h.logger, &services.ValidationError{Msg: "id is required"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, h.logger, &services.ValidationError{Msg: "name is required"})
		return
	}

	member, err := h.store.GetTeamMember(r.Context(), req.ID)
	if err != nil {
		respondError(w, h.logger, &services.StoreError{Op: "failed to load team member", Err: err})
		return
	}
	if member == nil {
		respondError(w, h.logger, &services.NotFoundError{Msg: "team member not found"})
		return
	}

	member.Name = req.Name
	member.Email = req.Email
	member.Avatar = avatarOrInitials(req.Avatar, req.Name)
	if req.Color != "" {
		member.Color = req.Color
	}
	if err := h.store.UpdateTeamMember(r.Context(), member); err != nil {
		respondError(w, h.logger, &services.StoreError{Op: "failed to update team member", Err: err})
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// DeleteMember soft-deletes: the member drops out of the roster and
// the synthesized board view, but the row and their tasks remain.
func (h *TeamHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
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

	member, err := h.store.GetTeamMember(r.Context(), req.ID)
	if err != nil {
		respondError(w, h.logger, &services.StoreError{Op: "failed to load team member", Err: err})
		return
	}
	if member == nil {
		respondError(w, h.logger, &services.NotFoundError{Msg: "team member not found"})
		return
	}

	if err := h.store.DeactivateTeamMember(r.Context(), req.ID); err != nil {
		respondError(w, h.logger, &services.StoreError{Op: "failed to deactivate team member", Err: err})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// avatarOrInitials falls back to the first two letters of the name,
// uppercased.
func avatarOrInitials(avatar, name string) string {
	if avatar != "" {
		return avatar
	}
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
