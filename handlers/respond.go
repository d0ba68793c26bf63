package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sretter/boardflow/services"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps the service error taxonomy onto HTTP statuses and
// writes a JSON error payload. Store failures are logged server-side
// and surfaced as a generic 500.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		protectedErr  *services.ProtectedResourceError
		conflictErr   *services.ConflictError
		placementErr  *services.InvalidPlacementError
		storeErr      *services.StoreError
	)

	status := http.StatusInternalServerError
	message := err.Error()
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &placementErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &protectedErr):
		status = http.StatusForbidden
	case errors.As(err, &conflictErr):
		status = http.StatusConflict
	case errors.As(err, &storeErr):
		logger.Error("store failure", zap.Error(err))
		message = "internal server error"
	default:
		logger.Error("unexpected failure", zap.Error(err))
		message = "internal server error"
	}

	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &services.ValidationError{Msg: "invalid request format"}
	}
	return nil
}
