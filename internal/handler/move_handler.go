package handler

import (
	"errors"
	"net/http"

	"github.com/mnoyd/cotulenh/api/internal/auth"
	"github.com/mnoyd/cotulenh/api/internal/service"
)

// MoveHandler handles move submission, deploy-session control, and undo.
type MoveHandler struct {
	moveSvc *service.MoveService
}

// NewMoveHandler creates a MoveHandler.
func NewMoveHandler(moveSvc *service.MoveService) *MoveHandler {
	return &MoveHandler{moveSvc: moveSvc}
}

func moveErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, service.ErrNoActiveTurn):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotInGame), errors.Is(err, service.ErrNotYourTurn):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidMove), errors.Is(err, service.ErrNoDeploy), errors.Is(err, service.ErrNothingToUndo):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// SubmitMove handles POST /api/v1/games/{id}/moves
func (h *MoveHandler) SubmitMove(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	var req service.MoveInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.moveSvc.SubmitMove(r.Context(), gameID, userID, req)
	if err != nil {
		writeError(w, moveErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// CommitDeploy handles POST /api/v1/games/{id}/deploy/commit
func (h *MoveHandler) CommitDeploy(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	outcome, err := h.moveSvc.CommitDeploy(r.Context(), gameID, userID)
	if err != nil {
		writeError(w, moveErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// CancelDeploy handles POST /api/v1/games/{id}/deploy/cancel
func (h *MoveHandler) CancelDeploy(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.moveSvc.CancelDeploy(r.Context(), gameID, userID); err != nil {
		writeError(w, moveErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Undo handles POST /api/v1/games/{id}/undo
func (h *MoveHandler) Undo(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.moveSvc.Undo(r.Context(), gameID, userID); err != nil {
		writeError(w, moveErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "undone"})
}
