package handler

import (
	"net/http"

	"github.com/mnoyd/cotulenh/api/internal/service"
)

// TurnHandler handles turn-history endpoints.
type TurnHandler struct {
	turnSvc *service.TurnService
}

// NewTurnHandler creates a TurnHandler.
func NewTurnHandler(turnSvc *service.TurnService) *TurnHandler {
	return &TurnHandler{turnSvc: turnSvc}
}

// ListTurns handles GET /api/v1/games/{id}/turns
func (h *TurnHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	turns, err := h.turnSvc.ListTurns(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if turns == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// CurrentTurn handles GET /api/v1/games/{id}/turns/current
func (h *TurnHandler) CurrentTurn(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	turn, err := h.turnSvc.GetTurn(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if turn == nil {
		writeError(w, http.StatusNotFound, "no active turn")
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// TurnMoves handles GET /api/v1/turns/{turnId}/moves
func (h *TurnHandler) TurnMoves(w http.ResponseWriter, r *http.Request) {
	turnID := r.PathValue("turnId")
	moves, err := h.turnSvc.TurnMoves(r.Context(), turnID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if moves == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, moves)
}
