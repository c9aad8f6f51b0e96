package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/family-finance/internal/api/middleware"
	"github.com/dvloznov/family-finance/internal/assistant"
	"github.com/dvloznov/family-finance/internal/auth"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/logger"
)

// TurnHandler answers chat messages.
type TurnHandler interface {
	HandleTurn(ctx context.Context, user *domain.User, req assistant.TurnRequest) (*assistant.TurnResponse, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	turns TurnHandler
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(turns TurnHandler) *ChatHandler {
	return &ChatHandler{turns: turns}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		middleware.WriteError(w, http.StatusUnauthorized, assistant.ErrUnauthenticated.Error())
		return
	}

	var req assistant.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.turns.HandleTurn(ctx, user, req)
	switch {
	case err == nil:
		middleware.WriteJSON(w, http.StatusOK, resp)
	case errors.Is(err, assistant.ErrUnauthenticated):
		middleware.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, assistant.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Chat turn failed")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

var _ TurnHandler = (*assistant.Orchestrator)(nil)
