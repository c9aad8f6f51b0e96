package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvloznov/family-finance/internal/api/middleware"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/family"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
)

// Invitations runs the invitation workflow.
type Invitations interface {
	Invite(ctx context.Context, inviter *domain.User, familyID, email string, role domain.MemberRole) (*domain.Invitation, error)
	Accept(ctx context.Context, user *domain.User, token string) (*domain.FamilyMember, error)
	Pending(ctx context.Context, user *domain.User, familyID string) ([]*domain.Invitation, error)
}

// InvitationsHandler handles family invitation endpoints.
type InvitationsHandler struct {
	invitations Invitations
	users       store.UserStore
}

// NewInvitationsHandler creates a new invitations handler.
func NewInvitationsHandler(invitations Invitations, users store.UserStore) *InvitationsHandler {
	return &InvitationsHandler{invitations: invitations, users: users}
}

// Create handles POST /api/invitations
func (h *InvitationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		FamilyID string `json:"familyId"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}

	familyID, err := familyScope(ctx, h.users, user, req.FamilyID)
	if err != nil {
		writeScopeError(w, r, err)
		return
	}

	inv, err := h.invitations.Invite(ctx, user, familyID, req.Email, domain.MemberRole(req.Role))
	if err != nil {
		writeInvitationError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, inv)
}

// ListPending handles GET /api/invitations
func (h *InvitationsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	familyID, err := familyScope(ctx, h.users, user, r.URL.Query().Get("family_id"))
	if err != nil {
		writeScopeError(w, r, err)
		return
	}

	pending, err := h.invitations.Pending(ctx, user, familyID)
	if err != nil {
		writeInvitationError(w, r, err)
		return
	}
	if pending == nil {
		pending = []*domain.Invitation{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"invitations": pending,
		"count":       len(pending),
	})
}

// Accept handles POST /api/invitations/accept
func (h *InvitationsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Token is required")
		return
	}

	member, err := h.invitations.Accept(ctx, user, req.Token)
	if err != nil {
		writeInvitationError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, member)
}

func writeInvitationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, family.ErrInvalidInvitation):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, family.ErrForbidden):
		middleware.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, family.ErrInvitationNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, family.ErrAlreadyMember), errors.Is(err, family.ErrDuplicateInvite):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, family.ErrInvitationClosed), errors.Is(err, family.ErrInvitationExpired):
		middleware.WriteError(w, http.StatusGone, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Invitation request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Invitation request failed")
	}
}

var _ Invitations = (*family.Service)(nil)
