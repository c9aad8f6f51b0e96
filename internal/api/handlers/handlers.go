// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/api/middleware"
	"github.com/dvloznov/family-finance/internal/assistant"
	"github.com/dvloznov/family-finance/internal/auth"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
)

var (
	errNoFamily  = errors.New("nenhuma família encontrada para o usuário")
	errNotMember = errors.New("usuário não pertence à família")
)

// familyScope resolves the family a request works on: the family_id query
// parameter when the user is a member of it, the user's own family otherwise.
func familyScope(ctx context.Context, users store.UserStore, user *domain.User, explicit string) (string, error) {
	if explicit == "" {
		id, err := users.FamilyIDForUser(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && id == "") {
			return "", errNoFamily
		}
		if err != nil {
			return "", fmt.Errorf("resolving family: %w", err)
		}
		return id, nil
	}

	members, err := users.ListFamilyMembers(ctx, explicit)
	if err != nil {
		return "", fmt.Errorf("listing members: %w", err)
	}
	for _, m := range members {
		if m.UserID == user.ID {
			return explicit, nil
		}
	}
	return "", errNotMember
}

// writeScopeError answers a familyScope failure.
func writeScopeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoFamily):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errNotMember):
		middleware.WriteError(w, http.StatusForbidden, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to resolve family")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to resolve family")
	}
}

// currentUser returns the authenticated user or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Usuário não autenticado")
		return nil, false
	}
	return user, true
}

// dateParam parses a YYYY-MM-DD query parameter, returning def when absent.
func dateParam(r *http.Request, name string, def civil.Date) (civil.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s format", name)
	}
	return d, nil
}

// intParam parses a non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Personalities handles GET /api/personalities
func Personalities(w http.ResponseWriter, r *http.Request) {
	personas := assistant.Personas()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"personalities": personas,
		"count":         len(personas),
	})
}
