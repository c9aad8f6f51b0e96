package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/api/middleware"
	"github.com/dvloznov/family-finance/internal/export"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
)

// Exporter writes transaction exports.
type Exporter interface {
	Export(ctx context.Context, familyID string, start, end civil.Date) (*export.Result, error)
}

// ExportHandler handles CSV export requests.
type ExportHandler struct {
	exporter Exporter
	users    store.UserStore
	now      func() time.Time
}

// NewExportHandler creates a new export handler. A nil exporter disables the
// endpoint.
func NewExportHandler(exporter Exporter, users store.UserStore) *ExportHandler {
	return &ExportHandler{exporter: exporter, users: users, now: time.Now}
}

// Export handles POST /api/export
// The body is optional; the range defaults to the current month up to today.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if h.exporter == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Export is not configured")
		return
	}

	var req struct {
		FamilyID  string `json:"familyId"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	today := civil.DateOf(h.now())
	start := civil.Date{Year: today.Year, Month: today.Month, Day: 1}
	end := today
	var err error
	if req.StartDate != "" {
		if start, err = civil.ParseDate(req.StartDate); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid startDate format")
			return
		}
	}
	if req.EndDate != "" {
		if end, err = civil.ParseDate(req.EndDate); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid endDate format")
			return
		}
	}

	familyID, err := familyScope(ctx, h.users, user, req.FamilyID)
	if err != nil {
		writeScopeError(w, r, err)
		return
	}

	res, err := h.exporter.Export(ctx, familyID, start, end)
	if errors.Is(err, export.ErrInvalidRange) {
		middleware.WriteError(w, http.StatusBadRequest, "startDate must not be after endDate")
		return
	}
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("family_id", familyID).Msg("Failed to export transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

var _ Exporter = (*export.Exporter)(nil)
