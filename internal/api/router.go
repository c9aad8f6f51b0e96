// Package api assembles the HTTP API: routes, middleware and metrics.
package api

import (
	"net/http"

	"github.com/dvloznov/family-finance/internal/api/handlers"
	"github.com/dvloznov/family-finance/internal/api/middleware"
	"github.com/dvloznov/family-finance/internal/auth"
	"github.com/dvloznov/family-finance/internal/jobs"
	"github.com/dvloznov/family-finance/internal/metrics"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the routes need. Exporter may be nil.
type Deps struct {
	Store       store.Store
	Turns       handlers.TurnHandler
	Invitations handlers.Invitations
	Exporter    handlers.Exporter
	Jobs        jobs.JobStore
	Auth        auth.Provider
	Log         zerolog.Logger
	Registry    *prometheus.Registry
	CORSOrigin  string
}

// NewRouter builds the API handler.
func NewRouter(d Deps) http.Handler {
	instrument := metrics.NewHTTP(d.Registry)

	chat := handlers.NewChatHandler(d.Turns)
	transactions := handlers.NewTransactionsHandler(d.Store)
	budgets := handlers.NewBudgetsHandler(d.Store)
	goals := handlers.NewGoalsHandler(d.Store)
	notifications := handlers.NewNotificationsHandler(d.Store)
	invitations := handlers.NewInvitationsHandler(d.Invitations, d.Store)
	exports := handlers.NewExportHandler(d.Exporter, d.Store)
	jobsHandler := handlers.NewJobsHandler(d.Jobs)

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument.Wrap(pattern, h))
	}
	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, instrument.Wrap(pattern, middleware.RequireUser(h)))
	}

	// The chat handler answers 401 itself, with the assistant's message.
	route("POST /api/chat", chat.Chat)

	authed("GET /api/transactions", transactions.ListTransactions)
	authed("GET /api/budgets", budgets.ListBudgets)
	authed("GET /api/goals", goals.ListGoals)
	authed("GET /api/notifications", notifications.ListNotifications)
	authed("POST /api/notifications/{id}/read", notifications.MarkRead)
	authed("GET /api/invitations", invitations.ListPending)
	authed("POST /api/invitations", invitations.Create)
	authed("POST /api/invitations/accept", invitations.Accept)
	authed("POST /api/export", exports.Export)
	authed("GET /api/jobs", jobsHandler.ListJobs)
	authed("GET /api/jobs/{id}", jobsHandler.GetJob)

	route("GET /api/personalities", handlers.Personalities)
	route("GET /health", handlers.Health)
	mux.Handle("GET /metrics", metrics.Handler(d.Registry))

	return middleware.Chain(mux,
		middleware.RequestID(d.Log),
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS(d.CORSOrigin),
		middleware.Auth(d.Auth),
	)
}
