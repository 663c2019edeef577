package server

import (
	"log/slog"
	"net/http"

	"matt-dashboard/internal/handlers"
	"matt-dashboard/internal/refdata"
	"matt-dashboard/internal/services"
)

type Server struct {
	store       *services.Store
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

type Deps struct {
	Store     *services.Store
	Hubs      refdata.HubReference
	Plans     refdata.PlanReference
	Fred      *services.FredClient
	MaxUpload int64
}

func NewServer(deps Deps, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		store:       deps.Store,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(deps.Store, deps.Hubs, deps.Plans, deps.Fred, deps.MaxUpload, logger),
		sseHandlers: handlers.NewSSEHandlers(deps.Store, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("POST /api/upload", s.apiHandlers.HandleUpload)
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/pricing", s.apiHandlers.HandlePricing)
	s.mux.HandleFunc("GET /api/inventory/snapshots", s.apiHandlers.HandleInventorySnapshots)
	s.mux.HandleFunc("GET /api/inventory/pivot", s.apiHandlers.HandleInventoryPivot)
	s.mux.HandleFunc("GET /api/pace", s.apiHandlers.HandlePace)
	s.mux.HandleFunc("GET /api/dow", s.apiHandlers.HandleDOW)
	s.mux.HandleFunc("GET /api/trend", s.apiHandlers.HandleTrend)
	s.mux.HandleFunc("GET /api/week", s.apiHandlers.HandleWeek)
	s.mux.HandleFunc("GET /api/mortgage-rates", s.apiHandlers.HandleMortgageRates)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/reports", s.sseHandlers.HandleReports)
	s.mux.HandleFunc("GET /sse/pace-table", s.sseHandlers.HandlePaceTable)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
