// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EventDependencies
	LeaderboardDependencies
	GalleryDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	leaderboardHandler *LeaderboardHandler
	galleryHandler     *GalleryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		eventsHandler:      NewEventsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		galleryHandler:     NewGalleryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /events/{event}", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "event"))
	mux.HandleFunc("GET /events/{event}/results/{category}", MetricsMiddleware(s.leaderboardHandler.HandleGetResults, "results"))

	g := s.galleryHandler
	mux.HandleFunc("POST /galleries", MetricsMiddleware(g.HandleOpen, "gallery_open"))
	mux.HandleFunc("GET /galleries/{id}", MetricsMiddleware(g.HandleGet, "gallery"))
	mux.HandleFunc("DELETE /galleries/{id}", MetricsMiddleware(g.HandleClose, "gallery_close"))
	mux.HandleFunc("POST /galleries/{id}/grow", MetricsMiddleware(g.HandleGrow, "gallery_grow"))
	mux.HandleFunc("POST /galleries/{id}/resize", MetricsMiddleware(g.HandleResize, "gallery_resize"))
	mux.HandleFunc("POST /galleries/{id}/sizes", MetricsMiddleware(g.HandleSizes, "gallery_sizes"))
	mux.HandleFunc("POST /galleries/{id}/selfie", MetricsMiddleware(g.HandleSelfie, "gallery_selfie"))
	mux.HandleFunc("GET /galleries/{id}/viewer", MetricsMiddleware(g.HandleView, "gallery_viewer"))
	mux.HandleFunc("POST /galleries/{id}/viewer/close", MetricsMiddleware(g.HandleCloseViewer, "gallery_viewer_close"))
	mux.HandleFunc("GET /galleries/{id}/download", MetricsMiddleware(g.HandleDownload, "gallery_download"))
}
