package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/plinkoapp/venuerank/internal/store"
	"github.com/plinkoapp/venuerank/pkg/hotness"
	"github.com/plinkoapp/venuerank/pkg/score"
	"github.com/plinkoapp/venuerank/pkg/venue"
)

// Server provides the HTTP API.
type Server struct {
	store   store.Store
	manager *score.Manager
	hotOpts hotness.Options
	port    int
}

// New creates a new HTTP server. hotOpts zero values fall back to the
// ranker defaults.
func New(s store.Store, manager *score.Manager, hotOpts hotness.Options, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:   s,
		manager: manager,
		hotOpts: hotOpts,
		port:    port,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/venues", s.handleVenues)
	mux.HandleFunc("/api/v1/rankings", s.handleRankings)
	mux.HandleFunc("/api/v1/hottest", s.handleHottest)
	mux.HandleFunc("/api/v1/refresh", s.handleRefresh)

	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("venuerank server listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	venues, err := s.store.ListVenues(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  venues,
		"count": len(venues),
	})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	cat := venue.Category(r.URL.Query().Get("category"))
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", score.DefaultPageSize)

	ranked, err := s.manager.ListByCategory(r.Context(), cat, page, pageSize)
	if errors.Is(err, score.ErrUnknownCategory) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":      ranked,
		"count":     len(ranked),
		"category":  cat,
		"page":      page,
		"page_size": pageSize,
	})
}

func (s *Server) handleHottest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon are required"})
		return
	}

	opts := s.hotOpts
	if v := queryInt(r, "limit", 0); v > 0 {
		opts.Limit = v
	}
	if raw := r.URL.Query().Get("max_distance_km"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			opts.MaxDistanceKm = v
		}
	}

	venues, err := s.store.ListVenues(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	reviews, err := s.store.ListReviews(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	ranked := hotness.Rank(venues, reviews, venue.Coordinate{Lat: lat, Lon: lon}, opts)

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  ranked,
		"count": len(ranked),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if venueID := r.URL.Query().Get("venue_id"); venueID != "" {
		if err := s.manager.RefreshOne(r.Context(), venueID); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
		return
	}

	report, err := s.manager.RefreshStale(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"processed": report.Succeeded + report.Failed,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
