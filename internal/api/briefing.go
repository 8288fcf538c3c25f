// Package api provides REST API endpoints for NOTAM queries and route
// briefings.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notam_parser/internal/georoute"
	"notam_parser/internal/notam"
	"notam_parser/internal/query"
	"notam_parser/internal/storage"
)

// NotamSource is the storage interface the API reads from. It allows the
// SQLite store to be mocked in tests.
type NotamSource interface {
	Query(p storage.StoreQueryParams) ([]storage.Record, error)
	GetStats() (*storage.StoreStats, error)
}

// BriefingServer provides REST API access to stored NOTAMs.
type BriefingServer struct {
	store       NotamSource
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// Config holds configuration for the briefing API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string // List of valid API keys.
}

// NewBriefingServer creates a new briefing API server.
func NewBriefingServer(store NotamSource, cfg Config) *BriefingServer {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &BriefingServer{
		store:       store,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Run starts the HTTP server.
func (s *BriefingServer) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/", s.Router())
	})

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Briefing API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}

	return http.ListenAndServe(addr, r)
}

// Router returns the configured chi router for embedding in other servers.
func (s *BriefingServer) Router() chi.Router {
	r := chi.NewRouter()

	// Optional authentication.
	if s.authEnabled {
		r.Use(s.authMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/notams/{icao}", s.handleGetNotams)
	r.Get("/stats", s.handleStats)
	r.Post("/briefing/route", s.handleRouteBriefing)

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *BriefingServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Fall back to query parameter (for simple testing).
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *BriefingServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetNotams returns NOTAMs for an airport. Query parameters:
// active (true or an RFC3339 instant), category, qcode (prefix), q
// (full-text), limit.
func (s *BriefingServer) handleGetNotams(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(chi.URLParam(r, "icao"))
	if icao == "" {
		writeError(w, http.StatusBadRequest, "icao is required")
		return
	}

	params := storage.StoreQueryParams{
		Location: icao,
		Category: r.URL.Query().Get("category"),
		QCode:    r.URL.Query().Get("qcode"),
		FullText: r.URL.Query().Get("q"),
	}

	if active := r.URL.Query().Get("active"); active != "" {
		at := time.Now().UTC()
		if active != "true" {
			parsed, err := time.Parse(time.RFC3339, active)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid active time (use true or RFC3339)")
				return
			}
			at = parsed
		}
		params.ActiveAt = &at
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		params.Limit = n
	}

	records, err := s.store.Query(params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location": icao,
		"count":    len(records),
		"notams":   storage.Notams(records),
	})
}

func (s *BriefingServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// RoutePointRequest is one waypoint in a route briefing request.
type RoutePointRequest struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RouteBriefingRequest is the request body for route briefings.
type RouteBriefingRequest struct {
	Departure   string              `json:"departure"`
	Destination string              `json:"destination"`
	Alternates  []string            `json:"alternates,omitempty"`
	Points      []RoutePointRequest `json:"points,omitempty"`
	ThresholdNm float64             `json:"threshold_nm,omitempty"`
	At          string              `json:"at,omitempty"` // RFC3339; defaults to now.
}

// RouteBriefingResponse groups the route's NOTAMs by segment.
type RouteBriefingResponse struct {
	Departure   string                                       `json:"departure"`
	Destination string                                       `json:"destination"`
	At          string                                       `json:"at"`
	Count       int                                          `json:"count"`
	Segments    map[georoute.Segment][]*notam.Notam          `json:"segments"`
}

func (s *BriefingServer) handleRouteBriefing(w http.ResponseWriter, r *http.Request) {
	var req RouteBriefingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	if req.Departure == "" || req.Destination == "" {
		writeError(w, http.StatusBadRequest, "departure and destination are required")
		return
	}

	at := time.Now().UTC()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid at time (use RFC3339)")
			return
		}
		at = parsed
	}

	route := georoute.Route{
		Departure:   strings.ToUpper(req.Departure),
		Destination: strings.ToUpper(req.Destination),
	}
	for _, alt := range req.Alternates {
		route.Alternates = append(route.Alternates, strings.ToUpper(alt))
	}
	for _, p := range req.Points {
		route.Points = append(route.Points, georoute.RoutePoint{
			Name:       p.Name,
			Coordinate: notam.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude},
		})
	}

	// Gather active NOTAMs for every named airport on the route.
	airports := append([]string{route.Departure, route.Destination}, route.Alternates...)
	seen := make(map[string]bool)
	var all []*notam.Notam
	for _, icao := range airports {
		records, err := s.store.Query(storage.StoreQueryParams{Location: icao, ActiveAt: &at, Limit: 500})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, n := range storage.Notams(records) {
			key := n.ID + "\x00" + n.Location
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, n)
		}
	}

	// Add active NOTAMs with coordinates from anywhere else so en-route
	// hazards show up even without an airport match.
	records, err := s.store.Query(storage.StoreQueryParams{ActiveAt: &at, Limit: 2000})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, n := range query.Filter(storage.Notams(records), func(n *notam.Notam) bool { return n.Coordinate != nil }) {
		key := n.ID + "\x00" + n.Location
		if seen[key] {
			continue
		}
		seen[key] = true
		all = append(all, n)
	}

	segments := georoute.GroupBySegment(all, route, req.ThresholdNm)

	// Distant NOTAMs are noise in a briefing.
	delete(segments, georoute.SegmentDistant)

	count := 0
	for _, ns := range segments {
		count += len(ns)
	}

	writeJSON(w, http.StatusOK, RouteBriefingResponse{
		Departure:   route.Departure,
		Destination: route.Destination,
		At:          at.Format(time.RFC3339),
		Count:       count,
		Segments:    segments,
	})
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
