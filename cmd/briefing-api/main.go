// Package main provides the briefing-api server for NOTAM data.
//
// This is a standalone REST API server that provides access to parsed
// NOTAMs stored in SQLite. It's designed to be queried by flight
// planning tools that need per-airport NOTAM lists and route briefings
// grouped by departure, en-route, destination, and alternate segments.
//
// Usage:
//
//	briefing-api [options]
//
// Options:
//
//	-db PATH            SQLite database path (default: notams.db, env: NOTAM_DB)
//	-port N             HTTP port (default: 8082)
//	-auth               Enable API key authentication
//	-api-keys KEYS      Comma-separated list of valid API keys
//
// API Endpoints:
//
//	GET /api/v1/health
//	    Health check endpoint.
//
//	GET /api/v1/notams/{icao}
//	    Get NOTAMs for an airport. Query params: active (true or RFC3339),
//	    category, qcode (prefix), q (full-text search), limit.
//
//	GET /api/v1/stats
//	    Aggregate statistics about the stored NOTAMs.
//
//	POST /api/v1/briefing/route
//	    Route briefing. Body: {"departure": "EGLL", "destination": "LFPG",
//	    "alternates": [...], "points": [{"latitude": ..., "longitude": ...}]}
//
// Authentication:
//
//	When -auth is enabled, requests must include an API key via:
//	  - X-API-Key header
//	  - Authorization: Bearer <key> header
//	  - ?api_key=<key> query parameter
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"notam_parser/internal/api"
	"notam_parser/internal/storage"
)

func main() {
	dbPath := flag.String("db", envOrDefault("NOTAM_DB", "notams.db"), "SQLite database path")
	port := flag.Int("port", 8082, "HTTP port for API server")
	authEnabled := flag.Bool("auth", false, "Enable API key authentication")
	apiKeys := flag.String("api-keys", "", "Comma-separated list of valid API keys (when auth enabled)")

	flag.Parse()

	store, err := storage.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Parse API keys.
	var keys []string
	if *apiKeys != "" {
		keys = strings.Split(*apiKeys, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
	}

	server := api.NewBriefingServer(store, api.Config{
		Port:        *port,
		AuthEnabled: *authEnabled,
		APIKeys:     keys,
	})

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
