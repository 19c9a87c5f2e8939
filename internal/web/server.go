package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/halcyon-fi/harvester/internal/config"
	"github.com/halcyon-fi/harvester/internal/logger"
	"github.com/halcyon-fi/harvester/internal/state"
	"github.com/halcyon-fi/harvester/internal/utils"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer handles HTTP requests for strategy data visualization
type WebServer struct {
	router *mux.Router
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/harvests", ws.handleGetHarvests).Methods("GET")
	api.HandleFunc("/harvests/latest", ws.handleGetLatestHarvest).Methods("GET")
	api.HandleFunc("/lifecycle-events", ws.handleGetLifecycleEvents).Methods("GET")
	api.HandleFunc("/strategy/summary", ws.handleGetStrategySummary).Methods("GET")
	api.HandleFunc("/performance", ws.handleGetPerformanceMetrics).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns comprehensive server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	hasErrors := false

	var harvestInfo map[string]interface{}
	latest, harvestErr := state.GetLatestHarvest()
	if harvestErr == nil {
		harvestInfo = map[string]interface{}{
			"harvest_number":      latest.HarvestNumber,
			"last_harvest_time":   latest.Timestamp,
			"last_harvest_status": latest.Success,
		}
		hasErrors = !latest.Success
	} else {
		harvestInfo = map[string]interface{}{
			"harvest_number":      0,
			"last_harvest_time":   nil,
			"last_harvest_status": "unknown",
		}
	}

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
		hasErrors = true
	}

	overallStatus := "OK"
	if hasErrors {
		overallStatus = "DEGRADED"
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":            runtime.Version(),
			"goroutines_count":   runtime.NumGoroutine(),
			"total_alloc_bytes":  memStats.TotalAlloc,
			"heap_objects_count": memStats.HeapObjects,
			"alloc_bytes":        memStats.Alloc,
			"sys_bytes":          memStats.Sys,
			"gc_cycles":          memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "harvester-strategy-daemon",
			"version": "1.0.0",
		},
		"strategy_status": map[string]interface{}{
			"database_healthy":  dbHealthy,
			"has_recent_errors": hasErrors,
			"harvest_info":      harvestInfo,
		},
	}

	statusCode := http.StatusOK
	if hasErrors {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetHarvests returns paginated harvest receipts
func (ws *WebServer) handleGetHarvests(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	harvests, err := state.GetRecentHarvests(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent harvests")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve harvests")
		return
	}

	response := map[string]interface{}{
		"harvests": harvests,
		"count":    len(harvests),
		"limit":    limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetLatestHarvest returns the most recent harvest receipt
func (ws *WebServer) handleGetLatestHarvest(w http.ResponseWriter, r *http.Request) {
	harvest, err := state.GetLatestHarvest()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get latest harvest")
		ws.writeErrorResponse(w, http.StatusNotFound, "No harvests found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, harvest)
}

// handleGetLifecycleEvents returns the lifecycle audit trail
func (ws *WebServer) handleGetLifecycleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	events, err := state.GetRecentLifecycleEvents(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get lifecycle events")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve lifecycle events")
		return
	}

	response := map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetStrategySummary returns strategy summary statistics. Micro amounts
// are additionally rendered at display precision for the dashboard.
func (ws *WebServer) handleGetStrategySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetStrategySummary()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get strategy summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve strategy summary")
		return
	}

	response := map[string]interface{}{
		"summary": summary,
	}

	display := map[string]float64{}
	for name, raw := range map[string]string{
		"idle":   summary.IdleAmount,
		"staked": summary.StakedAmount,
		"total":  summary.TotalAmount,
	} {
		value, err := utils.ParseAmountToFloat64(raw, config.PrincipalPrecision)
		if err != nil {
			webLogger.Warn().Err(err).Str("field", name).Msg("Failed to render display amount")
			continue
		}
		display[name] = value
	}
	response["display"] = display

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPerformanceMetrics returns aggregated fee-distribution metrics
func (ws *WebServer) handleGetPerformanceMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := state.GetPerformanceMetrics()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get performance metrics")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve performance metrics")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, metrics)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request at debug level
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		webLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
