package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"coverage-platform/internal/repository"
	"coverage-platform/internal/services"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

// CoverageHandler handles coverage API endpoints
type CoverageHandler struct {
	coverageService *services.CoverageService
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewCoverageHandler creates a new coverage handler
func NewCoverageHandler(
	coverageService *services.CoverageService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *CoverageHandler {
	return &CoverageHandler{
		coverageService: coverageService,
		logger:          logger,
		metrics:         metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// GetPincode handles GET /api/pincodes/{pincode}
func (h *CoverageHandler) GetPincode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/pincodes/{pincode}").Observe(duration.Seconds())
	}()

	pincode := mux.Vars(r)["pincode"]

	row, err := h.coverageService.LookupPincode(ctx, pincode)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.metrics.RecordAPIError("not_found", "/api/pincodes/{pincode}")
			h.sendError(w, r, "pincode not found: "+pincode, http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_GET_PINCODE_ERROR] Failed to look up pincode", logging.Fields{
			"pincode": pincode,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/pincodes/{pincode}")
		h.sendError(w, r, "failed to retrieve pincode metrics", http.StatusServiceUnavailable)
		return
	}

	h.metrics.RecordAPIRequest("/api/pincodes/{pincode}", "GET", "200")
	h.sendJSON(w, row, http.StatusOK)
}

// SearchPincodes handles GET /api/pincodes/search
func (h *CoverageHandler) SearchPincodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/pincodes/search").Observe(duration.Seconds())
	}()

	district := r.URL.Query().Get("district")
	if district == "" {
		h.sendError(w, r, "query parameter district is required", http.StatusBadRequest)
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	rows, err := h.coverageService.SearchByDistrict(ctx, district, limit)
	if err != nil {
		h.logger.Error(ctx, "[API_SEARCH_ERROR] District search failed", logging.Fields{
			"district": district,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/pincodes/search")
		h.sendError(w, r, "failed to search pincodes", http.StatusServiceUnavailable)
		return
	}

	h.metrics.RecordAPIRequest("/api/pincodes/search", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"district": district,
		"count":    len(rows),
		"data":     rows,
	}, http.StatusOK)
}

// GetPriorities handles GET /api/priorities
func (h *CoverageHandler) GetPriorities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/priorities").Observe(duration.Seconds())
	}()

	page := 1
	limit := 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	filter := repository.PriorityFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if state := r.URL.Query().Get("state"); state != "" {
		filter.State = &state
	}
	if district := r.URL.Query().Get("district"); district != "" {
		filter.District = &district
	}
	if intervention := r.URL.Query().Get("intervention"); intervention != "" {
		filter.InterventionType = &intervention
	}
	if desertsStr := r.URL.Query().Get("deserts_only"); desertsStr != "" {
		desertsOnly, err := strconv.ParseBool(desertsStr)
		if err != nil {
			h.sendError(w, r, "invalid deserts_only, expected true or false", http.StatusBadRequest)
			return
		}
		filter.DesertsOnly = desertsOnly
	}

	priorities, total, err := h.coverageService.Priorities(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_PRIORITIES_ERROR] Failed to get priorities", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/priorities")
		h.sendError(w, r, "failed to retrieve priorities", http.StatusServiceUnavailable)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       priorities,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/priorities", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetDistricts handles GET /api/districts
func (h *CoverageHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/districts").Observe(duration.Seconds())
	}()

	page := 1
	limit := 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	baselines, total, err := h.coverageService.DistrictBaselines(ctx, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_DISTRICTS_ERROR] Failed to get district baselines", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/districts")
		h.sendError(w, r, "failed to retrieve district baselines", http.StatusServiceUnavailable)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       baselines,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/districts", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetStates handles GET /api/states
func (h *CoverageHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/states").Observe(duration.Seconds())
	}()

	states, err := h.coverageService.StateSummaries(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATES_ERROR] Failed to compute state summaries", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/states")
		h.sendError(w, r, "failed to retrieve state summaries", http.StatusServiceUnavailable)
		return
	}

	h.metrics.RecordAPIRequest("/api/states", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"count": len(states),
		"data":  states,
	}, http.StatusOK)
}

// GetOverview handles GET /api/overview
func (h *CoverageHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/overview").Observe(duration.Seconds())
	}()

	overview, err := h.coverageService.Overview(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_OVERVIEW_ERROR] Failed to compute overview", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/overview")
		h.sendError(w, r, "failed to compute overview", http.StatusServiceUnavailable)
		return
	}

	h.metrics.RecordAPIRequest("/api/overview", "GET", "200")
	h.sendJSON(w, overview, http.StatusOK)
}

// GetValidation handles GET /api/validation
func (h *CoverageHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/validation").Observe(duration.Seconds())
	}()

	reports, err := h.coverageService.ValidationReports(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_VALIDATION_ERROR] Failed to get validation reports", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/validation")
		h.sendError(w, r, "failed to retrieve validation reports", http.StatusServiceUnavailable)
		return
	}

	h.metrics.RecordAPIRequest("/api/validation", "GET", "200")
	h.sendJSON(w, reports, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *CoverageHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":       "healthy",
		"has_snapshot": h.coverageService.HasSnapshot(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *CoverageHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *CoverageHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all coverage API routes
func (h *CoverageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/pincodes/search", h.SearchPincodes).Methods("GET")
	router.HandleFunc("/api/pincodes/{pincode}", h.GetPincode).Methods("GET")
	router.HandleFunc("/api/priorities", h.GetPriorities).Methods("GET")
	router.HandleFunc("/api/districts", h.GetDistricts).Methods("GET")
	router.HandleFunc("/api/states", h.GetStates).Methods("GET")
	router.HandleFunc("/api/overview", h.GetOverview).Methods("GET")
	router.HandleFunc("/api/validation", h.GetValidation).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
