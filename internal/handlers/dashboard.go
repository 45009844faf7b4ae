package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/models"
	"github.com/tropicaldog17/vngold/internal/services"
	"github.com/tropicaldog17/vngold/internal/store"
)

// DashboardHandler serves the published payload and the local history.
type DashboardHandler struct {
	pipeline services.PipelineService
	store    store.HistoryStore
	logger   *zap.Logger
}

func NewDashboardHandler(pipeline services.PipelineService, st store.HistoryStore, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{pipeline: pipeline, store: st, logger: logger}
}

// NewRouter registers every route behind the CORS middleware.
func NewRouter(h *DashboardHandler) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/dashboard", h.HandleDashboard).Methods(http.MethodGet)
	router.HandleFunc("/api/history/{asset}", h.HandleHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/refresh", h.HandleRefresh).Methods(http.MethodPost)
	return corsMiddleware(router)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /health
func (h *DashboardHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "healthy",
		"service": "vngold",
	}
	if p, err := h.pipeline.LastPublished(); err == nil && p.Health != nil {
		body["payload_status"] = p.Health.Status
		body["severe_degradation"] = p.Health.SevereDegradation
		body["generated_at"] = p.GeneratedAt
	}
	writeJSON(w, http.StatusOK, body)
}

// GET /api/dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := h.pipeline.LastPublished()
	if err != nil {
		if apperrors.IsStorageUnavailable(err) {
			http.Error(w, "No dashboard published yet", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/history/{asset}
func (h *DashboardHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	asset := mux.Vars(r)["asset"]
	if !models.IsKnownAsset(asset) {
		http.Error(w, "Unknown asset: "+asset, http.StatusNotFound)
		return
	}

	entries, err := h.store.Entries(r.Context(), asset)
	if err != nil {
		h.logger.Error("Failed to list history", zap.String("asset", asset), zap.Error(err))
		http.Error(w, "Failed to list history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// POST /api/refresh
func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := h.pipeline.Run(r.Context())
	if err != nil {
		http.Error(w, "Refresh failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
