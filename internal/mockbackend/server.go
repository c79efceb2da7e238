// Package mockbackend is a simulated inference backend for development and
// demos. It serves the backend wire contract with deterministic fixtures
// modeled on the 1997 Wrocław flood, optionally delaying analyze/predict
// responses to exercise the console's pending state.
package mockbackend

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Handler serves the simulated backend API.
type Handler struct {
	mux    *http.ServeMux
	delay  time.Duration
	logger *slog.Logger
}

// NewHandler creates the simulated backend. delay is applied to analyze and
// predict responses only; health and demo endpoints always answer immediately.
func NewHandler(delay time.Duration, logger *slog.Logger) *Handler {
	h := &Handler{
		mux:    http.NewServeMux(),
		delay:  delay,
		logger: logger,
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	h.mux.HandleFunc("POST /api/buildings", h.handleBuildings)
	h.mux.HandleFunc("POST /api/predict", h.handlePredict)
	h.mux.HandleFunc("GET /api/demo", h.handleDemo)
	h.mux.HandleFunc("GET /api/predict/demo", h.handlePredictDemo)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": "0.3.0-mock",
		"services": map[string]string{
			"sar_processing": "simulated",
			"buildings":      "simulated",
			"prediction":     "simulated",
		},
	})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BBox         json.RawMessage `json:"bbox"`
		DateBefore   string          `json:"date_before"`
		DateAfter    string          `json:"date_after"`
		Polarization string          `json:"polarization"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	if req.Polarization != "VV" && req.Polarization != "VH" {
		// Processing failures travel inside a 200 envelope, like the real backend.
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "failed",
			"message": "unsupported polarization: " + req.Polarization,
		})
		return
	}

	if !h.sleep(r.Context()) {
		return
	}
	h.logger.Info("simulated analysis served",
		"date_before", req.DateBefore, "date_after", req.DateAfter)
	writeJSON(w, http.StatusOK, wroclawAnalysis())
}

func (h *Handler) handleBuildings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wroclawBuildings())
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BBox            json.RawMessage `json:"bbox"`
		PredictionHours int             `json:"prediction_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	if !h.sleep(r.Context()) {
		return
	}
	writeJSON(w, http.StatusOK, wroclawPrediction(req.PredictionHours))
}

func (h *Handler) handleDemo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wroclawAnalysis())
}

func (h *Handler) handlePredictDemo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wroclawPrediction(6))
}

// sleep waits for the configured delay, reporting false when the client went
// away first.
func (h *Handler) sleep(ctx context.Context) bool {
	if h.delay <= 0 {
		return true
	}
	select {
	case <-time.After(h.delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort mock response
}
