// Package inference is the HTTP client for the flood inference backend. The
// backend wraps processing failures in a 200 envelope with status "failed";
// the client surfaces those as errors so the orchestrator sees a single
// failure path.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/floodwatch/opsconsole/internal/domain"
	"github.com/floodwatch/opsconsole/internal/observability"
)

const statusCompleted = "completed"

// Client talks to the inference backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an inference backend client. The timeout bounds every
// request; analysis can take minutes, so it should be generous.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Health performs the liveness probe.
func (c *Client) Health(ctx context.Context) (domain.ServiceHealth, error) {
	var resp domain.ServiceHealth
	if err := c.getJSON(ctx, "/health", "health", &resp); err != nil {
		return domain.ServiceHealth{}, err
	}
	return resp, nil
}

// Analyze runs a historical-imagery flood analysis for the given region and
// date pair.
func (c *Client) Analyze(ctx context.Context, p domain.AnalysisParams) (domain.AnalysisOutcome, error) {
	req := analysisRequest{
		BBox:         p.BBox,
		DateBefore:   p.DateBefore.Format("2006-01-02"),
		DateAfter:    p.DateAfter.Format("2006-01-02"),
		Polarization: p.Polarization,
	}
	var resp analysisResponse
	if err := c.postJSON(ctx, "/api/analyze", "analyze", req, &resp); err != nil {
		return domain.AnalysisOutcome{}, err
	}
	return decodeAnalysis(resp)
}

// Buildings fetches the building census for a region.
func (c *Client) Buildings(ctx context.Context, bbox domain.BoundingBox) (domain.BuildingCensus, error) {
	var resp domain.BuildingCensus
	if err := c.postJSON(ctx, "/api/buildings", "buildings", buildingsRequest{BBox: bbox}, &resp); err != nil {
		return domain.BuildingCensus{}, err
	}
	return resp, nil
}

// Predict runs a short-horizon flood prediction for the given region.
func (c *Client) Predict(ctx context.Context, p domain.PredictionParams) (domain.PredictionOutcome, error) {
	req := predictionRequest{BBox: p.BBox, PredictionHours: p.HorizonHours}
	var resp predictionResponse
	if err := c.postJSON(ctx, "/api/predict", "predict", req, &resp); err != nil {
		return domain.PredictionOutcome{}, err
	}
	return decodePrediction(resp)
}

// DemoAnalysis fetches the fixed-example analysis, used for demonstration
// without a live spatial selection.
func (c *Client) DemoAnalysis(ctx context.Context) (domain.AnalysisOutcome, error) {
	var resp analysisResponse
	if err := c.getJSON(ctx, "/api/demo", "demo_analysis", &resp); err != nil {
		return domain.AnalysisOutcome{}, err
	}
	return decodeAnalysis(resp)
}

// DemoPrediction fetches the fixed-example prediction.
func (c *Client) DemoPrediction(ctx context.Context) (domain.PredictionOutcome, error) {
	var resp predictionResponse
	if err := c.getJSON(ctx, "/api/predict/demo", "demo_prediction", &resp); err != nil {
		return domain.PredictionOutcome{}, err
	}
	return decodePrediction(resp)
}

func (c *Client) getJSON(ctx context.Context, path, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, endpoint, out)
}

func (c *Client) postJSON(ctx context.Context, path, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Warn("backend request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("backend request rejected", "endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("backend error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.BackendRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.metrics.BackendRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

func decodeAnalysis(resp analysisResponse) (domain.AnalysisOutcome, error) {
	if resp.Status != statusCompleted {
		return domain.AnalysisOutcome{}, fmt.Errorf("analysis %s: %s", resp.Status, resp.Message)
	}

	overlay, err := domain.ParseOverlay(resp.FloodGeoJSON)
	if err != nil {
		return domain.AnalysisOutcome{}, err
	}

	outcome := domain.AnalysisOutcome{
		Overlay:           overlay,
		BuildingsAffected: resp.BuildingsAffected,
		ProcessingTime:    secondsToDuration(resp.ProcessingTimeSeconds),
		Message:           resp.Message,
	}
	if resp.Stats != nil {
		outcome.Stats = *resp.Stats
		if err := outcome.Stats.Validate(); err != nil {
			return domain.AnalysisOutcome{}, fmt.Errorf("backend stats: %w", err)
		}
	}
	return outcome, nil
}

func decodePrediction(resp predictionResponse) (domain.PredictionOutcome, error) {
	if resp.Status != statusCompleted {
		return domain.PredictionOutcome{}, fmt.Errorf("prediction %s: %s", resp.Status, resp.Message)
	}

	overlay, err := domain.ParseOverlay(resp.RiskZonesGeoJSON)
	if err != nil {
		return domain.PredictionOutcome{}, err
	}

	// The backend stamps its own timestamp; a malformed one falls back to zero
	// rather than failing an otherwise good prediction.
	timestamp, _ := time.Parse(time.RFC3339, resp.Timestamp)

	return domain.PredictionOutcome{
		Timestamp:        timestamp,
		HorizonHours:     resp.PredictionHours,
		FloodProbability: resp.FloodProbability,
		RiskLevel:        domain.RiskLevel(resp.RiskLevel),
		Confidence:       resp.Confidence,
		Precipitation:    resp.Precipitation,
		Factors:          resp.RiskFactors,
		Overlay:          overlay,
		Evacuations:      resp.EvacuationPriorities,
		ProcessingTime:   secondsToDuration(resp.ProcessingTimeSeconds),
		NextUpdate:       time.Duration(resp.NextUpdateMinutes) * time.Minute,
		Message:          resp.Message,
	}, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Backend wire types.

type analysisRequest struct {
	BBox         domain.BoundingBox `json:"bbox"`
	DateBefore   string             `json:"date_before"`
	DateAfter    string             `json:"date_after"`
	Polarization string             `json:"polarization"`
}

type buildingsRequest struct {
	BBox domain.BoundingBox `json:"bbox"`
}

type predictionRequest struct {
	BBox            domain.BoundingBox `json:"bbox"`
	PredictionHours int                `json:"prediction_hours"`
}

type analysisResponse struct {
	Status                string                  `json:"status"`
	Message               string                  `json:"message"`
	Stats                 *domain.FloodStatistics `json:"stats"`
	FloodGeoJSON          json.RawMessage         `json:"flood_geojson"`
	BuildingsAffected     int                     `json:"buildings_affected"`
	ProcessingTimeSeconds float64                 `json:"processing_time_seconds"`
}

type predictionResponse struct {
	Status                string                       `json:"status"`
	Message               string                       `json:"message"`
	Timestamp             string                       `json:"timestamp"`
	PredictionHours       int                          `json:"prediction_hours"`
	FloodProbability      float64                      `json:"flood_probability"`
	RiskLevel             string                       `json:"risk_level"`
	Confidence            float64                      `json:"confidence"`
	Precipitation         *domain.PrecipitationSummary `json:"precipitation"`
	RiskFactors           *domain.RiskFactors          `json:"risk_factors"`
	RiskZonesGeoJSON      json.RawMessage              `json:"risk_zones_geojson"`
	EvacuationPriorities  []domain.EvacuationPriority  `json:"evacuation_priorities"`
	ProcessingTimeSeconds float64                      `json:"processing_time_seconds"`
	NextUpdateMinutes     int                          `json:"next_update_minutes"`
}
