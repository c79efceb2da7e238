package httpapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/floodwatch/opsconsole/internal/domain"
)

// Request bodies.

type pointerRequest struct {
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Modifier bool    `json:"modifier"`
}

type bboxPayload struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

type analysisRequest struct {
	BBox         *bboxPayload `json:"bbox"`
	DateBefore   string       `json:"date_before"`
	DateAfter    string       `json:"date_after"`
	Polarization string       `json:"polarization"`
}

type predictionRequest struct {
	BBox         *bboxPayload `json:"bbox"`
	HorizonHours int          `json:"horizon_hours"`
}

// Response views. Overlays are re-encoded as GeoJSON so the map layer can
// consume them directly.

type currentResponse struct {
	Mode        string      `json:"mode,omitempty"`
	Phase       string      `json:"phase"`
	OperationID string      `json:"operation_id,omitempty"`
	StartedAt   string      `json:"started_at,omitempty"`
	CompletedAt string      `json:"completed_at,omitempty"`
	Failure     string      `json:"failure,omitempty"`
	Connected   bool        `json:"backend_connected"`
	Result      *resultView `json:"result,omitempty"`
}

type resultView struct {
	Mode       string          `json:"mode"`
	Analysis   *analysisView   `json:"analysis,omitempty"`
	Prediction *predictionView `json:"prediction,omitempty"`
}

type analysisView struct {
	Statistics            domain.FloodStatistics  `json:"statistics"`
	FloodPercent          float64                 `json:"flood_percent"`
	RiskZonesGeoJSON      json.RawMessage         `json:"risk_zones_geojson"`
	BuildingsAffected     int                     `json:"buildings_affected"`
	Buildings             []domain.BuildingRecord `json:"buildings"`
	ProcessingTimeSeconds float64                 `json:"processing_time_seconds"`
	Message               string                  `json:"message,omitempty"`
}

type predictionView struct {
	Timestamp             string                       `json:"timestamp,omitempty"`
	HorizonHours          int                          `json:"horizon_hours"`
	FloodProbability      float64                      `json:"flood_probability"`
	RiskLevel             string                       `json:"risk_level"`
	Confidence            float64                      `json:"confidence"`
	Precipitation         *domain.PrecipitationSummary `json:"precipitation,omitempty"`
	Factors               *domain.RiskFactors          `json:"risk_factors,omitempty"`
	RiskZonesGeoJSON      json.RawMessage              `json:"risk_zones_geojson"`
	Evacuations           []domain.EvacuationPriority  `json:"evacuation_priorities"`
	ProcessingTimeSeconds float64                      `json:"processing_time_seconds"`
	NextUpdateMinutes     float64                      `json:"next_update_minutes,omitempty"`
	Message               string                       `json:"message,omitempty"`
}

func encodeResult(r *domain.OperationResult) (*resultView, error) {
	view := &resultView{Mode: string(r.Mode)}

	if a := r.Analysis; a != nil {
		overlay, err := a.Overlay.GeoJSON()
		if err != nil {
			return nil, fmt.Errorf("encode analysis overlay: %w", err)
		}
		view.Analysis = &analysisView{
			Statistics:            a.Stats,
			FloodPercent:          a.Stats.FloodPercent(),
			RiskZonesGeoJSON:      overlay,
			BuildingsAffected:     a.BuildingsAffected,
			Buildings:             a.Buildings,
			ProcessingTimeSeconds: a.ProcessingTime.Seconds(),
			Message:               a.Message,
		}
	}

	if p := r.Prediction; p != nil {
		overlay, err := p.Overlay.GeoJSON()
		if err != nil {
			return nil, fmt.Errorf("encode prediction overlay: %w", err)
		}
		view.Prediction = &predictionView{
			HorizonHours:          p.HorizonHours,
			FloodProbability:      p.FloodProbability,
			RiskLevel:             string(p.RiskLevel),
			Confidence:            p.Confidence,
			Precipitation:         p.Precipitation,
			Factors:               p.Factors,
			RiskZonesGeoJSON:      overlay,
			Evacuations:           p.Evacuations,
			ProcessingTimeSeconds: p.ProcessingTime.Seconds(),
			NextUpdateMinutes:     p.NextUpdate.Minutes(),
			Message:               p.Message,
		}
		if !p.Timestamp.IsZero() {
			view.Prediction.Timestamp = p.Timestamp.UTC().Format(time.RFC3339)
		}
	}

	return view, nil
}
