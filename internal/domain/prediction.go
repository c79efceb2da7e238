package domain

import "time"

// Prediction horizons accepted by the backend, in hours.
const (
	MinHorizonHours = 1
	MaxHorizonHours = 24
)

// EvacuationRisk is the risk band used by evacuation priorities. It is a
// distinct scale from RiskLevel ("medium" rather than "moderate").
type EvacuationRisk string

const (
	EvacuationLow      EvacuationRisk = "low"
	EvacuationMedium   EvacuationRisk = "medium"
	EvacuationHigh     EvacuationRisk = "high"
	EvacuationCritical EvacuationRisk = "critical"
)

// EvacuationPriority is a building-level evacuation recommendation. The
// backend ranks the list highest risk first; the console preserves the
// received order and never re-sorts.
type EvacuationPriority struct {
	OSMID            int64          `json:"osm_id"`
	Name             string         `json:"name,omitempty"`
	Category         string         `json:"building_type"`
	Lat              float64        `json:"lat"`
	Lon              float64        `json:"lon"`
	RiskLevel        EvacuationRisk `json:"risk_level"`
	FloodProbability float64        `json:"flood_probability"`
	EvacuationScore  float64        `json:"evacuation_score"`
	HoursToFlood     float64        `json:"estimated_time_to_flood_hours"`
	PeopleEstimate   int            `json:"people_estimate"`
}

// PrecipitationSummary describes the rainfall input to a prediction.
type PrecipitationSummary struct {
	MeanMm        float64 `json:"mean_mm"`
	MaxMm         float64 `json:"max_mm"`
	Source        string  `json:"source"`
	HoursAnalyzed int     `json:"hours_analyzed"`
	Simulated     bool    `json:"is_simulated"`
}

// RiskFactors breaks a prediction down into its model contributions.
type RiskFactors struct {
	PrecipitationContribution float64 `json:"precipitation_contribution"`
	TerrainContribution       float64 `json:"terrain_contribution"`
	TimeFactor                float64 `json:"time_factor"`
}

// PredictionOutcome is the published result of a completed prediction.
type PredictionOutcome struct {
	Timestamp        time.Time
	HorizonHours     int
	FloodProbability float64
	RiskLevel        RiskLevel
	Confidence       float64
	Precipitation    *PrecipitationSummary
	Factors          *RiskFactors
	Overlay          RiskOverlay
	Evacuations      []EvacuationPriority
	ProcessingTime   time.Duration
	NextUpdate       time.Duration
	Message          string
}

// PredictionParams are the caller-supplied inputs to a prediction run.
type PredictionParams struct {
	BBox         BoundingBox
	HorizonHours int
}

// Validate checks the region and horizon before any request is issued.
func (p PredictionParams) Validate() error {
	if p.BBox.IsZero() {
		return &ValidationError{Field: "bbox", Reason: "no committed selection"}
	}
	if err := p.BBox.Validate(); err != nil {
		return err
	}
	if p.HorizonHours < MinHorizonHours || p.HorizonHours > MaxHorizonHours {
		return &ValidationError{Field: "horizon_hours", Reason: "must be in [1, 24]"}
	}
	return nil
}
