package domain

import "time"

// Mode identifies one of the two mutually exclusive operation modes.
type Mode string

const (
	ModeAnalysis   Mode = "analysis"
	ModePrediction Mode = "prediction"
)

// SAR polarizations accepted by the backend.
const (
	PolarizationVV      = "VV"
	PolarizationVH      = "VH"
	DefaultPolarization = PolarizationVV
)

// AnalysisOutcome is the published result of a completed historical-imagery
// analysis: primary flood statistics plus the optional building enrichment.
type AnalysisOutcome struct {
	Stats             FloodStatistics
	Overlay           RiskOverlay
	BuildingsAffected int
	Buildings         []BuildingRecord
	ProcessingTime    time.Duration
	Message           string
}

// OperationResult is a tagged union over the operation mode. Exactly one of
// Analysis or Prediction is set. At most one OperationResult is live at any
// time; starting either mode discards the other mode's result first.
type OperationResult struct {
	Mode       Mode
	Analysis   *AnalysisOutcome
	Prediction *PredictionOutcome
}

// AnalysisParams are the caller-supplied inputs to an analysis run.
type AnalysisParams struct {
	BBox         BoundingBox
	DateBefore   time.Time
	DateAfter    time.Time
	Polarization string
}

// Validate checks the region, dates, and polarization before any request is
// issued. Date ordering is left to the backend; only well-formedness is
// enforced here.
func (p AnalysisParams) Validate() error {
	if p.BBox.IsZero() {
		return &ValidationError{Field: "bbox", Reason: "no committed selection"}
	}
	if err := p.BBox.Validate(); err != nil {
		return err
	}
	if p.DateBefore.IsZero() {
		return &ValidationError{Field: "date_before", Reason: "missing or malformed date"}
	}
	if p.DateAfter.IsZero() {
		return &ValidationError{Field: "date_after", Reason: "missing or malformed date"}
	}
	switch p.Polarization {
	case PolarizationVV, PolarizationVH:
		return nil
	default:
		return &ValidationError{Field: "polarization", Reason: "must be VV or VH"}
	}
}

// WithDefaults fills the default polarization when the caller omitted it.
func (p AnalysisParams) WithDefaults() AnalysisParams {
	if p.Polarization == "" {
		p.Polarization = DefaultPolarization
	}
	return p
}

// ServiceHealth is the backend's health-probe response.
type ServiceHealth struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}
