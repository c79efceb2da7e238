package domain

// FloodStatistics aggregates pixel-level flood detection results for an
// analyzed region. The flood percentage is always derived from the pixel
// counts, never stored, so the two can not drift apart.
type FloodStatistics struct {
	TotalPixels    int     `json:"total_pixels"`
	FloodedPixels  int     `json:"flooded_pixels"`
	AreaKm2        float64 `json:"area_km2"`
	FloodedAreaKm2 float64 `json:"flooded_area_km2"`
}

// FloodPercent returns the flooded share of the analyzed area in [0, 100].
func (s FloodStatistics) FloodPercent() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.FloodedPixels) / float64(s.TotalPixels) * 100
}

// Validate enforces the pixel-count invariants.
func (s FloodStatistics) Validate() error {
	if s.TotalPixels < 0 || s.FloodedPixels < 0 {
		return &ValidationError{Field: "stats", Reason: "negative pixel count"}
	}
	if s.FloodedPixels > s.TotalPixels {
		return &ValidationError{Field: "stats", Reason: "flooded pixels exceed total pixels"}
	}
	if s.AreaKm2 < 0 || s.FloodedAreaKm2 < 0 {
		return &ValidationError{Field: "stats", Reason: "negative area"}
	}
	return nil
}
