package domain

// BuildingRecord is a single building enriched from the geographic database,
// tagged with whether the flood mask covers it.
type BuildingRecord struct {
	OSMID            int64   `json:"osm_id"`
	Name             string  `json:"name,omitempty"`
	Category         string  `json:"building_type"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	Flooded          bool    `json:"is_flooded"`
	FloodProbability float64 `json:"flood_probability"`
}

// BuildingCensus is the result of a buildings lookup for a region.
type BuildingCensus struct {
	TotalCount   int              `json:"total_count"`
	FloodedCount int              `json:"flooded_count"`
	Buildings    []BuildingRecord `json:"buildings"`
}
