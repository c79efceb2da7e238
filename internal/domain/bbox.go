package domain

// BoundingBox is an axis-aligned rectangle on the Earth's surface in WGS-84
// degrees. Instances are normalized on construction and treated as immutable:
// a new selection produces a new box, never a mutation of the old one.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// NewBoundingBox builds a normalized box from two arbitrary corners.
// Corner order does not matter: (a,b) and (b,a) produce the same box.
func NewBoundingBox(lon1, lat1, lon2, lat2 float64) BoundingBox {
	return BoundingBox{
		MinLon: min(lon1, lon2),
		MinLat: min(lat1, lat2),
		MaxLon: max(lon1, lon2),
		MaxLat: max(lat1, lat2),
	}
}

// Width returns the longitudinal extent in degrees.
func (b BoundingBox) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the latitudinal extent in degrees.
func (b BoundingBox) Height() float64 { return b.MaxLat - b.MinLat }

// IsZero reports whether the box is the zero value (no selection).
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Validate checks world bounds and rejects degenerate (zero width or height)
// regions, which carry no analyzable area.
func (b BoundingBox) Validate() error {
	if b.MinLon < -180 || b.MaxLon > 180 {
		return &ValidationError{Field: "bbox", Reason: "longitude out of range [-180, 180]"}
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return &ValidationError{Field: "bbox", Reason: "latitude out of range [-90, 90]"}
	}
	if b.Width() <= 0 || b.Height() <= 0 {
		return &ValidationError{Field: "bbox", Reason: "degenerate region: zero width or height"}
	}
	return nil
}
