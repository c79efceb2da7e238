package domain

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// RiskLevel is the discrete risk band assigned to a prediction or a risk zone.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskZone is a single geographic polygon tagged with a flood probability
// and, in prediction mode, a discrete risk level.
type RiskZone struct {
	Geometry         *geom.Polygon
	FloodProbability float64
	RiskLevel        RiskLevel // empty in analysis mode
	AreaKm2          float64
}

// RiskOverlay is the collection of risk zones produced by one completed
// operation. Overlays are replaced wholesale on the next completed operation,
// never mutated in place.
type RiskOverlay struct {
	Zones []RiskZone
}

// ParseOverlay decodes a GeoJSON FeatureCollection into a typed overlay.
// A nil or empty payload yields an empty overlay: the backend omits the
// overlay when detection found nothing.
func ParseOverlay(raw []byte) (RiskOverlay, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return RiskOverlay{}, nil
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return RiskOverlay{}, fmt.Errorf("decode overlay geojson: %w", err)
	}

	zones := make([]RiskZone, 0, len(fc.Features))
	for i, f := range fc.Features {
		polygon, ok := f.Geometry.(*geom.Polygon)
		if !ok {
			return RiskOverlay{}, fmt.Errorf("overlay feature %d: geometry is not a Polygon", i)
		}
		zones = append(zones, RiskZone{
			Geometry:         polygon,
			FloodProbability: propFloat(f.Properties, "flood_probability"),
			RiskLevel:        RiskLevel(propString(f.Properties, "risk_level")),
			AreaKm2:          propFloat(f.Properties, "area_km2"),
		})
	}
	return RiskOverlay{Zones: zones}, nil
}

// GeoJSON encodes the overlay back into a GeoJSON FeatureCollection for the
// map layer.
func (o RiskOverlay) GeoJSON() ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(o.Zones))}
	for _, z := range o.Zones {
		props := map[string]interface{}{
			"flood_probability": z.FloodProbability,
		}
		if z.RiskLevel != "" {
			props["risk_level"] = string(z.RiskLevel)
		}
		if z.AreaKm2 > 0 {
			props["area_km2"] = z.AreaKm2
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   z.Geometry,
			Properties: props,
		})
	}
	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("encode overlay geojson: %w", err)
	}
	return data, nil
}

func propFloat(props map[string]interface{}, key string) float64 {
	if v, ok := props[key].(float64); ok {
		return v
	}
	return 0
}

func propString(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
