package mockbackend

import "fmt"

// Fixtures reproduce the July 1997 Wrocław flood at the magnitude operators
// expect from training material: 7.5 of 50 km2 under water, 1247 buildings
// affected.

func wroclawAnalysis() map[string]any {
	return map[string]any{
		"status":  "completed",
		"message": "Analysis completed for the Wrocław region (1997-07 reference event).",
		"stats": map[string]any{
			"total_pixels":     500_000,
			"flooded_pixels":   75_000,
			"area_km2":         50.0,
			"flooded_area_km2": 7.5,
		},
		"flood_geojson":           riskZones(false),
		"buildings_affected":      1247,
		"processing_time_seconds": 2.3,
	}
}

func wroclawBuildings() map[string]any {
	return map[string]any{
		"total_count":   3512,
		"flooded_count": 1247,
		"buildings": []map[string]any{
			{
				"osm_id":            1001,
				"name":              "Szpital Wojewódzki",
				"building_type":     "hospital",
				"lat":               51.107,
				"lon":               17.032,
				"is_flooded":        true,
				"flood_probability": 0.93,
			},
			{
				"osm_id":            1002,
				"name":              "Szkoła Podstawowa nr 18",
				"building_type":     "school",
				"lat":               51.102,
				"lon":               17.041,
				"is_flooded":        true,
				"flood_probability": 0.81,
			},
			{
				"osm_id":            1003,
				"name":              "Osiedle Kozanów",
				"building_type":     "apartments",
				"lat":               51.132,
				"lon":               16.987,
				"is_flooded":        true,
				"flood_probability": 0.88,
			},
			{
				"osm_id":            1004,
				"building_type":     "residential",
				"lat":               51.118,
				"lon":               17.015,
				"is_flooded":        false,
				"flood_probability": 0.12,
			},
		},
	}
}

func wroclawPrediction(horizonHours int) map[string]any {
	return map[string]any{
		"status":            "completed",
		"message":           fmt.Sprintf("Prediction completed for a %dh horizon.", horizonHours),
		"timestamp":         "1997-07-12T06:00:00Z",
		"prediction_hours":  horizonHours,
		"flood_probability": 0.72,
		"risk_level":        "high",
		"confidence":        0.85,
		"precipitation": map[string]any{
			"mean_mm":        42.5,
			"max_mm":         85.0,
			"source":         "IMGW",
			"hours_analyzed": 24,
			"is_simulated":   true,
		},
		"risk_factors": map[string]any{
			"precipitation_contribution": 0.45,
			"terrain_contribution":       0.35,
			"time_factor":                0.2,
		},
		"risk_zones_geojson": riskZones(true),
		"evacuation_priorities": []map[string]any{
			{
				"osm_id":                        1001,
				"name":                          "Szpital Wojewódzki",
				"building_type":                 "hospital",
				"lat":                           51.107,
				"lon":                           17.032,
				"risk_level":                    "critical",
				"flood_probability":             0.93,
				"evacuation_score":              9.7,
				"estimated_time_to_flood_hours": 2.5,
				"people_estimate":               450,
			},
			{
				"osm_id":                        1002,
				"name":                          "Szkoła Podstawowa nr 18",
				"building_type":                 "school",
				"lat":                           51.102,
				"lon":                           17.041,
				"risk_level":                    "high",
				"flood_probability":             0.81,
				"evacuation_score":              8.2,
				"estimated_time_to_flood_hours": 4.0,
				"people_estimate":               320,
			},
			{
				"osm_id":                        1003,
				"name":                          "Osiedle Kozanów",
				"building_type":                 "apartments",
				"lat":                           51.132,
				"lon":                           16.987,
				"risk_level":                    "high",
				"flood_probability":             0.88,
				"evacuation_score":              7.9,
				"estimated_time_to_flood_hours": 5.5,
				"people_estimate":               1200,
			},
		},
		"processing_time_seconds": 1.2,
		"next_update_minutes":     30,
	}
}

// riskZones builds the overlay FeatureCollection. Prediction zones carry a
// risk_level property; analysis zones only a probability and an area.
func riskZones(withLevels bool) map[string]any {
	zoneProps := func(probability, areaKm2 float64, level string) map[string]any {
		props := map[string]any{
			"flood_probability": probability,
			"area_km2":          areaKm2,
		}
		if withLevels {
			props["risk_level"] = level
		}
		return props
	}

	return map[string]any{
		"type": "FeatureCollection",
		"features": []map[string]any{
			{
				"type":       "Feature",
				"properties": zoneProps(0.9, 4.2, "critical"),
				"geometry": map[string]any{
					"type": "Polygon",
					"coordinates": [][][]float64{{
						{17.00, 51.09}, {17.06, 51.09}, {17.06, 51.12}, {17.00, 51.12}, {17.00, 51.09},
					}},
				},
			},
			{
				"type":       "Feature",
				"properties": zoneProps(0.6, 3.3, "high"),
				"geometry": map[string]any{
					"type": "Polygon",
					"coordinates": [][][]float64{{
						{16.96, 51.12}, {17.01, 51.12}, {17.01, 51.15}, {16.96, 51.15}, {16.96, 51.12},
					}},
				},
			},
		},
	}
}
