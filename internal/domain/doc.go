// Package domain models the flood operations console core: spatial regions,
// flood statistics, risk overlays, building and evacuation records, and the
// pure derivations over them (financial loss estimation, report rendering).
//
// # Coordinate Conventions
//
// All coordinates are WGS-84 degrees, longitude/latitude order. A bounding box
// is an axis-aligned rectangle normalized on construction so that
// min_lon ≤ max_lon and min_lat ≤ max_lat regardless of which corners the
// caller supplied.
//
// # Wire Conventions
//
// JSON field names follow the inference backend contract: bbox corners as
// min_lon/min_lat/max_lon/max_lat, dates as YYYY-MM-DD, overlays as GeoJSON
// FeatureCollections whose features carry flood_probability and, for
// predictions, risk_level properties.
//
// # Risk Scales
//
// Risk zones use a four-level scale (low, moderate, high, critical) assigned
// by the prediction model. Evacuation priorities use their own four-level
// scale (low, medium, high, critical) and arrive pre-ranked from the backend;
// the console preserves the received order and never re-sorts.
//
// # Derived Views
//
// LossEstimate and the report text are recomputed on demand from the live
// analysis outcome. They are pure functions of their inputs, never cached,
// which removes staleness bugs by construction.
package domain
