package domain

import "math"

// Per-unit replacement costs in PLN. One infrastructure asset is assumed
// damaged per 2 km2 of flooding; agricultural land is assumed to cover 30%
// of the flooded area.
const (
	residentialUnitCost    = 150_000
	commercialUnitCost     = 500_000
	industrialUnitCost     = 1_200_000
	infrastructureUnitCost = 300_000
	agriculturalCostPerKm2 = 50_000

	km2PerInfrastructureAsset = 2.0
	agriculturalAreaShare     = 0.3
)

// Partition splits affected buildings into fixed usage categories:
// residential 70%, commercial 20%, industrial 10%, each floored
// independently. The three floors may sum to less than the input; the
// under-count is accepted, not corrected.
type Partition struct {
	Residential int `json:"residential"`
	Commercial  int `json:"commercial"`
	Industrial  int `json:"industrial"`
}

// LossEstimate is a categorized monetary damage estimate in PLN. It is a
// derived view, recomputed on demand from the live analysis outcome.
type LossEstimate struct {
	Buildings      float64   `json:"buildings"`
	Infrastructure float64   `json:"infrastructure"`
	Agricultural   float64   `json:"agricultural"`
	Total          float64   `json:"total"`
	Partition      Partition `json:"partition"`
}

// EstimateLoss converts aggregate flood statistics into a categorized
// monetary loss. It is deterministic and never clamps: negative inputs are a
// contract violation. All-zero inputs yield an all-zero estimate.
func EstimateLoss(buildingsAffected int, floodedAreaKm2 float64) (LossEstimate, error) {
	if buildingsAffected < 0 {
		return LossEstimate{}, &ValidationError{Field: "buildings_affected", Reason: "must be non-negative"}
	}
	if floodedAreaKm2 < 0 {
		return LossEstimate{}, &ValidationError{Field: "flooded_area_km2", Reason: "must be non-negative"}
	}

	p := Partition{
		Residential: int(math.Floor(float64(buildingsAffected) * 0.7)),
		Commercial:  int(math.Floor(float64(buildingsAffected) * 0.2)),
		Industrial:  int(math.Floor(float64(buildingsAffected) * 0.1)),
	}

	buildings := float64(p.Residential)*residentialUnitCost +
		float64(p.Commercial)*commercialUnitCost +
		float64(p.Industrial)*industrialUnitCost
	infrastructure := math.Ceil(floodedAreaKm2/km2PerInfrastructureAsset) * infrastructureUnitCost
	agricultural := floodedAreaKm2 * agriculturalAreaShare * agriculturalCostPerKm2

	return LossEstimate{
		Buildings:      buildings,
		Infrastructure: infrastructure,
		Agricultural:   agricultural,
		Total:          buildings + infrastructure + agricultural,
		Partition:      p,
	}, nil
}
