// Package selector implements the interactive rectangle-selection state
// machine: Idle -> Drawing -> Idle, committing a normalized bounding box on
// release. Zero-area selections are permitted here at the data-model level;
// the orchestrator's validation rejects degenerate regions before any request
// is issued.
package selector

import (
	"log/slog"
	"sync"

	"github.com/floodwatch/opsconsole/internal/domain"
)

// Selector tracks one drawing gesture and the latest committed selection.
// It is driven from concurrent HTTP handlers, so all state sits behind a
// mutex.
type Selector struct {
	mu           sync.Mutex
	drawing      bool
	anchorLon    float64
	anchorLat    float64
	committed    domain.BoundingBox
	hasCommitted bool
	logger       *slog.Logger
}

// New creates an idle Selector.
func New(logger *slog.Logger) *Selector {
	return &Selector{logger: logger}
}

// Begin enters Drawing and records the anchor point. The gesture only starts
// while the modifier is held; an unmodified pointer-down pans the map
// instead. Returns whether drawing started.
func (s *Selector) Begin(lon, lat float64, modifier bool) bool {
	if !modifier {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = true
	s.anchorLon = lon
	s.anchorLat = lat
	s.logger.Debug("selection started", "lon", lon, "lat", lat)
	return true
}

// Update recomputes the provisional rectangle from the anchor and the current
// pointer position. Purely presentational feedback; nothing is committed.
// Returns false when no gesture is in progress.
func (s *Selector) Update(lon, lat float64) (domain.BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawing {
		return domain.BoundingBox{}, false
	}
	return domain.NewBoundingBox(s.anchorLon, s.anchorLat, lon, lat), true
}

// Complete normalizes the anchor and release corners into a committed
// BoundingBox and returns to Idle. Returns false when no gesture is in
// progress.
func (s *Selector) Complete(lon, lat float64) (domain.BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawing {
		return domain.BoundingBox{}, false
	}

	bbox := domain.NewBoundingBox(s.anchorLon, s.anchorLat, lon, lat)
	s.drawing = false
	s.committed = bbox
	s.hasCommitted = true
	s.logger.Info("selection committed",
		"min_lon", bbox.MinLon, "min_lat", bbox.MinLat,
		"max_lon", bbox.MaxLon, "max_lat", bbox.MaxLat,
	)
	return bbox, true
}

// Cancel abandons an in-progress gesture without committing. The previously
// committed selection, if any, is untouched.
func (s *Selector) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = false
}

// Committed returns the latest committed selection, if any.
func (s *Selector) Committed() (domain.BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed, s.hasCommitted
}

// Clear drops the committed selection.
func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = domain.BoundingBox{}
	s.hasCommitted = false
}
