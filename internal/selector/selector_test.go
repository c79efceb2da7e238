package selector_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/floodwatch/opsconsole/internal/domain"
	"github.com/floodwatch/opsconsole/internal/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSelector() *selector.Selector {
	return selector.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSelector_GestureFlow(t *testing.T) {
	s := newSelector()

	require.True(t, s.Begin(17.02, 51.10, true))

	provisional, ok := s.Update(17.03, 51.11)
	require.True(t, ok)
	assert.Equal(t, domain.NewBoundingBox(17.02, 51.10, 17.03, 51.11), provisional)

	committed, ok := s.Complete(17.04, 51.12)
	require.True(t, ok)
	assert.Equal(t, domain.NewBoundingBox(17.02, 51.10, 17.04, 51.12), committed)

	stored, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, committed, stored)

	// Gesture is over; further moves do nothing.
	_, ok = s.Update(18.0, 52.0)
	assert.False(t, ok)
}

func TestSelector_RequiresModifier(t *testing.T) {
	s := newSelector()

	assert.False(t, s.Begin(17.02, 51.10, false))
	_, ok := s.Update(17.03, 51.11)
	assert.False(t, ok)
	_, ok = s.Complete(17.04, 51.12)
	assert.False(t, ok)
	_, ok = s.Committed()
	assert.False(t, ok)
}

func TestSelector_CommitIsOrderIndependent(t *testing.T) {
	// Dragging from either corner commits the same normalized box.
	a := newSelector()
	require.True(t, a.Begin(17.02, 51.10, true))
	boxA, ok := a.Complete(17.04, 51.12)
	require.True(t, ok)

	b := newSelector()
	require.True(t, b.Begin(17.04, 51.12, true))
	boxB, ok := b.Complete(17.02, 51.10)
	require.True(t, ok)

	assert.Equal(t, boxA, boxB)
}

func TestSelector_CancelKeepsPriorCommit(t *testing.T) {
	s := newSelector()

	require.True(t, s.Begin(17.02, 51.10, true))
	first, ok := s.Complete(17.04, 51.12)
	require.True(t, ok)

	require.True(t, s.Begin(18.0, 52.0, true))
	s.Cancel()

	_, ok = s.Complete(19.0, 53.0)
	assert.False(t, ok, "cancelled gesture must not commit")

	stored, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, first, stored)
}

func TestSelector_NewSelectionSupersedesOld(t *testing.T) {
	s := newSelector()

	require.True(t, s.Begin(17.02, 51.10, true))
	_, ok := s.Complete(17.04, 51.12)
	require.True(t, ok)

	require.True(t, s.Begin(18.0, 52.0, true))
	second, ok := s.Complete(18.5, 52.5)
	require.True(t, ok)

	stored, ok := s.Committed()
	require.True(t, ok)
	assert.Equal(t, second, stored)
}

func TestSelector_Clear(t *testing.T) {
	s := newSelector()

	require.True(t, s.Begin(17.02, 51.10, true))
	_, ok := s.Complete(17.04, 51.12)
	require.True(t, ok)

	s.Clear()
	_, ok = s.Committed()
	assert.False(t, ok)
}

func TestSelector_ZeroAreaCommitPermitted(t *testing.T) {
	// A click without a drag commits a degenerate box; rejecting it is the
	// orchestrator's job, not the selector's.
	s := newSelector()
	require.True(t, s.Begin(17.02, 51.10, true))
	bbox, ok := s.Complete(17.02, 51.10)
	require.True(t, ok)
	assert.Zero(t, bbox.Width())
	assert.Zero(t, bbox.Height())
	assert.Error(t, bbox.Validate())
}
