package domain_test

import (
	"testing"

	"github.com/floodwatch/opsconsole/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundingBox_NormalizesCorners(t *testing.T) {
	a := domain.NewBoundingBox(17.04, 51.12, 17.02, 51.10)
	b := domain.NewBoundingBox(17.02, 51.10, 17.04, 51.12)

	assert.Equal(t, a, b, "corner order must not matter")
	assert.Equal(t, 17.02, a.MinLon)
	assert.Equal(t, 51.10, a.MinLat)
	assert.Equal(t, 17.04, a.MaxLon)
	assert.Equal(t, 51.12, a.MaxLat)
}

func TestNewBoundingBox_MixedCorners(t *testing.T) {
	// Opposite corners supplied as (top-left, bottom-right).
	b := domain.NewBoundingBox(17.02, 51.12, 17.04, 51.10)
	assert.Equal(t, domain.NewBoundingBox(17.02, 51.10, 17.04, 51.12), b)
}

func TestBoundingBox_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bbox    domain.BoundingBox
		wantErr string
	}{
		{
			name: "valid",
			bbox: domain.NewBoundingBox(17.02, 51.10, 17.04, 51.12),
		},
		{
			name:    "longitude out of range",
			bbox:    domain.NewBoundingBox(-181, 51.10, 17.04, 51.12),
			wantErr: "longitude",
		},
		{
			name:    "latitude out of range",
			bbox:    domain.NewBoundingBox(17.02, 51.10, 17.04, 90.5),
			wantErr: "latitude",
		},
		{
			name:    "zero width",
			bbox:    domain.NewBoundingBox(17.02, 51.10, 17.02, 51.12),
			wantErr: "degenerate",
		},
		{
			name:    "zero height",
			bbox:    domain.NewBoundingBox(17.02, 51.10, 17.04, 51.10),
			wantErr: "degenerate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bbox.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBoundingBox_Dimensions(t *testing.T) {
	b := domain.NewBoundingBox(17.0, 51.0, 17.5, 51.2)
	assert.InEpsilon(t, 0.5, b.Width(), 1e-9)
	assert.InEpsilon(t, 0.2, b.Height(), 1e-9)
	assert.False(t, b.IsZero())
	assert.True(t, domain.BoundingBox{}.IsZero())
}
