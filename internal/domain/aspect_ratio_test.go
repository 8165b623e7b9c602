package domain_test

import (
	"testing"

	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAspectRatio(t *testing.T) {
	tests := []struct {
		in     string
		suffix string
		height float64
	}{
		{"1:1", "square", 500},
		{"4:5", "portrait", 625},
		{"9:16", "reel-story", 500 * 16.0 / 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := domain.ParseAspectRatio(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.suffix, r.Suffix())
			assert.InDelta(t, tt.height, r.Height(500), 1e-9)
		})
	}
}

func TestParseAspectRatioUnknown(t *testing.T) {
	_, err := domain.ParseAspectRatio("16:9")
	assert.ErrorIs(t, err, domain.ErrUnknownAspectRatio)
}
