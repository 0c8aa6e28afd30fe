package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValid(UM2S))
	assert.True(t, IsValid(NM2S))
	assert.False(t, IsValid("m2s"))
	assert.False(t, IsValid(""))
}

func TestConvertDiffusion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.5, ConvertDiffusion(0.5, UM2S))
	assert.InDelta(t, 5e5, ConvertDiffusion(0.5, NM2S), 1e-9)
	// Unknown units fall back to µm²/s.
	assert.Equal(t, 0.5, ConvertDiffusion(0.5, "bogus"))
}
