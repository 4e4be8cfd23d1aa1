package nfnt_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texproc/texproc/resample/nfnt"
	"github.com/texproc/texproc/tex"
)

func TestFilterSupport(t *testing.T) {
	r := &nfnt.Resampler{}
	assert.True(t, r.SupportsFilter(tex.FilterNearest))
	assert.True(t, r.SupportsFilter(tex.FilterBilinear))
	assert.True(t, r.SupportsFilter(tex.FilterBicubic))
	// no box/area kernel in the library
	assert.False(t, r.SupportsFilter(tex.FilterBox))
}

func TestResample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	r := &nfnt.Resampler{}
	m, err := r.Resample(src, 4, 4, tex.FilterBilinear)
	require.NoError(t, err)
	b := m.Bounds()
	assert.Equal(t, 4, b.Dx())
	assert.Equal(t, 4, b.Dy())

	_, err = r.Resample(src, 4, 4, tex.FilterBox)
	assert.Error(t, err)
}
