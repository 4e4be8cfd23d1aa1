package tex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/texproc/texproc/tex"
)

func TestFormatValidRange(t *testing.T) {
	assert.False(t, tex.FormatUnknown.Valid())
	assert.True(t, tex.PixelFormat(1).Valid())
	assert.True(t, tex.PixelFormat(115).Valid())
	assert.False(t, tex.PixelFormat(116).Valid())
	assert.False(t, tex.PixelFormat(400).Valid())
}

func TestBlockFormats(t *testing.T) {
	assert.True(t, tex.FormatBC1UNorm.IsBlockCompressed())
	assert.True(t, tex.FormatBC3UNorm.IsBlockCompressed())
	assert.True(t, tex.FormatBC7UNorm.IsBlockCompressed())
	assert.False(t, tex.FormatR8G8B8A8UNorm.IsBlockCompressed())
	assert.False(t, tex.FormatB8G8R8A8UNorm.IsBlockCompressed())

	assert.Equal(t, 8, tex.FormatBC1UNorm.BlockBytes())
	assert.Equal(t, 8, tex.FormatBC4UNorm.BlockBytes())
	assert.Equal(t, 16, tex.FormatBC2UNorm.BlockBytes())
	assert.Equal(t, 16, tex.FormatBC3UNorm.BlockBytes())
	assert.Equal(t, 0, tex.FormatR8G8B8A8UNorm.BlockBytes())
}

func TestComputePitch(t *testing.T) {
	// 256px RGBA8 row = 1024 bytes
	rp, sp := tex.ComputePitch(tex.FormatR8G8B8A8UNorm, 256, 128)
	assert.Equal(t, 1024, rp)
	assert.Equal(t, 1024*128, sp)

	// BC1: 64 blocks per row, 8 bytes each
	rp, sp = tex.ComputePitch(tex.FormatBC1UNorm, 256, 256)
	assert.Equal(t, 64*8, rp)
	assert.Equal(t, 64*8*64, sp)

	// partial blocks round up
	rp, sp = tex.ComputePitch(tex.FormatBC3UNorm, 2, 2)
	assert.Equal(t, 16, rp)
	assert.Equal(t, 16, sp)
}

func TestChannelOrder(t *testing.T) {
	assert.Equal(t, tex.OrderRGBA, tex.FormatR8G8B8A8UNorm.Order())
	assert.Equal(t, tex.OrderBGRA, tex.FormatB8G8R8A8UNorm.Order())
	assert.Equal(t, tex.OrderSingle, tex.FormatR8UNorm.Order())
	assert.Equal(t, tex.OrderRGBA, tex.FormatBC3UNorm.Order())
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]tex.PixelFormat{
		`rgba8`:     tex.FormatR8G8B8A8UNorm,
		`BC3`:       tex.FormatBC3UNorm,
		`dxt1`:      tex.FormatBC1UNorm,
		`BC1_UNORM`: tex.FormatBC1UNorm,
	} {
		got, err := tex.ParseFormat(name)
		assert.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := tex.ParseFormat(`nope`)
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	f, err := tex.ParseFilter(`Bicubic`)
	assert.NoError(t, err)
	assert.Equal(t, tex.FilterBicubic, f)
	_, err = tex.ParseFilter(`lanczos`)
	assert.Error(t, err)
}
