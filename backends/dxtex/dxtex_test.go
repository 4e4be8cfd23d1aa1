package dxtex_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texproc/texproc/backends/dxtex"
	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/resample/nfnt"
	"github.com/texproc/texproc/tex"
)

func newDispatcher(t *testing.T) *tex.Dispatcher {
	t.Helper()
	d, err := tex.NewDispatcher(tex.SetBackends(dxtex.New()))
	require.NoError(t, err)
	return d
}

func newRGBA2D(t *testing.T, w, h int, r, g, b, a byte) *tex.Image {
	t.Helper()
	img := &tex.Image{}
	_, total := tex.SubimageLayout(tex.Tex2D, tex.FormatR8G8B8A8UNorm, w, h, 1, 1, 1)
	data := make([]byte, total)
	for i := 0; i < total; i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = r, g, b, a
	}
	require.NoError(t, img.Update(tex.Tex2D, tex.FormatR8G8B8A8UNorm, w, h, 1, 1, 1, data))
	return img
}

func newVolume(t *testing.T, w, h, d, mips int) *tex.Image {
	t.Helper()
	img := &tex.Image{}
	_, total := tex.SubimageLayout(tex.Tex3D, tex.FormatR8G8B8A8UNorm, w, h, d, 1, mips)
	data := make([]byte, total)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, img.Update(tex.Tex3D, tex.FormatR8G8B8A8UNorm, w, h, d, 1, mips, data))
	return img
}

func TestCompressRejectsNonMultipleOf4(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 10, 10, 0xff, 0xff, 0xff, 0xff)
	before := append([]byte(nil), img.View()...)

	_, err := d.Process(img, tex.Compress{TargetFormat: tex.FormatBC1UNorm})
	require.Error(t, err)
	var ire *tex.InvalidResolutionError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, 10, ire.Width)
	assert.Equal(t, tex.FormatBC1UNorm, ire.Target)

	// the image keeps its last consistent state
	assert.Equal(t, tex.FormatR8G8B8A8UNorm, img.Format)
	assert.Equal(t, before, img.View())
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 8, 8, 0xff, 0xff, 0xff, 0x80)

	_, err := d.Process(img, tex.Compress{TargetFormat: tex.FormatBC3UNorm})
	require.NoError(t, err)
	assert.Equal(t, tex.FormatBC3UNorm, img.Format)
	assert.Len(t, img.View(), 2*2*16)

	_, err = d.Process(img, tex.Decompress{})
	require.NoError(t, err)
	assert.Equal(t, tex.FormatR8G8B8A8UNorm, img.Format)
	require.Len(t, img.View(), 8*8*4)
	for i := 0; i < 8*8; i++ {
		px := img.View()[i*4 : i*4+4]
		assert.Equal(t, []byte{0xff, 0xff, 0xff, 0x80}, px, `pixel %d`, i)
	}
}

func TestLoadExportLoad(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 16, 16, 0x20, 0x40, 0x80, 0xff)
	_, err := d.Process(img, tex.GenerateMipMaps{Filter: tex.FilterBox})
	require.NoError(t, err)
	require.Equal(t, 5, img.MipLevels)
	want := append([]byte(nil), img.View()...)

	path := filepath.Join(t.TempDir(), `out.dds`)
	_, err = d.Process(img, tex.Export{Path: path})
	require.NoError(t, err)

	loaded := &tex.Image{}
	_, err = d.Process(loaded, tex.Load{Path: path})
	require.NoError(t, err)
	assert.Equal(t, img.Width, loaded.Width)
	assert.Equal(t, img.Height, loaded.Height)
	assert.Equal(t, img.MipLevels, loaded.MipLevels)
	assert.Equal(t, img.Format, loaded.Format)
	assert.Equal(t, want, loaded.View())
}

func TestExportCompressedContainer(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 8, 8, 0x10, 0x10, 0x10, 0xff)
	path := filepath.Join(t.TempDir(), `out.edds`)
	_, err := d.Process(img, tex.Export{Path: path})
	require.NoError(t, err)

	loaded := &tex.Image{}
	_, err = d.Process(loaded, tex.Load{Path: path})
	require.NoError(t, err)
	assert.Equal(t, img.View(), loaded.View())
}

func TestExportMinMipSizeZeroAndOneAreEquivalent(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 16, 16, 0x66, 0x77, 0x88, 0xff)
	_, err := d.Process(img, tex.GenerateMipMaps{Filter: tex.FilterBox})
	require.NoError(t, err)

	dir := t.TempDir()
	p0 := filepath.Join(dir, `zero.dds`)
	p1 := filepath.Join(dir, `one.dds`)
	_, err = d.Process(img, tex.Export{Path: p0, MinimumMipSize: 0})
	require.NoError(t, err)
	_, err = d.Process(img, tex.Export{Path: p1, MinimumMipSize: 1})
	require.NoError(t, err)

	b0, err := os.ReadFile(p0)
	require.NoError(t, err)
	b1, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, b0, b1)
}

func TestExportTrimsMipChain(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 16, 16, 0x66, 0x77, 0x88, 0xff)
	_, err := d.Process(img, tex.GenerateMipMaps{Filter: tex.FilterBox})
	require.NoError(t, err)
	require.Equal(t, 5, img.MipLevels)

	// 16, 8, then 4 is the first mip at or below the threshold
	path := filepath.Join(t.TempDir(), `trimmed.dds`)
	_, err = d.Process(img, tex.Export{Path: path, MinimumMipSize: 4})
	require.NoError(t, err)

	// export does not touch the in-memory chain
	assert.Equal(t, 5, img.MipLevels)

	loaded := &tex.Image{}
	_, err = d.Process(loaded, tex.Load{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.MipLevels)
	assert.Len(t, loaded.Subimages, 3)
}

func TestExportTrimsVolumeMipChain(t *testing.T) {
	d := newDispatcher(t)
	img := newVolume(t, 8, 8, 4, 3)
	require.Len(t, img.Subimages, 4+2+1)
	topWant := append([]byte(nil), img.Subimages[0].Data...)

	// 8, then 4 is the first mip at or below the threshold
	path := filepath.Join(t.TempDir(), `vol.dds`)
	_, err := d.Process(img, tex.Export{Path: path, MinimumMipSize: 4})
	require.NoError(t, err)

	loaded := &tex.Image{}
	_, err = d.Process(loaded, tex.Load{Path: path})
	require.NoError(t, err)
	assert.Equal(t, tex.Tex3D, loaded.Dimension)
	assert.Equal(t, 4, loaded.Depth)
	assert.Equal(t, 2, loaded.MipLevels)
	assert.Len(t, loaded.Subimages, 4+2)
	assert.Equal(t, topWant, loaded.Subimages[0].Data)
}

func TestRescaleDropsMipChain(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 16, 16, 0x40, 0x40, 0x40, 0xff)
	_, err := d.Process(img,
		tex.GenerateMipMaps{Filter: tex.FilterBox},
		tex.Rescale{Width: 12, Height: 6, Filter: tex.FilterBilinear},
	)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Width)
	assert.Equal(t, 6, img.Height)
	assert.Equal(t, 1, img.MipLevels)
	assert.Len(t, img.View(), 12*6*4)
}

func TestRescaleRelativeScale(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 16, 8, 0x40, 0x40, 0x40, 0xff)
	_, err := d.Process(img, tex.Rescale{Scale: 0.5, Filter: tex.FilterBilinear})
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width)
	assert.Equal(t, 4, img.Height)
}

func TestGenerateNormalMapDerivesNewImage(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 8, 8, 0xff, 0x00, 0x00, 0xff)
	before := append([]byte(nil), img.View()...)

	artifacts, err := d.Process(img, tex.GenerateNormalMap{Amplitude: 2})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	nm := artifacts[0]
	require.NotSame(t, img, nm)

	assert.Equal(t, tex.FormatR8G8B8A8UNorm, nm.Format)
	assert.Equal(t, img.Width, nm.Width)
	assert.Equal(t, img.Height, nm.Height)
	// flat height field: every normal points straight up
	assert.Equal(t, []byte{128, 128, 255, 255}, nm.View()[:4])

	// the source is never mutated
	assert.Equal(t, before, img.View())
	assert.Nil(t, d.Owner(nm))
}

func TestPremultiplyAlpha(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 4, 4, 200, 100, 50, 128)
	_, err := d.Process(img, tex.PremultiplyAlpha{})
	require.NoError(t, err)
	assert.Equal(t, []byte{100, 50, 25, 128}, img.View()[:4])
}

func TestScenarioDecompressRescaleExport(t *testing.T) {
	d := newDispatcher(t)
	img := newRGBA2D(t, 256, 256, 0x80, 0x60, 0x40, 0xff)
	_, err := d.Process(img, tex.Compress{TargetFormat: tex.FormatBC3UNorm})
	require.NoError(t, err)
	require.Equal(t, tex.FormatBC3UNorm, img.Format)

	path := filepath.Join(t.TempDir(), `final.dds`)
	_, err = d.Process(img,
		tex.Decompress{},
		tex.Rescale{Width: 128, Height: 128, Filter: tex.FilterBilinear},
		tex.Export{Path: path},
	)
	require.NoError(t, err)

	loaded := &tex.Image{}
	_, err = d.Process(loaded, tex.Load{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 128, loaded.Width)
	assert.Equal(t, 128, loaded.Height)
	assert.Equal(t, tex.FormatR8G8B8A8UNorm, loaded.Format)
	assert.Equal(t, 1, loaded.MipLevels)
}

func TestGenerateVolumeMipMaps(t *testing.T) {
	d := newDispatcher(t)
	img := newVolume(t, 8, 8, 4, 1)

	// bicubic is not defined for volume chains; it degrades to box
	// instead of failing
	_, err := d.Process(img, tex.GenerateMipMaps{Filter: tex.FilterBicubic})
	require.NoError(t, err)
	assert.Equal(t, 4, img.MipLevels)
	assert.Equal(t, 4, img.Depth)
	// depth halves per level: 4, 2, 1, 1 slices
	require.Len(t, img.Subimages, 4+2+1+1)
	assert.Equal(t, 8, img.Subimages[0].Width)
	assert.Equal(t, 4, img.Subimages[4].Width)
	assert.Equal(t, 2, img.Subimages[6].Width)
	assert.Equal(t, 1, img.Subimages[7].Width)
	assert.Equal(t, 1, img.Subimages[7].Height)
}

func TestMipFilterFollowsResampler(t *testing.T) {
	// nfnt has no box kernel, so the capability must not be claimed
	b := dxtex.New()
	b.Resampler = &nfnt.Resampler{}
	rgba := newRGBA2D(t, 8, 8, 0, 0, 0, 0xff)

	assert.False(t, b.CanHandle(rgba, tex.GenerateMipMaps{Filter: tex.FilterBox}))
	assert.True(t, b.CanHandle(rgba, tex.GenerateMipMaps{Filter: tex.FilterBilinear}))

	// a volume request is judged by the filter the chain will run with
	vol := newVolume(t, 8, 8, 4, 1)
	assert.False(t, vol.Empty())
	assert.False(t, b.CanHandle(vol, tex.GenerateMipMaps{Filter: tex.FilterBicubic}))

	d, err := tex.NewDispatcher(tex.SetBackends(b))
	require.NoError(t, err)
	_, err = d.Process(rgba, tex.GenerateMipMaps{Filter: tex.FilterBox})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tex.ErrUnsupportedRequest))
}

func TestLoadMissingFile(t *testing.T) {
	d := newDispatcher(t)
	img := &tex.Image{}
	_, err := d.Process(img, tex.Load{Path: filepath.Join(t.TempDir(), `missing.dds`)})
	require.Error(t, err)
	var ioe *tex.IOError
	assert.True(t, errors.As(err, &ioe))
	assert.True(t, img.Empty())
}

func TestCanHandle(t *testing.T) {
	b := dxtex.New()
	rgba := newRGBA2D(t, 8, 8, 0, 0, 0, 0xff)
	bc := &tex.Image{}
	_, total := tex.SubimageLayout(tex.Tex2D, tex.FormatBC1UNorm, 8, 8, 1, 1, 1)
	require.NoError(t, bc.Update(tex.Tex2D, tex.FormatBC1UNorm, 8, 8, 1, 1, 1, make([]byte, total)))
	r8 := &tex.Image{}
	_, total = tex.SubimageLayout(tex.Tex2D, tex.FormatR8UNorm, 8, 8, 1, 1, 1)
	require.NoError(t, r8.Update(tex.Tex2D, tex.FormatR8UNorm, 8, 8, 1, 1, 1, make([]byte, total)))

	assert.True(t, b.CanHandle(rgba, tex.Load{Path: `a.DDS`}))
	assert.False(t, b.CanHandle(rgba, tex.Load{Path: `a.png`}))
	assert.True(t, b.CanHandle(bc, tex.Decompress{}))
	assert.False(t, b.CanHandle(rgba, tex.Decompress{}))
	assert.False(t, b.CanHandle(bc, tex.Compress{TargetFormat: tex.FormatBC3UNorm}))
	assert.False(t, b.CanHandle(bc, tex.Rescale{Width: 4, Height: 4, Filter: tex.FilterBilinear}))
	assert.False(t, b.CanHandle(rgba, tex.Rescale{Width: 0, Height: 4, Filter: tex.FilterBilinear}))
	assert.True(t, b.CanHandle(rgba, tex.GenerateMipMaps{Filter: tex.FilterBox}))
	assert.False(t, b.CanHandle(r8, tex.GenerateMipMaps{Filter: tex.FilterBox}))
	assert.True(t, b.SupportsChannelOrder(tex.OrderBGRA))
}
