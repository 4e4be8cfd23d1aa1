package rez

import (
	"image"

	"github.com/bamiaux/rez"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Resampler uses "github.com/bamiaux/rez" (SIMD assembly on amd64).
// rez only ships separable bilinear/bicubic/lanczos kernels.
type Resampler struct{}

var _ tex.Resampler = (*Resampler)(nil)

func filterOf(f tex.Filter) (rez.Filter, bool) {
	switch f {
	case tex.FilterBilinear:
		return rez.NewBilinearFilter(), true
	case tex.FilterBicubic:
		return rez.NewBicubicFilter(), true
	}
	return nil, false
}

// SupportsFilter ...
func (r *Resampler) SupportsFilter(f tex.Filter) bool {
	_, ok := filterOf(f)
	return ok
}

// Resample ...
func (r *Resampler) Resample(img image.Image, width, height int, filter tex.Filter) (image.Image, error) {
	flt, ok := filterOf(filter)
	if !ok {
		return nil, errors.Errorf(`unsupported filter %s`, filter)
	}
	src := img
	if _, ok := src.(*image.NRGBA); !ok {
		// rez needs matching planar input/output types
		b := img.Bounds()
		m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				m.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
			}
		}
		src = m
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if err := rez.Convert(dst, src, flt); err != nil {
		return nil, errors.New(err)
	}
	return dst, nil
}
