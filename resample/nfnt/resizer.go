package nfnt

import (
	"image"

	"github.com/nfnt/resize"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Resampler uses "github.com/nfnt/resize".
// The library has no box/area kernel, so FilterBox is unsupported.
type Resampler struct{}

var _ tex.Resampler = (*Resampler)(nil)

func interpolation(f tex.Filter) (resize.InterpolationFunction, bool) {
	switch f {
	case tex.FilterNearest:
		return resize.NearestNeighbor, true
	case tex.FilterBilinear:
		return resize.Bilinear, true
	case tex.FilterBicubic:
		return resize.Bicubic, true
	}
	return resize.NearestNeighbor, false
}

// SupportsFilter ...
func (r *Resampler) SupportsFilter(f tex.Filter) bool {
	_, ok := interpolation(f)
	return ok
}

// Resample ...
func (r *Resampler) Resample(img image.Image, width, height int, filter tex.Filter) (image.Image, error) {
	interp, ok := interpolation(filter)
	if !ok {
		return nil, errors.Errorf(`unsupported filter %s`, filter)
	}
	return resize.Resize(uint(width), uint(height), img, interp), nil
}
