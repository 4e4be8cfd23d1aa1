package bild

import (
	"image"

	"github.com/anthonynsimon/bild/transform"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Resampler uses "github.com/anthonynsimon/bild/transform"
type Resampler struct{}

var _ tex.Resampler = (*Resampler)(nil)

func filterOf(f tex.Filter) (transform.ResampleFilter, bool) {
	switch f {
	case tex.FilterNearest:
		return transform.NearestNeighbor, true
	case tex.FilterBox:
		return transform.Box, true
	case tex.FilterBilinear:
		return transform.Linear, true
	case tex.FilterBicubic:
		return transform.CatmullRom, true
	}
	return transform.ResampleFilter{}, false
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
	return transform.Resize(img, width, height, flt), nil
}
