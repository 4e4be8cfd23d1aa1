package imaging

import (
	"image"

	"github.com/kovidgoyal/imaging"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Resampler uses "github.com/kovidgoyal/imaging"
type Resampler struct{}

var _ tex.Resampler = (*Resampler)(nil)

func filterOf(f tex.Filter) (imaging.ResampleFilter, bool) {
	switch f {
	case tex.FilterNearest:
		return imaging.NearestNeighbor, true
	case tex.FilterBox:
		return imaging.Box, true
	case tex.FilterBilinear:
		return imaging.Linear, true
	case tex.FilterBicubic:
		return imaging.CatmullRom, true
	}
	return imaging.ResampleFilter{}, false
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
	return imaging.Resize(img, width, height, flt), nil
}
