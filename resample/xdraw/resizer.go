// Package xdraw provides a resampler implementation using
// golang.org/x/image/draw. The library ships no box/area kernel, so
// FilterBox is unsupported.
package xdraw

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Resampler uses "golang.org/x/image/draw"
type Resampler struct{}

var _ tex.Resampler = (*Resampler)(nil)

func scaler(f tex.Filter) (draw.Scaler, bool) {
	switch f {
	case tex.FilterNearest:
		return draw.NearestNeighbor, true
	case tex.FilterBilinear:
		return draw.BiLinear, true
	case tex.FilterBicubic:
		return draw.CatmullRom, true
	}
	return nil, false
}

// SupportsFilter ...
func (r *Resampler) SupportsFilter(f tex.Filter) bool {
	_, ok := scaler(f)
	return ok
}

// Resample scales an image to the target size with the requested kernel.
func (r *Resampler) Resample(img image.Image, width, height int, filter tex.Filter) (image.Image, error) {
	sc, ok := scaler(filter)
	if !ok {
		return nil, errors.Errorf(`unsupported filter %s`, filter)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	sc.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}
