package gift

import (
	"image"

	"github.com/disintegration/gift"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Resampler uses "github.com/disintegration/gift"
type Resampler struct{}

var _ tex.Resampler = (*Resampler)(nil)

func resampling(f tex.Filter) (gift.Resampling, bool) {
	switch f {
	case tex.FilterNearest:
		return gift.NearestNeighborResampling, true
	case tex.FilterBox:
		return gift.BoxResampling, true
	case tex.FilterBilinear:
		return gift.LinearResampling, true
	case tex.FilterBicubic:
		return gift.CubicResampling, true
	}
	return nil, false
}

// SupportsFilter ...
func (r *Resampler) SupportsFilter(f tex.Filter) bool {
	_, ok := resampling(f)
	return ok
}

// Resample ...
func (r *Resampler) Resample(img image.Image, width, height int, filter tex.Filter) (image.Image, error) {
	rs, ok := resampling(filter)
	if !ok {
		return nil, errors.Errorf(`unsupported filter %s`, filter)
	}
	m := image.NewNRGBA(image.Rectangle{Max: image.Point{X: width, Y: height}})
	gift.Resize(width, height, rs).Draw(m, img, &gift.Options{Parallelization: true})
	return m, nil
}
