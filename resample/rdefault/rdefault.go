// Package rdefault picks a sensible default resampler: rez SIMD assembly
// where available and the filter allows it, gift for box filtering, xdraw
// otherwise.
package rdefault

import (
	"image"
	"runtime"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/resample/bild"
	"github.com/texproc/texproc/resample/gift"
	"github.com/texproc/texproc/resample/imaging"
	"github.com/texproc/texproc/resample/nfnt"
	"github.com/texproc/texproc/resample/rez"
	"github.com/texproc/texproc/resample/xdraw"
	"github.com/texproc/texproc/tex"
)

type Resampler struct{}

var _ tex.Resampler = (*Resampler)(nil)

// SupportsFilter ...
func (r *Resampler) SupportsFilter(f tex.Filter) bool { return f.Valid() }

// Resample ...
func (r *Resampler) Resample(img image.Image, width, height int, filter tex.Filter) (image.Image, error) {
	if filter == tex.FilterBox {
		return (&gift.Resampler{}).Resample(img, width, height, filter)
	}
	if runtime.GOARCH == `amd64` {
		rz := &rez.Resampler{}
		if rz.SupportsFilter(filter) {
			m, err := rz.Resample(img, width, height, filter)
			if err == nil {
				return m, nil
			}
			// odd sizes can trip rez chroma subsampling, fall through
		}
	}
	return (&xdraw.Resampler{}).Resample(img, width, height, filter)
}

// ByName returns the resampler implementation with the given name, empty
// or "default" selecting the automatic pick.
func ByName(name string) (tex.Resampler, error) {
	switch name {
	case ``, `default`:
		return &Resampler{}, nil
	case `gift`:
		return &gift.Resampler{}, nil
	case `imaging`:
		return &imaging.Resampler{}, nil
	case `bild`:
		return &bild.Resampler{}, nil
	case `nfnt`:
		return &nfnt.Resampler{}, nil
	case `rez`:
		return &rez.Resampler{}, nil
	case `xdraw`:
		return &xdraw.Resampler{}, nil
	}
	return nil, errors.Errorf(`unknown resampler %q`, name)
}
