package tex

import (
	"image"
)

// Resampler resizes raster data with one of the abstract filter kinds.
// Implementations wrap third-party resampling libraries; not every library
// implements every kernel, so SupportsFilter is part of the capability
// surface backends report through CanHandle.
type Resampler interface {
	Resample(img image.Image, width, height int, filter Filter) (image.Image, error)
	SupportsFilter(f Filter) bool
}
