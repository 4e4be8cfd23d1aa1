// Package soft is a pure software backend for uncompressed RGBA8 images.
// Its native representation is a set of decoded image.NRGBA planes; it
// covers the raster operations but no container or block codec work, so
// it is registered ahead of dxtex as the narrower backend.
package soft

import (
	"image"
	"log/slog"

	"github.com/texproc/texproc/internal/consts"
	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/internal/logx"
	"github.com/texproc/texproc/internal/pixops"
	"github.com/texproc/texproc/resample/gift"
	"github.com/texproc/texproc/tex"
)

func init() { tex.RegisterBackend(New()) }

var _ tex.Backend = (*Backend)(nil)
var _ logx.LoggerProvider = (*Backend)(nil)

// Backend ...
type Backend struct {
	// Resampler defaults to the gift wrapper, which covers all four
	// filter kinds.
	Resampler tex.Resampler

	// Log enables backend logging; nil is silent.
	Log *slog.Logger
}

// New ...
func New() *Backend {
	return &Backend{Resampler: &gift.Resampler{}}
}

func (b *Backend) Name() string         { return consts.BackendSoftName }
func (b *Backend) Logger() *slog.Logger { return b.Log }

// SupportsChannelOrder accepts plain RGBA only; BGRA images go to a
// backend with a converting codec.
func (b *Backend) SupportsChannelOrder(o tex.ChannelOrder) bool { return o == tex.OrderRGBA }

// state holds the decoded planes, one per subimage in canonical order.
type state struct {
	meta     meta
	planes   []*image.NRGBA
	released bool
}

type meta struct {
	width, height        int
	arraySize, mipLevels int
	dimension            tex.Dimension
}

func (s *state) Owner() string { return consts.BackendSoftName }

func (s *state) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	s.planes = nil
}

// CanHandle ...
func (b *Backend) CanHandle(img *tex.Image, req tex.Request) bool {
	if b == nil || img == nil || req == nil {
		return false
	}
	if img.Format != tex.FormatR8G8B8A8UNorm || img.Dimension == tex.Tex3D {
		return false
	}
	switch r := req.(type) {
	case tex.Rescale:
		w, h := r.TargetSize(img.Width, img.Height)
		return r.Filter.Valid() && b.Resampler != nil && b.Resampler.SupportsFilter(r.Filter) &&
			w > 0 && h > 0
	case tex.GenerateMipMaps:
		return r.Filter.Valid() && b.Resampler != nil && b.Resampler.SupportsFilter(r.Filter)
	case tex.GenerateNormalMap:
		return true
	case tex.PremultiplyAlpha:
		return true
	}
	return false
}

// Activate decodes the image's subimages into NRGBA planes. A live prior
// state of this backend still backing the image's view is returned as-is.
func (b *Backend) Activate(img *tex.Image, prior tex.BackendState) (tex.BackendState, error) {
	if b == nil {
		return nil, errors.NilReceiver()
	}
	if img == nil {
		return nil, errors.New(consts.ErrNilImage)
	}
	if st, ok := prior.(*state); ok && st != nil && !st.released && st.backs(img) {
		return st, nil
	}
	if img.Empty() {
		return nil, errors.New(consts.ErrEmptyImage)
	}
	st := &state{meta: meta{
		width: img.Width, height: img.Height,
		arraySize: img.ArraySize, mipLevels: img.MipLevels,
		dimension: img.Dimension,
	}}
	for i := range img.Subimages {
		sub := &img.Subimages[i]
		plane := make([]byte, sub.Width*sub.Height*4)
		for y := 0; y < sub.Height; y++ {
			copy(plane[y*sub.Width*4:(y+1)*sub.Width*4], sub.Data[y*sub.RowPitch:])
		}
		st.planes = append(st.planes, &image.NRGBA{
			Pix: plane, Stride: sub.Width * 4,
			Rect: image.Rect(0, 0, sub.Width, sub.Height),
		})
	}
	return st, nil
}

// backs reports whether the state's planes are what the image's view was
// last refreshed from.
func (s *state) backs(img *tex.Image) bool {
	if len(s.planes) == 0 || len(img.Subimages) != len(s.planes) {
		return false
	}
	view := img.View()
	return len(view) > 0 && len(s.planes[0].Pix) > 0 && &view[0] == &s.planes[0].Pix[0]
}

// Deactivate ...
func (b *Backend) Deactivate(st tex.BackendState) error {
	s, ok := st.(*state)
	if !ok || s == nil {
		return nil
	}
	s.Release()
	return nil
}

// refresh packs the planes into one contiguous buffer and updates the
// image model. The buffer is arranged so that the first plane's pixels
// start the view, keeping backs() cheap.
func (s *state) refresh(img *tex.Image) error {
	total := 0
	for _, p := range s.planes {
		total += len(p.Pix)
	}
	buf := make([]byte, 0, total)
	for _, p := range s.planes {
		buf = append(buf, p.Pix...)
	}
	if len(s.planes) > 0 {
		// alias the first plane into the buffer for identity tracking
		s.planes[0].Pix = buf[:len(s.planes[0].Pix):len(s.planes[0].Pix)]
	}
	return img.Update(s.meta.dimension, tex.FormatR8G8B8A8UNorm,
		s.meta.width, s.meta.height, 1, s.meta.arraySize, s.meta.mipLevels, buf)
}

// Execute ...
func (b *Backend) Execute(img *tex.Image, req tex.Request, st tex.BackendState) (tex.BackendState, *tex.Image, error) {
	if b == nil {
		return st, nil, errors.NilReceiver()
	}
	s, ok := st.(*state)
	if !ok || s == nil || s.released {
		return st, nil, errors.Errorf(`state does not belong to backend %s`, b.Name())
	}
	switch r := req.(type) {
	case tex.Rescale:
		return b.rescale(img, r, s)
	case tex.GenerateMipMaps:
		return b.generateMipMaps(img, r, s)
	case tex.GenerateNormalMap:
		return b.generateNormalMap(img, r, s)
	case tex.PremultiplyAlpha:
		return b.premultiply(img, s)
	}
	return s, nil, errors.Errorf(`unhandled request kind %s`, req.Kind())
}

func (b *Backend) rescale(img *tex.Image, r tex.Rescale, s *state) (tex.BackendState, *tex.Image, error) {
	width, height := r.TargetSize(s.meta.width, s.meta.height)
	planes := make([]*image.NRGBA, s.meta.arraySize)
	for layer := 0; layer < s.meta.arraySize; layer++ {
		top := s.planes[layer*s.meta.mipLevels]
		m, err := b.Resampler.Resample(top, width, height, r.Filter)
		if err != nil {
			return s, nil, errors.New(&tex.CodecError{Op: `resize`, Err: err})
		}
		planes[layer] = asNRGBA(m)
	}
	s.planes = planes
	s.meta.width, s.meta.height = width, height
	s.meta.mipLevels = 1
	if err := s.refresh(img); err != nil {
		return s, nil, err
	}
	logx.Debug(`rescaled`, b, `width`, width, `height`, height, `filter`, r.Filter.String())
	return s, nil, nil
}

func (b *Backend) generateMipMaps(img *tex.Image, r tex.GenerateMipMaps, s *state) (tex.BackendState, *tex.Image, error) {
	levels := tex.FullMipCount(s.meta.width, s.meta.height)
	planes := make([]*image.NRGBA, 0, s.meta.arraySize*levels)
	for layer := 0; layer < s.meta.arraySize; layer++ {
		top := s.planes[layer*s.meta.mipLevels]
		planes = append(planes, top)
		for m := 1; m < levels; m++ {
			w := tex.MipDimension(s.meta.width, m)
			h := tex.MipDimension(s.meta.height, m)
			mm, err := b.Resampler.Resample(top, w, h, r.Filter)
			if err != nil {
				return s, nil, errors.New(&tex.CodecError{Op: `mipmap`, Err: err})
			}
			planes = append(planes, asNRGBA(mm))
		}
	}
	s.planes = planes
	s.meta.mipLevels = levels
	if err := s.refresh(img); err != nil {
		return s, nil, err
	}
	return s, nil, nil
}

func (b *Backend) generateNormalMap(img *tex.Image, r tex.GenerateNormalMap, s *state) (tex.BackendState, *tex.Image, error) {
	subs, total := tex.SubimageLayout(s.meta.dimension, tex.FormatR8G8B8A8UNorm,
		s.meta.width, s.meta.height, 1, s.meta.arraySize, s.meta.mipLevels)
	buf := make([]byte, 0, total)
	for i, p := range s.planes {
		w, h := subs[i].Width, subs[i].Height
		buf = append(buf, pixops.NormalMapFromRed(p.Pix, w, h, p.Stride, r.Amplitude)...)
	}
	derived := &tex.Image{}
	if err := derived.Update(s.meta.dimension, tex.FormatR8G8B8A8UNorm,
		s.meta.width, s.meta.height, 1, s.meta.arraySize, s.meta.mipLevels, buf); err != nil {
		return s, nil, errors.New(err)
	}
	return s, derived, nil
}

func (b *Backend) premultiply(img *tex.Image, s *state) (tex.BackendState, *tex.Image, error) {
	for _, p := range s.planes {
		pixops.Premultiply(p.Pix)
	}
	if err := s.refresh(img); err != nil {
		return s, nil, err
	}
	return s, nil, nil
}

func asNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok && m.Rect.Min == (image.Point{}) && m.Stride == m.Rect.Dx()*4 {
		return m
	}
	b := img.Bounds()
	m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			m.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return m
}
