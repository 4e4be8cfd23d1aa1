// Package dxtex is the reference backend. Its native representation is a
// DDS-layout scratch buffer, its codec the BCn block compressor; it
// covers the full operation surface including container load/export.
package dxtex

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/texproc/texproc/internal/bcn"
	"github.com/texproc/texproc/internal/consts"
	"github.com/texproc/texproc/internal/dds"
	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/internal/logx"
	"github.com/texproc/texproc/internal/pixops"
	"github.com/texproc/texproc/resample/rdefault"
	"github.com/texproc/texproc/tex"
)

func init() { tex.RegisterBackend(New()) }

var _ tex.Backend = (*Backend)(nil)
var _ logx.LoggerProvider = (*Backend)(nil)

// Backend processes textures through the DDS/BCn codec layer.
type Backend struct {
	// Resampler performs the raster resizing for Rescale and
	// GenerateMipMaps. Defaults to resample/rdefault.
	Resampler tex.Resampler

	// Log enables backend logging; nil is silent.
	Log *slog.Logger
}

// New returns a backend with the default resampler.
func New() *Backend {
	return &Backend{Resampler: &rdefault.Resampler{}}
}

func (b *Backend) Name() string         { return consts.BackendDXTexName }
func (b *Backend) Logger() *slog.Logger { return b.Log }

// SupportsChannelOrder accepts every order; the codec layer converts
// between RGBA and BGRA itself.
func (b *Backend) SupportsChannelOrder(tex.ChannelOrder) bool { return true }

// state is the backend's native state: the scratch buffer backing the
// image's subimage views while this backend owns the image.
type state struct {
	scratch *dds.Scratch
}

func (s *state) Owner() string { return consts.BackendDXTexName }

func (s *state) Release() {
	if s == nil {
		return
	}
	s.scratch.Free()
}

// formats this backend's codec paths understand
func supportedFormat(f tex.PixelFormat) bool {
	if !f.Valid() {
		return false
	}
	switch f {
	case tex.FormatR8G8B8A8UNorm, tex.FormatB8G8R8A8UNorm,
		tex.FormatR8UNorm, tex.FormatA8UNorm,
		tex.FormatBC1UNorm, tex.FormatBC2UNorm, tex.FormatBC3UNorm:
		return true
	}
	return false
}

func uncompressed4(f tex.PixelFormat) bool {
	return f == tex.FormatR8G8B8A8UNorm || f == tex.FormatB8G8R8A8UNorm
}

func containerPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case consts.ExtDDS, consts.ExtEDDS:
		return true
	}
	return false
}

// CanHandle ...
func (b *Backend) CanHandle(img *tex.Image, req tex.Request) bool {
	if b == nil || img == nil || req == nil {
		return false
	}
	switch r := req.(type) {
	case tex.Load:
		return containerPath(r.Path)
	case tex.Export:
		return containerPath(r.Path) && r.MinimumMipSize >= 0 && supportedFormat(img.Format)
	case tex.Compress:
		return supportedFormat(img.Format) && !img.Format.IsBlockCompressed() &&
			supportedFormat(r.TargetFormat)
	case tex.Decompress:
		return img.Format.IsBlockCompressed() && supportedFormat(img.Format)
	case tex.Rescale:
		w, h := r.TargetSize(img.Width, img.Height)
		return supportedFormat(img.Format) && !img.Format.IsBlockCompressed() &&
			r.Filter.Valid() && b.Resampler != nil && b.Resampler.SupportsFilter(r.Filter) &&
			w > 0 && h > 0
	case tex.GenerateMipMaps:
		if !uncompressed4(img.Format) || !r.Filter.Valid() || b.Resampler == nil {
			return false
		}
		filter := r.Filter
		if img.Dimension == tex.Tex3D && filter != tex.FilterBox && filter != tex.FilterNearest {
			filter = tex.FilterBox // volume chains degrade to box
		}
		return b.Resampler.SupportsFilter(filter)
	case tex.GenerateNormalMap:
		return uncompressed4(img.Format)
	case tex.PremultiplyAlpha:
		return uncompressed4(img.Format)
	}
	return false
}

// Activate imports the image's current buffers into a fresh scratch. When
// prior is this backend's live state still backing the image's view the
// call is a no-op.
func (b *Backend) Activate(img *tex.Image, prior tex.BackendState) (tex.BackendState, error) {
	if b == nil {
		return nil, errors.NilReceiver()
	}
	if img == nil {
		return nil, errors.New(consts.ErrNilImage)
	}
	if st, ok := prior.(*state); ok && st != nil {
		if st.scratch != nil && !st.scratch.Released() && sameBuffer(st.scratch.Data(), img.View()) {
			return st, nil
		}
		if st.scratch == nil && img.Empty() {
			return st, nil
		}
	}
	if img.Empty() {
		// nothing to import; Load fills the scratch
		return &state{}, nil
	}
	scratch, err := dds.ScratchFromData(dds.MetadataOf(img), img.View())
	if err != nil {
		return nil, errors.New(err)
	}
	return &state{scratch: scratch}, nil
}

func sameBuffer(a, b []byte) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}

// Deactivate releases the scratch. Nil or foreign state is a no-op.
func (b *Backend) Deactivate(st tex.BackendState) error {
	s, ok := st.(*state)
	if !ok || s == nil {
		return nil
	}
	s.Release()
	return nil
}

// Execute ...
func (b *Backend) Execute(img *tex.Image, req tex.Request, st tex.BackendState) (tex.BackendState, *tex.Image, error) {
	if b == nil {
		return st, nil, errors.NilReceiver()
	}
	s, ok := st.(*state)
	if !ok || s == nil {
		return st, nil, errors.Errorf(`state does not belong to backend %s`, b.Name())
	}
	switch r := req.(type) {
	case tex.Load:
		return b.load(img, r, s)
	case tex.Export:
		return b.export(img, r, s)
	case tex.Compress:
		return b.compress(img, r, s)
	case tex.Decompress:
		return b.decompress(img, s)
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

// refresh updates the image model from the scratch. Only called after the
// native operation succeeded; on success the scratch replaces the old one
// as the state's native buffer.
func (s *state) refresh(img *tex.Image, scratch *dds.Scratch) error {
	meta := scratch.Meta()
	if err := img.Update(meta.Dimension, meta.Format,
		meta.Width, meta.Height, meta.Depth, meta.ArraySize, meta.MipLevels,
		scratch.Data()); err != nil {
		return errors.New(err)
	}
	if s.scratch != scratch {
		s.scratch.Free()
		s.scratch = scratch
	}
	return nil
}

func (b *Backend) load(img *tex.Image, r tex.Load, s *state) (tex.BackendState, *tex.Image, error) {
	scratch, err := dds.Read(r.Path)
	if err != nil {
		if isFileError(err) {
			return s, nil, errors.New(&tex.IOError{Path: r.Path, Err: err})
		}
		return s, nil, errors.New(&tex.CodecError{Op: `load`, Err: err})
	}
	if err := s.refresh(img, scratch); err != nil {
		scratch.Free()
		return s, nil, err
	}
	logx.Debug(`container loaded`, b, `path`, r.Path,
		`format`, img.Format.String(), `width`, img.Width, `height`, img.Height,
		`mips`, img.MipLevels, `layers`, img.ArraySize)
	return s, nil, nil
}

func (b *Backend) export(img *tex.Image, r tex.Export, s *state) (tex.BackendState, *tex.Image, error) {
	if s.scratch.Released() {
		return s, nil, errors.New(consts.ErrReleasedState)
	}
	out := s.scratch
	if levels := retainedMips(out.Meta(), r.MinimumMipSize); levels < out.Meta().MipLevels {
		trimmed, err := trimMips(out, levels)
		if err != nil {
			return s, nil, errors.New(&tex.CodecError{Op: `mip-trim`, Err: err})
		}
		defer trimmed.Free()
		out = trimmed
	}
	if err := dds.Write(r.Path, out); err != nil {
		if isFileError(err) {
			return s, nil, errors.New(&tex.IOError{Path: r.Path, Err: err})
		}
		return s, nil, errors.New(&tex.CodecError{Op: `save`, Err: err})
	}
	logx.Info(`container written`, b, `path`, r.Path,
		`format`, out.Meta().Format.String(), `mips`, out.Meta().MipLevels)
	return s, nil, nil
}

func (b *Backend) compress(img *tex.Image, r tex.Compress, s *state) (tex.BackendState, *tex.Image, error) {
	meta := s.scratch.Meta()
	if r.TargetFormat.IsBlockCompressed() {
		if meta.Width%4 != 0 || meta.Height%4 != 0 {
			return s, nil, errors.New(&tex.InvalidResolutionError{
				Width: meta.Width, Height: meta.Height, Target: r.TargetFormat,
			})
		}
		return b.compressBlocks(img, r.TargetFormat, s)
	}
	return b.convert(img, r.TargetFormat, s)
}

func (b *Backend) compressBlocks(img *tex.Image, target tex.PixelFormat, s *state) (tex.BackendState, *tex.Image, error) {
	var bf bcn.Format
	switch target {
	case tex.FormatBC1UNorm:
		bf = bcn.BC1
	case tex.FormatBC2UNorm:
		bf = bcn.BC2
	case tex.FormatBC3UNorm:
		bf = bcn.BC3
	default:
		return s, nil, errors.New(&tex.CodecError{Op: `compress`,
			Err: errors.Errorf(`no codec for %s`, target)})
	}
	meta := s.scratch.Meta()
	outMeta := meta
	outMeta.Format = target
	out, err := dds.NewScratch(outMeta)
	if err != nil {
		return s, nil, errors.New(&tex.CodecError{Op: `compress`, Err: err})
	}
	src := s.scratch.Subimages()
	dst := out.Subimages()
	for i := range src {
		rgba, err := planeToRGBA(meta.Format, &src[i])
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `compress`, Err: err})
		}
		blocks, err := bcn.Encode(bf, rgba, src[i].Width, src[i].Height, src[i].Width*4)
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `compress`, Err: err})
		}
		copy(dst[i].Data, blocks)
	}
	if err := s.refresh(img, out); err != nil {
		out.Free()
		return s, nil, err
	}
	return s, nil, nil
}

func (b *Backend) convert(img *tex.Image, target tex.PixelFormat, s *state) (tex.BackendState, *tex.Image, error) {
	meta := s.scratch.Meta()
	if target == meta.Format {
		return s, nil, nil
	}
	outMeta := meta
	outMeta.Format = target
	out, err := dds.NewScratch(outMeta)
	if err != nil {
		return s, nil, errors.New(&tex.CodecError{Op: `convert`, Err: err})
	}
	src := s.scratch.Subimages()
	dst := out.Subimages()
	for i := range src {
		rgba, err := planeToRGBA(meta.Format, &src[i])
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `convert`, Err: err})
		}
		if err := rgbaToPlane(target, rgba, &dst[i]); err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `convert`, Err: err})
		}
	}
	if err := s.refresh(img, out); err != nil {
		out.Free()
		return s, nil, err
	}
	return s, nil, nil
}

func (b *Backend) decompress(img *tex.Image, s *state) (tex.BackendState, *tex.Image, error) {
	meta := s.scratch.Meta()
	var bf bcn.Format
	switch meta.Format {
	case tex.FormatBC1UNorm:
		bf = bcn.BC1
	case tex.FormatBC2UNorm:
		bf = bcn.BC2
	case tex.FormatBC3UNorm:
		bf = bcn.BC3
	default:
		return s, nil, errors.New(&tex.CodecError{Op: `decompress`,
			Err: errors.Errorf(`no codec for %s`, meta.Format)})
	}
	outMeta := meta
	outMeta.Format = tex.FormatR8G8B8A8UNorm
	out, err := dds.NewScratch(outMeta)
	if err != nil {
		return s, nil, errors.New(&tex.CodecError{Op: `decompress`, Err: err})
	}
	src := s.scratch.Subimages()
	dst := out.Subimages()
	for i := range src {
		rgba, err := bcn.Decode(bf, src[i].Data, src[i].Width, src[i].Height)
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `decompress`, Err: err})
		}
		copy(dst[i].Data, rgba)
	}
	if err := s.refresh(img, out); err != nil {
		out.Free()
		return s, nil, err
	}
	return s, nil, nil
}

func (b *Backend) rescale(img *tex.Image, r tex.Rescale, s *state) (tex.BackendState, *tex.Image, error) {
	meta := s.scratch.Meta()
	width, height := r.TargetSize(meta.Width, meta.Height)
	outMeta := meta
	outMeta.Width, outMeta.Height = width, height
	outMeta.MipLevels = 1 // resizing invalidates the chain
	out, err := dds.NewScratch(outMeta)
	if err != nil {
		return s, nil, errors.New(&tex.CodecError{Op: `resize`, Err: err})
	}
	layers := meta.ArraySize
	if meta.Dimension == tex.Tex3D {
		layers = meta.Depth
	}
	for layer := 0; layer < layers; layer++ {
		src, err := s.scratch.Subimage(0, layer)
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `resize`, Err: err})
		}
		resized, err := b.resamplePlane(meta.Format, src, width, height, r.Filter)
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `resize`, Err: err})
		}
		dst, err := out.Subimage(0, layer)
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `resize`, Err: err})
		}
		if err := rgbaToPlane(meta.Format, resized, dst); err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `resize`, Err: err})
		}
	}
	if err := s.refresh(img, out); err != nil {
		out.Free()
		return s, nil, err
	}
	return s, nil, nil
}

// resamplePlane converts a subimage to RGBA, resizes it through the
// configured resampler and returns the tightly packed result.
func (b *Backend) resamplePlane(f tex.PixelFormat, sub *tex.Subimage, width, height int, filter tex.Filter) ([]byte, error) {
	rgba, err := planeToRGBA(f, sub)
	if err != nil {
		return nil, err
	}
	m := pixops.ToNRGBA(rgba, sub.Width, sub.Height, sub.Width*4)
	resized, err := b.Resampler.Resample(m, width, height, filter)
	if err != nil {
		return nil, err
	}
	return pixops.FromImage(resized), nil
}

func (b *Backend) generateMipMaps(img *tex.Image, r tex.GenerateMipMaps, s *state) (tex.BackendState, *tex.Image, error) {
	meta := s.scratch.Meta()
	filter := r.Filter
	if meta.Dimension == tex.Tex3D && filter != tex.FilterBox && filter != tex.FilterNearest {
		// volume chains only defined for box and point filtering
		logx.Warn(`unsupported volume mipmap filter, falling back to box`, b,
			`requested`, filter.String())
		filter = tex.FilterBox
	}
	outMeta := meta
	outMeta.MipLevels = tex.FullMipCount(meta.Width, meta.Height)
	out, err := dds.NewScratch(outMeta)
	if err != nil {
		return s, nil, errors.New(&tex.CodecError{Op: `mipmap`, Err: err})
	}
	if meta.Dimension == tex.Tex3D {
		err = b.mipChain3D(s.scratch, out, filter)
	} else {
		err = b.mipChain2D(s.scratch, out, filter)
	}
	if err != nil {
		out.Free()
		return s, nil, errors.New(&tex.CodecError{Op: `mipmap`, Err: err})
	}
	if err := s.refresh(img, out); err != nil {
		out.Free()
		return s, nil, err
	}
	return s, nil, nil
}

func (b *Backend) mipChain2D(src, out *dds.Scratch, filter tex.Filter) error {
	meta := out.Meta()
	for layer := 0; layer < meta.ArraySize; layer++ {
		top, err := src.Subimage(0, layer)
		if err != nil {
			return err
		}
		for m := 0; m < meta.MipLevels; m++ {
			dst, err := out.Subimage(m, layer)
			if err != nil {
				return err
			}
			if m == 0 {
				copy(dst.Data, top.Data)
				continue
			}
			plane, err := b.resamplePlane(meta.Format, top, dst.Width, dst.Height, filter)
			if err != nil {
				return err
			}
			if err := rgbaToPlane(meta.Format, plane, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// mipChain3D builds a volume chain: each level resamples the previous
// level's slices in-plane, then collapses the depth dimension by
// averaging slice pairs (box) or keeping every other slice (nearest).
func (b *Backend) mipChain3D(src, out *dds.Scratch, filter tex.Filter) error {
	meta := out.Meta()
	// current level's tightly packed RGBA slices
	cur := make([][]byte, meta.Depth)
	for sl := 0; sl < meta.Depth; sl++ {
		sub, err := src.Subimage(0, sl)
		if err != nil {
			return err
		}
		rgba, err := planeToRGBA(meta.Format, sub)
		if err != nil {
			return err
		}
		cur[sl] = rgba
	}
	w, h := meta.Width, meta.Height
	for m := 0; m < meta.MipLevels; m++ {
		if m > 0 {
			nw, nh := tex.MipDimension(meta.Width, m), tex.MipDimension(meta.Height, m)
			// in-plane resample
			resized := make([][]byte, len(cur))
			for i, plane := range cur {
				pm := pixops.ToNRGBA(plane, w, h, w*4)
				rm, err := b.Resampler.Resample(pm, nw, nh, filter)
				if err != nil {
					return err
				}
				resized[i] = pixops.FromImage(rm)
			}
			w, h = nw, nh
			// depth collapse
			nd := len(resized) / 2
			if nd < 1 {
				nd = 1
			}
			next := make([][]byte, nd)
			for i := 0; i < nd; i++ {
				if filter == tex.FilterBox && 2*i+1 < len(resized) {
					next[i] = pixops.AverageSlices(resized[2*i], resized[2*i+1])
				} else {
					next[i] = resized[2*i]
				}
			}
			cur = next
		}
		for sl := 0; sl < len(cur); sl++ {
			dst, err := out.Subimage(m, sl)
			if err != nil {
				return err
			}
			if err := rgbaToPlane(meta.Format, cur[sl], dst); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Backend) generateNormalMap(img *tex.Image, r tex.GenerateNormalMap, s *state) (tex.BackendState, *tex.Image, error) {
	meta := s.scratch.Meta()
	outMeta := meta
	outMeta.Format = tex.FormatR8G8B8A8UNorm
	out, err := dds.NewScratch(outMeta)
	if err != nil {
		return s, nil, errors.New(&tex.CodecError{Op: `normal-map`, Err: err})
	}
	src := s.scratch.Subimages()
	dst := out.Subimages()
	for i := range src {
		rgba, err := planeToRGBA(meta.Format, &src[i])
		if err != nil {
			out.Free()
			return s, nil, errors.New(&tex.CodecError{Op: `normal-map`, Err: err})
		}
		nm := pixops.NormalMapFromRed(rgba, src[i].Width, src[i].Height, src[i].Width*4, r.Amplitude)
		copy(dst[i].Data, nm)
	}
	// the derived image is an independent sibling, not owned by this state
	derived := tex.New(outMeta.Dimension, outMeta.Format,
		outMeta.Width, outMeta.Height, outMeta.Depth, outMeta.ArraySize, outMeta.MipLevels)
	if err := derived.Update(outMeta.Dimension, outMeta.Format,
		outMeta.Width, outMeta.Height, outMeta.Depth, outMeta.ArraySize, outMeta.MipLevels,
		out.Data()); err != nil {
		out.Free()
		return s, nil, errors.New(err)
	}
	return s, derived, nil
}

func (b *Backend) premultiply(img *tex.Image, s *state) (tex.BackendState, *tex.Image, error) {
	for _, sub := range s.scratch.Subimages() {
		pixops.Premultiply(sub.Data)
	}
	if err := s.refresh(img, s.scratch); err != nil {
		return s, nil, err
	}
	return s, nil, nil
}
