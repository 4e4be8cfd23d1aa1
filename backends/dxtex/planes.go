package dxtex

import (
	"io/fs"

	"github.com/texproc/texproc/internal/dds"
	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/internal/pixops"
	"github.com/texproc/texproc/tex"
)

func isFileError(err error) bool {
	var pe *fs.PathError
	return errors.As(err, &pe)
}

// planeToRGBA expands an uncompressed subimage into a tightly packed RGBA
// plane.
func planeToRGBA(f tex.PixelFormat, sub *tex.Subimage) ([]byte, error) {
	w, h := sub.Width, sub.Height
	out := make([]byte, w*h*4)
	switch f {
	case tex.FormatR8G8B8A8UNorm, tex.FormatB8G8R8A8UNorm:
		for y := 0; y < h; y++ {
			copy(out[y*w*4:(y+1)*w*4], sub.Data[y*sub.RowPitch:])
		}
		if f == tex.FormatB8G8R8A8UNorm {
			pixops.SwapRB(out)
		}
	case tex.FormatR8UNorm:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := sub.Data[y*sub.RowPitch+x]
				o := (y*w + x) * 4
				out[o], out[o+1], out[o+2], out[o+3] = v, v, v, 0xff
			}
		}
	case tex.FormatA8UNorm:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				o := (y*w + x) * 4
				out[o+3] = sub.Data[y*sub.RowPitch+x]
			}
		}
	default:
		return nil, errors.Errorf(`cannot expand %s to rgba`, f)
	}
	return out, nil
}

// rgbaToPlane packs a tightly packed RGBA plane into the subimage's
// uncompressed target format.
func rgbaToPlane(f tex.PixelFormat, rgba []byte, sub *tex.Subimage) error {
	w, h := sub.Width, sub.Height
	switch f {
	case tex.FormatR8G8B8A8UNorm, tex.FormatB8G8R8A8UNorm:
		for y := 0; y < h; y++ {
			copy(sub.Data[y*sub.RowPitch:], rgba[y*w*4:(y+1)*w*4])
		}
		if f == tex.FormatB8G8R8A8UNorm {
			for y := 0; y < h; y++ {
				pixops.SwapRB(sub.Data[y*sub.RowPitch : y*sub.RowPitch+w*4])
			}
		}
	case tex.FormatR8UNorm:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sub.Data[y*sub.RowPitch+x] = rgba[(y*w+x)*4]
			}
		}
	case tex.FormatA8UNorm:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sub.Data[y*sub.RowPitch+x] = rgba[(y*w+x)*4+3]
			}
		}
	default:
		return errors.Errorf(`cannot pack rgba into %s`, f)
	}
	return nil
}

// retainedMips returns how many mip levels survive a minimum-mip-size
// constraint: every mip with both dimensions above the threshold plus the
// first one at or below it. Thresholds of 0 or 1, or thresholds the top
// mip does not reach, leave the chain untouched.
func retainedMips(meta dds.Metadata, minMipSize int) int {
	if minMipSize <= 1 || minMipSize > meta.Width || minMipSize > meta.Height {
		return meta.MipLevels
	}
	for m := 0; m < meta.MipLevels; m++ {
		w := tex.MipDimension(meta.Width, m)
		h := tex.MipDimension(meta.Height, m)
		if w <= minMipSize || h <= minMipSize {
			return m + 1
		}
	}
	return meta.MipLevels
}

// trimMips copies the first levels mips into a fresh scratch. The index
// arithmetic differs between the item-major 2D/cube layout and the
// depth-halving volume layout; Subimage hides both.
func trimMips(src *dds.Scratch, levels int) (*dds.Scratch, error) {
	meta := src.Meta()
	outMeta := meta
	outMeta.MipLevels = levels
	out, err := dds.NewScratch(outMeta)
	if err != nil {
		return nil, err
	}
	copyOne := func(m, layer int) error {
		from, err := src.Subimage(m, layer)
		if err != nil {
			return err
		}
		to, err := out.Subimage(m, layer)
		if err != nil {
			return err
		}
		copy(to.Data, from.Data)
		return nil
	}
	if meta.Dimension == tex.Tex3D {
		for m := 0; m < levels; m++ {
			d := tex.MipDimension(meta.Depth, m)
			for sl := 0; sl < d; sl++ {
				if err := copyOne(m, sl); err != nil {
					out.Free()
					return nil, err
				}
			}
		}
	} else {
		for layer := 0; layer < meta.ArraySize; layer++ {
			for m := 0; m < levels; m++ {
				if err := copyOne(m, layer); err != nil {
					out.Free()
					return nil, err
				}
			}
		}
	}
	return out, nil
}
