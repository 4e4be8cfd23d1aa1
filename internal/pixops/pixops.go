// Package pixops holds plane-level pixel operations shared by the
// backends: channel reordering, alpha premultiply, normal-map derivation
// and conversions between tightly packed byte planes and image.NRGBA.
package pixops

import (
	"image"

	"github.com/chewxy/math32"
)

// SwapRB swaps the red and blue bytes of a 4-channel plane in place,
// converting between RGBA and BGRA byte order.
func SwapRB(plane []byte) {
	for i := 0; i+3 < len(plane); i += 4 {
		plane[i], plane[i+2] = plane[i+2], plane[i]
	}
}

// Premultiply multiplies the color channels of a 4-channel plane by alpha
// in place, with round-to-nearest.
func Premultiply(plane []byte) {
	for i := 0; i+3 < len(plane); i += 4 {
		a := uint32(plane[i+3])
		for c := 0; c < 3; c++ {
			plane[i+c] = byte((uint32(plane[i+c])*a + 127) / 255)
		}
	}
}

// NormalMapFromRed derives a tangent-space normal map from the red channel
// of a 4-channel plane using central differences, clamped at the edges.
// The result is a fresh RGBA plane of the same size with the normal mapped
// into [0,255] per axis and opaque alpha.
func NormalMapFromRed(src []byte, width, height, rowPitch int, amplitude float32) []byte {
	dst := make([]byte, width*height*4)
	red := func(x, y int) float32 {
		if x < 0 {
			x = 0
		} else if x >= width {
			x = width - 1
		}
		if y < 0 {
			y = 0
		} else if y >= height {
			y = height - 1
		}
		return float32(src[y*rowPitch+x*4]) / 255
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := (red(x+1, y) - red(x-1, y)) * amplitude
			dy := (red(x, y+1) - red(x, y-1)) * amplitude
			inv := 1 / math32.Sqrt(dx*dx+dy*dy+1)
			nx, ny, nz := -dx*inv, -dy*inv, inv
			o := (y*width + x) * 4
			dst[o] = encodeUnit(nx)
			dst[o+1] = encodeUnit(ny)
			dst[o+2] = encodeUnit(nz)
			dst[o+3] = 0xff
		}
	}
	return dst
}

func encodeUnit(v float32) byte {
	u := (v + 1) * 0.5 * 255
	if u < 0 {
		u = 0
	} else if u > 255 {
		u = 255
	}
	return byte(u + 0.5)
}

// AverageSlices box-averages two equally sized planes channel-wise. Used
// for the depth dimension when generating volume texture mips.
func AverageSlices(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	dst := make([]byte, n)
	for i := 0; i < n; i++ {
		dst[i] = byte((uint32(a[i]) + uint32(b[i]) + 1) / 2)
	}
	return dst
}

// ToNRGBA wraps a 4-channel plane into an image.NRGBA, compacting the row
// pitch if necessary. The result shares memory with plane when the pitch
// is already tight.
func ToNRGBA(plane []byte, width, height, rowPitch int) *image.NRGBA {
	if rowPitch == width*4 {
		return &image.NRGBA{Pix: plane, Stride: rowPitch, Rect: image.Rect(0, 0, width, height)}
	}
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		copy(m.Pix[y*m.Stride:y*m.Stride+width*4], plane[y*rowPitch:])
	}
	return m
}

// FromImage flattens any image into a tightly packed RGBA plane.
func FromImage(img image.Image) []byte {
	if m, ok := img.(*image.NRGBA); ok {
		b := m.Bounds()
		if m.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
			out := make([]byte, len(m.Pix))
			copy(out, m.Pix)
			return out
		}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst.Pix
}
