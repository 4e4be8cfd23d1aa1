// Package bcn implements the BC1/BC2/BC3 block texture formats (formerly
// DXT1/DXT3/DXT5). Pixels are packed in 4x4 blocks; BC1 stores a block in
// 8 bytes, BC2 and BC3 in 16. Partial edge blocks are handled by clamping,
// so only the caller decides whether non-multiple-of-4 sizes are legal.
package bcn

import (
	"encoding/binary"

	"github.com/chewxy/math32"

	"github.com/texproc/texproc/internal/errors"
)

// Format selects the block codec.
type Format uint8

const (
	BC1 Format = iota + 1
	BC2
	BC3
)

// BlockBytes returns the packed size of one 4x4 block.
func (f Format) BlockBytes() int {
	if f == BC1 {
		return 8
	}
	return 16
}

func (f Format) String() string {
	switch f {
	case BC1:
		return `BC1`
	case BC2:
		return `BC2`
	case BC3:
		return `BC3`
	}
	return `BC?`
}

// Encode compresses a tightly packed RGBA plane into blocks. The returned
// buffer holds ceil(w/4)*ceil(h/4) blocks in row-major block order.
func Encode(f Format, rgba []byte, width, height, rowPitch int) ([]byte, error) {
	if f < BC1 || f > BC3 {
		return nil, errors.Errorf(`unknown block format %d`, f)
	}
	if len(rgba) < height*rowPitch && height > 0 {
		return nil, errors.Errorf(`source plane too small: %d bytes for %dx%d`, len(rgba), width, height)
	}
	bw, bh := (width+3)/4, (height+3)/4
	out := make([]byte, bw*bh*f.BlockBytes())
	var block [16 * 4]byte
	o := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			fetchBlock(rgba, width, height, rowPitch, bx*4, by*4, &block)
			switch f {
			case BC1:
				encodeColorBlock(block[:], out[o:o+8])
				o += 8
			case BC2:
				encodeAlphaExplicit(block[:], out[o:o+8])
				encodeColorBlock(block[:], out[o+8:o+16])
				o += 16
			case BC3:
				encodeAlphaInterpolated(block[:], out[o:o+8])
				encodeColorBlock(block[:], out[o+8:o+16])
				o += 16
			}
		}
	}
	return out, nil
}

// Decode expands packed blocks into a tightly packed RGBA plane of
// width*height*4 bytes.
func Decode(f Format, blocks []byte, width, height int) ([]byte, error) {
	if f < BC1 || f > BC3 {
		return nil, errors.Errorf(`unknown block format %d`, f)
	}
	bw, bh := (width+3)/4, (height+3)/4
	need := bw * bh * f.BlockBytes()
	if len(blocks) < need {
		return nil, errors.Errorf(`truncated block data: %d bytes, need %d for %dx%d %s`,
			len(blocks), need, width, height, f)
	}
	out := make([]byte, width*height*4)
	var block [16 * 4]byte
	o := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			switch f {
			case BC1:
				decodeColorBlock(blocks[o:o+8], &block, true)
				o += 8
			case BC2:
				decodeColorBlock(blocks[o+8:o+16], &block, false)
				decodeAlphaExplicit(blocks[o:o+8], &block)
				o += 16
			case BC3:
				decodeColorBlock(blocks[o+8:o+16], &block, false)
				decodeAlphaInterpolated(blocks[o:o+8], &block)
				o += 16
			}
			storeBlock(out, width, height, width*4, bx*4, by*4, &block)
		}
	}
	return out, nil
}

// fetchBlock reads a 4x4 pixel block, clamping reads at the plane edges so
// partial blocks repeat their border pixels.
func fetchBlock(rgba []byte, width, height, rowPitch, x0, y0 int, block *[64]byte) {
	for y := 0; y < 4; y++ {
		sy := y0 + y
		if sy >= height {
			sy = height - 1
		}
		for x := 0; x < 4; x++ {
			sx := x0 + x
			if sx >= width {
				sx = width - 1
			}
			copy(block[(y*4+x)*4:], rgba[sy*rowPitch+sx*4:sy*rowPitch+sx*4+4])
		}
	}
}

func storeBlock(rgba []byte, width, height, rowPitch, x0, y0 int, block *[64]byte) {
	for y := 0; y < 4; y++ {
		dy := y0 + y
		if dy >= height {
			break
		}
		for x := 0; x < 4; x++ {
			dx := x0 + x
			if dx >= width {
				break
			}
			copy(rgba[dy*rowPitch+dx*4:], block[(y*4+x)*4:(y*4+x)*4+4])
		}
	}
}

func pack565(r, g, b byte) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func unpack565(c uint16) (r, g, b byte) {
	r = byte(c >> 11 << 3)
	g = byte(c >> 5 << 2)
	b = byte(c << 3)
	// replicate high bits into the low bits
	r |= r >> 5
	g |= g >> 6
	b |= b >> 5
	return r, g, b
}

// encodeColorBlock range-fits the block colors onto the segment between
// the two extreme colors of the block's bounding box. Endpoints are
// ordered c0 > c1 so decoders always see the 4-color palette mode.
func encodeColorBlock(block []byte, out []byte) {
	var minC, maxC [3]float32
	for c := 0; c < 3; c++ {
		minC[c], maxC[c] = 255, 0
	}
	for i := 0; i < 16; i++ {
		for c := 0; c < 3; c++ {
			v := float32(block[i*4+c])
			if v < minC[c] {
				minC[c] = v
			}
			if v > maxC[c] {
				maxC[c] = v
			}
		}
	}
	c0 := pack565(byte(maxC[0]), byte(maxC[1]), byte(maxC[2]))
	c1 := pack565(byte(minC[0]), byte(minC[1]), byte(minC[2]))
	if c0 == c1 {
		// flat block
		binary.LittleEndian.PutUint16(out, c0)
		binary.LittleEndian.PutUint16(out[2:], c1)
		binary.LittleEndian.PutUint32(out[4:], 0)
		return
	}
	if c0 < c1 {
		c0, c1 = c1, c0
	}
	r0, g0, b0 := unpack565(c0)
	r1, g1, b1 := unpack565(c1)
	palette := [4][3]float32{
		{float32(r0), float32(g0), float32(b0)},
		{float32(r1), float32(g1), float32(b1)},
	}
	for c := 0; c < 3; c++ {
		palette[2][c] = (2*palette[0][c] + palette[1][c]) / 3
		palette[3][c] = (palette[0][c] + 2*palette[1][c]) / 3
	}

	var indices uint32
	for i := 0; i < 16; i++ {
		var best int
		bestDist := float32(math32.MaxFloat32)
		for p := 0; p < 4; p++ {
			var dist float32
			for c := 0; c < 3; c++ {
				d := float32(block[i*4+c]) - palette[p][c]
				dist += d * d
			}
			if dist < bestDist {
				bestDist = dist
				best = p
			}
		}
		indices |= uint32(best) << (2 * i)
	}
	binary.LittleEndian.PutUint16(out, c0)
	binary.LittleEndian.PutUint16(out[2:], c1)
	binary.LittleEndian.PutUint32(out[4:], indices)
}

func decodeColorBlock(in []byte, block *[64]byte, opaque bool) {
	c0 := binary.LittleEndian.Uint16(in)
	c1 := binary.LittleEndian.Uint16(in[2:])
	indices := binary.LittleEndian.Uint32(in[4:])

	var palette [4][4]byte
	r0, g0, b0 := unpack565(c0)
	r1, g1, b1 := unpack565(c1)
	palette[0] = [4]byte{r0, g0, b0, 0xff}
	palette[1] = [4]byte{r1, g1, b1, 0xff}
	if c0 > c1 || !opaque {
		for c := 0; c < 3; c++ {
			palette[2][c] = byte((2*uint32(palette[0][c]) + uint32(palette[1][c]) + 1) / 3)
			palette[3][c] = byte((uint32(palette[0][c]) + 2*uint32(palette[1][c]) + 1) / 3)
		}
		palette[2][3], palette[3][3] = 0xff, 0xff
	} else {
		// 3-color mode with punch-through transparency
		for c := 0; c < 3; c++ {
			palette[2][c] = byte((uint32(palette[0][c]) + uint32(palette[1][c])) / 2)
		}
		palette[2][3] = 0xff
		palette[3] = [4]byte{0, 0, 0, 0}
	}
	for i := 0; i < 16; i++ {
		p := palette[(indices>>(2*i))&3]
		copy(block[i*4:], p[:])
	}
}

// encodeAlphaExplicit packs 4-bit alpha per pixel (BC2).
func encodeAlphaExplicit(block []byte, out []byte) {
	for i := 0; i < 8; i++ {
		a0 := block[(2*i)*4+3] >> 4
		a1 := block[(2*i+1)*4+3] >> 4
		out[i] = a1<<4 | a0
	}
}

func decodeAlphaExplicit(in []byte, block *[64]byte) {
	for i := 0; i < 8; i++ {
		a0 := in[i] & 0x0f
		a1 := in[i] >> 4
		block[(2*i)*4+3] = a0<<4 | a0
		block[(2*i+1)*4+3] = a1<<4 | a1
	}
}

// encodeAlphaInterpolated packs the BC3 alpha block: two endpoints and
// 3-bit interpolation indices. Endpoints are chosen as the block's alpha
// extremes in 8-value mode.
func encodeAlphaInterpolated(block []byte, out []byte) {
	amin, amax := byte(255), byte(0)
	for i := 0; i < 16; i++ {
		a := block[i*4+3]
		if a < amin {
			amin = a
		}
		if a > amax {
			amax = a
		}
	}
	out[0], out[1] = amax, amin
	var palette [8]byte
	alphaPalette(amax, amin, &palette)

	var bits uint64
	for i := 0; i < 16; i++ {
		a := block[i*4+3]
		var best int
		bestDist := 256
		for p := 0; p < 8; p++ {
			d := int(a) - int(palette[p])
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				bestDist = d
				best = p
			}
		}
		bits |= uint64(best) << (3 * i)
	}
	for i := 0; i < 6; i++ {
		out[2+i] = byte(bits >> (8 * i))
	}
}

func decodeAlphaInterpolated(in []byte, block *[64]byte) {
	var palette [8]byte
	alphaPalette(in[0], in[1], &palette)
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(in[2+i]) << (8 * i)
	}
	for i := 0; i < 16; i++ {
		block[i*4+3] = palette[(bits>>(3*i))&7]
	}
}

func alphaPalette(a0, a1 byte, palette *[8]byte) {
	palette[0], palette[1] = a0, a1
	if a0 > a1 {
		for i := 1; i < 7; i++ {
			palette[i+1] = byte(((7-i)*int(a0) + i*int(a1) + 3) / 7)
		}
	} else {
		for i := 1; i < 5; i++ {
			palette[i+1] = byte(((5-i)*int(a0) + i*int(a1) + 2) / 5)
		}
		palette[6], palette[7] = 0, 255
	}
}
