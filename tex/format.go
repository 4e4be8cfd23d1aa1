package tex

import (
	"fmt"
	"strings"
)

// PixelFormat is a pixel format code. The code space follows the DXGI
// numbering so that container files can store codes verbatim; only codes in
// [FormatMin, FormatMax] are valid, everything else is unsupported by any
// backend.
type PixelFormat uint32

const (
	FormatUnknown PixelFormat = 0

	FormatMin PixelFormat = 1
	FormatMax PixelFormat = 115
)

// The formats this repo's backends actually touch. Additional codes inside
// the valid range round-trip through containers untouched but are rejected
// by CanHandle.
const (
	FormatR32G32B32A32Float PixelFormat = 2
	FormatR8G8B8A8UNorm     PixelFormat = 28
	FormatR8UNorm           PixelFormat = 61
	FormatA8UNorm           PixelFormat = 65
	FormatBC1UNorm          PixelFormat = 71
	FormatBC2UNorm          PixelFormat = 74
	FormatBC3UNorm          PixelFormat = 77
	FormatBC4UNorm          PixelFormat = 80
	FormatBC5UNorm          PixelFormat = 83
	FormatB8G8R8A8UNorm     PixelFormat = 87
	FormatBC6HUF16          PixelFormat = 95
	FormatBC7UNorm          PixelFormat = 98
)

var formatNames = map[PixelFormat]string{
	FormatR32G32B32A32Float: `R32G32B32A32_FLOAT`,
	FormatR8G8B8A8UNorm:     `R8G8B8A8_UNORM`,
	FormatR8UNorm:           `R8_UNORM`,
	FormatA8UNorm:           `A8_UNORM`,
	FormatBC1UNorm:          `BC1_UNORM`,
	FormatBC2UNorm:          `BC2_UNORM`,
	FormatBC3UNorm:          `BC3_UNORM`,
	FormatBC4UNorm:          `BC4_UNORM`,
	FormatBC5UNorm:          `BC5_UNORM`,
	FormatB8G8R8A8UNorm:     `B8G8R8A8_UNORM`,
	FormatBC6HUF16:          `BC6H_UF16`,
	FormatBC7UNorm:          `BC7_UNORM`,
}

func (f PixelFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf(`format(%d)`, uint32(f))
}

var formatAliases = map[string]PixelFormat{
	`rgba8`: FormatR8G8B8A8UNorm,
	`bgra8`: FormatB8G8R8A8UNorm,
	`r8`:    FormatR8UNorm,
	`a8`:    FormatA8UNorm,
	`bc1`:   FormatBC1UNorm,
	`dxt1`:  FormatBC1UNorm,
	`bc2`:   FormatBC2UNorm,
	`dxt3`:  FormatBC2UNorm,
	`bc3`:   FormatBC3UNorm,
	`dxt5`:  FormatBC3UNorm,
}

// ParseFormat resolves a format name or alias (case-insensitive) to its
// code.
func ParseFormat(name string) (PixelFormat, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if f, ok := formatAliases[lower]; ok {
		return f, nil
	}
	upper := strings.ToUpper(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == upper {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf(`unknown pixel format %q`, name)
}

// Valid reports whether the code lies in the supported numeric range.
func (f PixelFormat) Valid() bool { return f >= FormatMin && f <= FormatMax }

// IsBlockCompressed reports whether f is one of the BC block formats.
// Block formats store pixels in 4x4 blocks; top-level dimensions must be
// multiples of the block size for compression.
func (f PixelFormat) IsBlockCompressed() bool {
	return (f >= 70 && f <= 84) || (f >= 94 && f <= 99)
}

// BlockBytes returns the byte size of one 4x4 block, or 0 for non-block
// formats. BC1 and BC4 pack a block into 8 bytes, the other BC formats
// into 16.
func (f PixelFormat) BlockBytes() int {
	if !f.IsBlockCompressed() {
		return 0
	}
	switch {
	case f >= 70 && f <= 72: // BC1
		return 8
	case f >= 79 && f <= 81: // BC4
		return 8
	default:
		return 16
	}
}

// BitsPerPixel returns the storage density of f, or 0 if unknown.
func (f PixelFormat) BitsPerPixel() int {
	switch f {
	case FormatR32G32B32A32Float:
		return 128
	case FormatR8G8B8A8UNorm, FormatB8G8R8A8UNorm:
		return 32
	case FormatR8UNorm, FormatA8UNorm:
		return 8
	}
	if f.IsBlockCompressed() {
		return f.BlockBytes() / 2 // 8 byte blocks = 4 bpp, 16 byte blocks = 8 bpp
	}
	return 0
}

// ChannelOrder describes the byte order of an uncompressed format's
// channels. Block formats decode to RGBA and report OrderRGBA.
type ChannelOrder uint8

const (
	OrderRGBA ChannelOrder = iota
	OrderBGRA
	OrderSingle
)

func (o ChannelOrder) String() string {
	switch o {
	case OrderRGBA:
		return `rgba`
	case OrderBGRA:
		return `bgra`
	case OrderSingle:
		return `single`
	}
	return `order(?)`
}

// Order returns the channel order of f.
func (f PixelFormat) Order() ChannelOrder {
	switch f {
	case FormatB8G8R8A8UNorm:
		return OrderBGRA
	case FormatR8UNorm, FormatA8UNorm:
		return OrderSingle
	}
	return OrderRGBA
}

// ComputePitch returns the row and slice pitch of a single subimage of the
// given size. For block formats the row pitch covers a full row of 4x4
// blocks, the slice pitch a full column of block rows.
func ComputePitch(f PixelFormat, width, height int) (rowPitch, slicePitch int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if f.IsBlockCompressed() {
		bw := (width + 3) / 4
		bh := (height + 3) / 4
		rowPitch = bw * f.BlockBytes()
		slicePitch = rowPitch * bh
		return rowPitch, slicePitch
	}
	rowPitch = (width*f.BitsPerPixel() + 7) / 8
	slicePitch = rowPitch * height
	return rowPitch, slicePitch
}

// MipDimension halves a top-level dimension lvl times, clamping at 1.
func MipDimension(dim, lvl int) int {
	d := dim >> lvl
	if d < 1 {
		return 1
	}
	return d
}
