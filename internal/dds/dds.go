// Package dds reads and writes DDS texture containers with the DX10
// extension header, plus the ".edds" flavor whose subimage payloads are
// LZ4 block compressed. It also provides Scratch, the contiguous native
// buffer the dxtex backend keeps while it owns an image.
package dds

import (
	"github.com/texproc/texproc/internal/consts"
	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

const (
	magicDDS  = 0x20534444 // "DDS "
	magicEDDS = 0x53444445 // "EDDS"

	fourCCDX10 = 0x30315844 // "DX10"
	fourCCDXT1 = 0x31545844
	fourCCDXT3 = 0x33545844
	fourCCDXT5 = 0x35545844

	headerSize   = 124
	pixFmtSize   = 32
	dx10Size     = 20
	flagCaps     = 0x1
	flagHeight   = 0x2
	flagWidth    = 0x4
	flagPitch    = 0x8
	flagPixFmt   = 0x1000
	flagMipCount = 0x20000
	flagLinear   = 0x80000
	flagDepth    = 0x800000

	pfFourCC   = 0x4
	pfRGB      = 0x40
	pfAlphaPix = 0x1

	capsComplex = 0x8
	capsTexture = 0x1000
	capsMipmap  = 0x400000

	caps2Cube     = 0x200
	caps2CubeAll  = 0xfc00
	caps2Volume   = 0x200000
	dx10MiscCube  = 0x4
	resourceDim1D = 2
	resourceDim2D = 3
	resourceDim3D = 4
)

type fileHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixFmt            filePixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type filePixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type dx10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// Metadata is the container-level description of a texture.
type Metadata struct {
	Width, Height, Depth int
	ArraySize            int
	MipLevels            int
	Dimension            tex.Dimension
	Format               tex.PixelFormat
}

// MetadataOf captures an image's current metadata.
func MetadataOf(img *tex.Image) Metadata {
	return Metadata{
		Width: img.Width, Height: img.Height, Depth: img.Depth,
		ArraySize: img.ArraySize, MipLevels: img.MipLevels,
		Dimension: img.Dimension, Format: img.Format,
	}
}

// Scratch owns one contiguous native buffer holding all subimages of a
// texture in canonical layout order. It is the dxtex backend's native
// representation; freeing it invalidates every view into it.
type Scratch struct {
	meta     Metadata
	buf      []byte
	subs     []tex.Subimage
	released bool
}

// NewScratch allocates a zeroed buffer for the given metadata.
func NewScratch(meta Metadata) (*Scratch, error) {
	if !meta.Format.Valid() {
		return nil, errors.Errorf(`invalid pixel format code %d`, uint32(meta.Format))
	}
	subs, total := tex.SubimageLayout(meta.Dimension, meta.Format,
		meta.Width, meta.Height, meta.Depth, meta.ArraySize, meta.MipLevels)
	s := &Scratch{meta: meta, buf: make([]byte, total), subs: subs}
	s.attach()
	return s, nil
}

// ScratchFromData allocates a scratch and copies data into it. data must
// be the contiguous subimage buffer in layout order.
func ScratchFromData(meta Metadata, data []byte) (*Scratch, error) {
	s, err := NewScratch(meta)
	if err != nil {
		return nil, err
	}
	if len(data) != len(s.buf) {
		return nil, errors.Errorf(`buffer size %d does not match layout size %d`, len(data), len(s.buf))
	}
	copy(s.buf, data)
	return s, nil
}

func (s *Scratch) attach() {
	off := 0
	for i := range s.subs {
		sp := s.subs[i].SlicePitch
		s.subs[i].Data = s.buf[off : off+sp : off+sp]
		off += sp
	}
}

// Meta returns the scratch's metadata.
func (s *Scratch) Meta() Metadata { return s.meta }

// Data returns the contiguous buffer. Invalid after Free.
func (s *Scratch) Data() []byte {
	if s == nil || s.released {
		return nil
	}
	return s.buf
}

// Subimages returns per-subimage views into the buffer.
func (s *Scratch) Subimages() []tex.Subimage {
	if s == nil || s.released {
		return nil
	}
	return s.subs
}

// Subimage returns the view at (mip, layer/slice) or an error.
func (s *Scratch) Subimage(mip, layer int) (*tex.Subimage, error) {
	if s == nil || s.released {
		return nil, errors.New(consts.ErrReleasedState)
	}
	probe := tex.Image{
		Width: s.meta.Width, Height: s.meta.Height, Depth: s.meta.Depth,
		ArraySize: s.meta.ArraySize, MipLevels: s.meta.MipLevels,
		Dimension: s.meta.Dimension, Format: s.meta.Format,
	}
	idx := probe.SubimageIndex(mip, layer)
	if idx < 0 || idx >= len(s.subs) {
		return nil, errors.Errorf(`subimage (%d,%d) out of range`, mip, layer)
	}
	return &s.subs[idx], nil
}

// Free releases the buffer. Safe to call more than once; only the first
// call frees.
func (s *Scratch) Free() {
	if s == nil || s.released {
		return
	}
	s.released = true
	s.buf = nil
	for i := range s.subs {
		s.subs[i].Data = nil
	}
	s.subs = nil
}

// Released reports whether Free has run.
func (s *Scratch) Released() bool { return s == nil || s.released }
