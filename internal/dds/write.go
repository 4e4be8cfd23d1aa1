package dds

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/texproc/texproc/internal/consts"
	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Write stores the scratch at path. The ".edds" extension selects the
// LZ4-compressed payload flavor, anything else writes plain DDS.
func Write(path string, s *Scratch) error {
	if s == nil || s.Released() {
		return errors.New(consts.ErrReleasedState)
	}
	compressed := strings.EqualFold(filepath.Ext(path), consts.ExtEDDS)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := Encode(w, s, compressed); err != nil {
		return err
	}
	return w.Flush()
}

// Encode writes the container to w.
func Encode(w io.Writer, s *Scratch, compressed bool) error {
	if s == nil || s.Released() {
		return errors.New(consts.ErrReleasedState)
	}
	meta := s.meta
	magic := uint32(magicDDS)
	if compressed {
		magic = magicEDDS
	}
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return errors.New(err)
	}
	if err := binary.Write(w, binary.LittleEndian, headerOf(meta)); err != nil {
		return errors.New(err)
	}
	if err := binary.Write(w, binary.LittleEndian, dx10Of(meta)); err != nil {
		return errors.New(err)
	}
	if !compressed {
		if _, err := w.Write(s.buf); err != nil {
			return errors.New(err)
		}
		return nil
	}
	return encodeCompressed(w, s)
}

// encodeCompressed writes one LZ4 block per subimage, prefixed with the
// raw and compressed sizes. A compressed size of 0 marks an incompressible
// subimage stored raw.
func encodeCompressed(w io.Writer, s *Scratch) error {
	var scratch []byte
	for i := range s.subs {
		raw := s.subs[i].Data
		if cap(scratch) < len(raw) {
			scratch = make([]byte, len(raw))
		}
		n, err := lz4.CompressBlock(raw, scratch[:len(raw)], nil)
		if err != nil || n >= len(raw) {
			n = 0 // fall back to stored
		}
		sizes := [2]uint32{uint32(len(raw)), uint32(n)}
		if err := binary.Write(w, binary.LittleEndian, sizes); err != nil {
			return errors.New(err)
		}
		body := raw
		if n > 0 {
			body = scratch[:n]
		}
		if _, err := w.Write(body); err != nil {
			return errors.New(err)
		}
	}
	return nil
}

func headerOf(meta Metadata) fileHeader {
	flags := uint32(flagCaps | flagHeight | flagWidth | flagPixFmt)
	caps := uint32(capsTexture)
	var caps2 uint32
	if meta.MipLevels > 1 {
		flags |= flagMipCount
		caps |= capsComplex | capsMipmap
	}
	switch meta.Dimension {
	case tex.Tex3D:
		flags |= flagDepth
		caps2 |= caps2Volume
	case tex.TexCube:
		caps |= capsComplex
		caps2 |= caps2Cube | caps2CubeAll
	}
	rowPitch, slicePitch := tex.ComputePitch(meta.Format, meta.Width, meta.Height)
	pitch := uint32(rowPitch)
	if meta.Format.IsBlockCompressed() {
		flags |= flagLinear
		pitch = uint32(slicePitch)
	} else {
		flags |= flagPitch
	}
	return fileHeader{
		Size:              headerSize,
		Flags:             flags,
		Height:            uint32(meta.Height),
		Width:             uint32(meta.Width),
		PitchOrLinearSize: pitch,
		Depth:             uint32(meta.Depth),
		MipMapCount:       uint32(meta.MipLevels),
		PixFmt: filePixelFormat{
			Size:   pixFmtSize,
			Flags:  pfFourCC,
			FourCC: fourCCDX10,
		},
		Caps:  caps,
		Caps2: caps2,
	}
}

func dx10Of(meta Metadata) dx10Header {
	h := dx10Header{
		DXGIFormat: uint32(meta.Format),
		ArraySize:  uint32(meta.ArraySize),
	}
	switch meta.Dimension {
	case tex.Tex1D:
		h.ResourceDimension = resourceDim1D
	case tex.Tex3D:
		h.ResourceDimension = resourceDim3D
		h.ArraySize = 1
	case tex.TexCube:
		h.ResourceDimension = resourceDim2D
		h.MiscFlag = dx10MiscCube
		h.ArraySize = uint32(meta.ArraySize / 6)
	default:
		h.ResourceDimension = resourceDim2D
	}
	return h
}
