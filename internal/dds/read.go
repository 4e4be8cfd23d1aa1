package dds

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"
)

// Read loads a DDS or EDDS container; the flavor is sniffed from the
// magic, not the extension.
func Read(path string) (*Scratch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Decode parses a container from r.
func Decode(r io.Reader) (*Scratch, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, errors.New(err)
	}
	compressed := false
	switch magic {
	case magicDDS:
	case magicEDDS:
		compressed = true
	default:
		return nil, errors.Errorf(`not a DDS container: magic %08x`, magic)
	}
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.New(err)
	}
	if hdr.Size != headerSize || hdr.PixFmt.Size != pixFmtSize {
		return nil, errors.Errorf(`corrupt DDS header: size %d/%d`, hdr.Size, hdr.PixFmt.Size)
	}
	meta, err := metaOf(r, &hdr)
	if err != nil {
		return nil, err
	}
	s, err := NewScratch(meta)
	if err != nil {
		return nil, err
	}
	if !compressed {
		if _, err := io.ReadFull(r, s.buf); err != nil {
			return nil, errors.New(err)
		}
		return s, nil
	}
	if err := decodeCompressed(r, s); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeCompressed(r io.Reader, s *Scratch) error {
	for i := range s.subs {
		var sizes [2]uint32
		if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
			return errors.New(err)
		}
		rawSize, compSize := int(sizes[0]), int(sizes[1])
		if rawSize != s.subs[i].SlicePitch {
			return errors.Errorf(`subimage %d: stored size %d does not match layout %d`,
				i, rawSize, s.subs[i].SlicePitch)
		}
		if compSize == 0 {
			if _, err := io.ReadFull(r, s.subs[i].Data); err != nil {
				return errors.New(err)
			}
			continue
		}
		// the writer stores incompressible subimages raw, so a valid
		// block is always smaller than its raw size
		if compSize >= rawSize {
			return errors.Errorf(`subimage %d: compressed size %d not below raw size %d`,
				i, compSize, rawSize)
		}
		body := make([]byte, compSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return errors.New(err)
		}
		n, err := lz4.UncompressBlock(body, s.subs[i].Data)
		if err != nil {
			return errors.New(err)
		}
		if n != rawSize {
			return errors.Errorf(`subimage %d: decompressed %d bytes, want %d`, i, n, rawSize)
		}
	}
	return nil
}

func metaOf(r io.Reader, hdr *fileHeader) (Metadata, error) {
	meta := Metadata{
		Width:     int(hdr.Width),
		Height:    int(hdr.Height),
		Depth:     1,
		ArraySize: 1,
		MipLevels: int(hdr.MipMapCount),
		Dimension: tex.Tex2D,
	}
	if meta.MipLevels < 1 {
		meta.MipLevels = 1
	}
	if hdr.Flags&flagDepth != 0 && hdr.Depth > 1 {
		meta.Depth = int(hdr.Depth)
		meta.Dimension = tex.Tex3D
	}
	if hdr.Caps2&caps2Cube != 0 {
		meta.Dimension = tex.TexCube
		meta.ArraySize = 6
	}

	if hdr.PixFmt.Flags&pfFourCC != 0 && hdr.PixFmt.FourCC == fourCCDX10 {
		var dx10 dx10Header
		if err := binary.Read(r, binary.LittleEndian, &dx10); err != nil {
			return meta, errors.New(err)
		}
		meta.Format = tex.PixelFormat(dx10.DXGIFormat)
		meta.ArraySize = int(dx10.ArraySize)
		if meta.ArraySize < 1 {
			meta.ArraySize = 1
		}
		switch dx10.ResourceDimension {
		case resourceDim1D:
			meta.Dimension = tex.Tex1D
		case resourceDim3D:
			meta.Dimension = tex.Tex3D
			meta.ArraySize = 1
		default:
			meta.Dimension = tex.Tex2D
		}
		// the cube flag overrides the generic dimension field
		if dx10.MiscFlag&dx10MiscCube != 0 {
			meta.Dimension = tex.TexCube
			meta.ArraySize *= 6
		}
	} else {
		f, err := legacyFormat(&hdr.PixFmt)
		if err != nil {
			return meta, err
		}
		meta.Format = f
	}
	if !meta.Format.Valid() {
		return meta, errors.Errorf(`format code %d outside supported range`, uint32(meta.Format))
	}
	return meta, nil
}

func legacyFormat(pf *filePixelFormat) (tex.PixelFormat, error) {
	if pf.Flags&pfFourCC != 0 {
		switch pf.FourCC {
		case fourCCDXT1:
			return tex.FormatBC1UNorm, nil
		case fourCCDXT3:
			return tex.FormatBC2UNorm, nil
		case fourCCDXT5:
			return tex.FormatBC3UNorm, nil
		}
		return 0, errors.Errorf(`unsupported FourCC %08x`, pf.FourCC)
	}
	if pf.Flags&pfRGB != 0 && pf.RGBBitCount == 32 {
		switch pf.RBitMask {
		case 0x000000ff:
			return tex.FormatR8G8B8A8UNorm, nil
		case 0x00ff0000:
			return tex.FormatB8G8R8A8UNorm, nil
		}
	}
	return 0, errors.Errorf(`unsupported legacy pixel format (flags %08x)`, pf.Flags)
}
