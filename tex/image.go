package tex

import (
	"github.com/texproc/texproc/internal/consts"
	"github.com/texproc/texproc/internal/errors"
)

// Dimension is the texture dimension kind.
type Dimension uint8

const (
	Tex1D Dimension = iota
	Tex2D
	Tex3D
	TexCube
)

func (d Dimension) String() string {
	switch d {
	case Tex1D:
		return `1d`
	case Tex2D:
		return `2d`
	case Tex3D:
		return `3d`
	case TexCube:
		return `cube`
	}
	return `dimension(?)`
}

// Subimage is one (mip level, array layer) slice of a texture, or for
// volume textures one (mip level, depth slice). Data is a view into the
// buffer of whichever backend currently owns the image; it becomes invalid
// the moment that backend is deactivated.
type Subimage struct {
	Width, Height        int
	RowPitch, SlicePitch int
	Data                 []byte
}

// Image is the backend-agnostic model of a texture. It carries no
// backend-specific fields; native handles live out-of-band in the owning
// backend's state, associated by the dispatcher.
//
// For TexCube images ArraySize counts faces, i.e. a single cube has
// ArraySize 6.
//
// Subimage order is item-major for 1D/2D/cube textures (all mips of layer
// 0, then all mips of layer 1, ...). Volume textures are mip-major with
// depth halving per level (all depth slices of mip 0, then of mip 1, ...).
type Image struct {
	Width, Height, Depth int
	ArraySize            int
	MipLevels            int
	Dimension            Dimension
	Format               PixelFormat
	Subimages            []Subimage

	data []byte // contiguous backing of all subimages, subimage 0 first
}

// New returns an empty image with the given metadata and no pixel data.
// Only a Load request may execute against an empty image.
func New(dim Dimension, f PixelFormat, width, height, depth, arraySize, mipLevels int) *Image {
	if depth < 1 {
		depth = 1
	}
	if arraySize < 1 {
		arraySize = 1
	}
	if mipLevels < 1 {
		mipLevels = 1
	}
	return &Image{
		Width:     width,
		Height:    height,
		Depth:     depth,
		ArraySize: arraySize,
		MipLevels: mipLevels,
		Dimension: dim,
		Format:    f,
	}
}

// MipDepth returns the depth slice count of the given mip level, halving
// per level for volume textures and clamping at 1.
func (img *Image) MipDepth(mip int) int {
	if img == nil || img.Dimension != Tex3D {
		return 1
	}
	return MipDimension(img.Depth, mip)
}

// ExpectedSubimages returns the subimage count the metadata demands:
// MipLevels*ArraySize for 1D/2D/cube textures, the depth-halving sum for
// volumes.
func (img *Image) ExpectedSubimages() int {
	if img == nil {
		return 0
	}
	if img.Dimension != Tex3D {
		return img.MipLevels * img.ArraySize
	}
	n := 0
	for m := 0; m < img.MipLevels; m++ {
		n += img.MipDepth(m)
	}
	return n
}

// SubimageIndex returns the index of (mip, layer) for 1D/2D/cube textures
// or (mip, depth slice) for volumes. Returns -1 for out-of-range input.
func (img *Image) SubimageIndex(mip, layer int) int {
	if img == nil || mip < 0 || mip >= img.MipLevels || layer < 0 {
		return -1
	}
	if img.Dimension != Tex3D {
		if layer >= img.ArraySize {
			return -1
		}
		return layer*img.MipLevels + mip
	}
	if layer >= img.MipDepth(mip) {
		return -1
	}
	idx := 0
	for m := 0; m < mip; m++ {
		idx += img.MipDepth(m)
	}
	return idx + layer
}

// Empty reports whether the image has no pixel data attached.
func (img *Image) Empty() bool { return img == nil || len(img.Subimages) == 0 }

// View returns the flattened buffer backing all subimages, starting at
// subimage 0. Its length equals the sum of all subimage slice pitches.
// The view is only valid while the owning backend holds its native state.
func (img *Image) View() []byte {
	if img == nil {
		return nil
	}
	return img.data
}

// Rescale updates the logical width/height bookkeeping only. Actual pixel
// resampling is a backend operation; the owning backend calls Rescale as
// part of its refresh so model and native data stay in lockstep.
func (img *Image) Rescale(width, height int) {
	if img == nil {
		return
	}
	img.Width = width
	img.Height = height
}

// Update replaces the image's metadata and pixel data in one step. data
// must be the contiguous buffer of all subimages in layout order; it is
// sliced, not copied, so the caller keeps ownership. Only the currently
// owning backend may call Update, after its native operation succeeded.
func (img *Image) Update(dim Dimension, f PixelFormat, width, height, depth, arraySize, mipLevels int, data []byte) error {
	if img == nil {
		return errors.New(consts.ErrNilReceiver)
	}
	if !f.Valid() {
		return errors.Errorf(`invalid pixel format code %d`, uint32(f))
	}
	if depth < 1 {
		depth = 1
	}
	if arraySize < 1 {
		arraySize = 1
	}
	if mipLevels < 1 {
		mipLevels = 1
	}
	img.Width, img.Height, img.Depth = width, height, depth
	img.ArraySize, img.MipLevels = arraySize, mipLevels
	img.Dimension, img.Format = dim, f

	subs, total := SubimageLayout(dim, f, width, height, depth, arraySize, mipLevels)
	if len(data) != total {
		return errors.Errorf(`buffer size %d does not match layout size %d`, len(data), total)
	}
	off := 0
	for i := range subs {
		subs[i].Data = data[off : off+subs[i].SlicePitch : off+subs[i].SlicePitch]
		off += subs[i].SlicePitch
	}
	img.Subimages = subs
	img.data = data
	return nil
}

// Detach drops the image's buffer views. Called by the dispatcher when the
// owning backend releases its native state without a successor.
func (img *Image) Detach() {
	if img == nil {
		return
	}
	for i := range img.Subimages {
		img.Subimages[i].Data = nil
	}
	img.data = nil
}

// SubimageLayout computes the subimage geometry for the given metadata in
// canonical order, without pixel data. The second result is the total
// buffer size, the sum of all slice pitches.
func SubimageLayout(dim Dimension, f PixelFormat, width, height, depth, arraySize, mipLevels int) ([]Subimage, int) {
	if depth < 1 {
		depth = 1
	}
	if arraySize < 1 {
		arraySize = 1
	}
	if mipLevels < 1 {
		mipLevels = 1
	}
	var subs []Subimage
	total := 0
	add := func(w, h int) {
		rp, sp := ComputePitch(f, w, h)
		subs = append(subs, Subimage{Width: w, Height: h, RowPitch: rp, SlicePitch: sp})
		total += sp
	}
	if dim == Tex3D {
		for m := 0; m < mipLevels; m++ {
			w, h := MipDimension(width, m), MipDimension(height, m)
			d := MipDimension(depth, m)
			for s := 0; s < d; s++ {
				add(w, h)
			}
		}
	} else {
		for a := 0; a < arraySize; a++ {
			for m := 0; m < mipLevels; m++ {
				add(MipDimension(width, m), MipDimension(height, m))
			}
		}
	}
	return subs, total
}

// FullMipCount returns the length of a complete mip chain down to 1x1.
func FullMipCount(width, height int) int {
	n := 1
	for width > 1 || height > 1 {
		width = MipDimension(width, 1)
		height = MipDimension(height, 1)
		n++
	}
	return n
}
