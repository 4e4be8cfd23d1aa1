package tex

// Request describes one requested operation and its parameters. Requests
// are immutable values, created by the caller and consumed once by exactly
// one backend; dispatch happens per concrete type.
type Request interface {
	// Kind returns a stable name of the operation for logs and errors.
	Kind() string

	isRequest()
}

// Load reads a texture container from Path. Only accepted by a backend
// whose native container format matches the path's extension
// (case-insensitive). Load is the sole request valid on an empty image.
type Load struct {
	Path string
}

// Export writes the image to Path. If MinimumMipSize is greater than 1 and
// smaller than the current top-level width and height, the exported mip
// chain is trimmed to the mips whose width and height both exceed
// MinimumMipSize plus the first mip at or below it. 0 and 1 export the
// chain unmodified.
type Export struct {
	Path           string
	MinimumMipSize int
}

// Compress converts the image into TargetFormat. Block-compressed targets
// require the top mip's width and height to be divisible by 4.
type Compress struct {
	TargetFormat PixelFormat
}

// Decompress expands a block-compressed image into R8G8B8A8_UNORM.
type Decompress struct{}

// Rescale resamples the top mip to a new size with the given filter. The
// target is either absolute (Width/Height > 0) or relative (Scale > 0);
// TargetSize resolves it against the current size before the backend runs.
type Rescale struct {
	Width, Height int
	Scale         float64
	Filter        Filter
}

// TargetSize resolves the request against the image's current size.
func (r Rescale) TargetSize(curWidth, curHeight int) (int, int) {
	if r.Scale > 0 {
		w := int(float64(curWidth)*r.Scale + 0.5)
		h := int(float64(curHeight)*r.Scale + 0.5)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		return w, h
	}
	return r.Width, r.Height
}

// GenerateMipMaps replaces the image's mip chain with a full chain down to
// 1x1, resampled with Filter. Volume textures support only Box and
// Nearest; other filters degrade to Box.
type GenerateMipMaps struct {
	Filter Filter
}

// GenerateNormalMap derives a tangent-space normal map from the red
// channel of the source at the given amplitude. It produces a new
// R8G8B8A8_UNORM image of the same size and never mutates the source.
type GenerateNormalMap struct {
	Amplitude float32
}

// PremultiplyAlpha multiplies the color channels by alpha in place using
// the backend's default premultiply policy.
type PremultiplyAlpha struct{}

func (Load) Kind() string              { return `load` }
func (Export) Kind() string            { return `export` }
func (Compress) Kind() string          { return `compress` }
func (Decompress) Kind() string        { return `decompress` }
func (Rescale) Kind() string           { return `rescale` }
func (GenerateMipMaps) Kind() string   { return `generate-mipmaps` }
func (GenerateNormalMap) Kind() string { return `generate-normalmap` }
func (PremultiplyAlpha) Kind() string  { return `premultiply-alpha` }

func (Load) isRequest()              {}
func (Export) isRequest()            {}
func (Compress) isRequest()          {}
func (Decompress) isRequest()        {}
func (Rescale) isRequest()           {}
func (GenerateMipMaps) isRequest()   {}
func (GenerateNormalMap) isRequest() {}
func (PremultiplyAlpha) isRequest()  {}
