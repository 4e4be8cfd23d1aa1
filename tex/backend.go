package tex

// BackendState is the opaque native state a backend associates with an
// image while it owns that image's buffers. Exactly one backend may hold
// live state for an image at a time; the dispatcher releases the previous
// state whenever ownership transfers.
type BackendState interface {
	// Owner returns the name of the backend that created the state.
	Owner() string

	// Release frees the native buffers. The dispatcher calls it exactly
	// once; implementations must tolerate repeated calls without
	// double-freeing.
	Release()
}

// Backend is a pluggable processor wrapping one native texture-processing
// library. A backend declares per request whether it can satisfy it,
// imports the image model into its private native representation, executes
// operations against that representation and refreshes the model from it.
//
// Backends register themselves with RegisterBackend, usually from init().
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// CanHandle is a pure predicate: can this backend satisfy req given
	// the image's current format and dimensions? It must check both the
	// request parameters and the image's current format; format codes
	// outside the backend's supported range make it answer false.
	CanHandle(img *Image, req Request) bool

	// Activate imports the image's current buffers into fresh native
	// state. If prior is this backend's own live state for the image and
	// its buffers still back the image's view, Activate is a no-op and
	// returns prior unchanged. For a Load request the image may be empty;
	// Activate then returns empty state to be filled by Execute.
	Activate(img *Image, prior BackendState) (BackendState, error)

	// Execute performs the operation against the native state and, only
	// after native success, refreshes the image model from it. The second
	// result is a newly derived image (GenerateNormalMap), nil for every
	// other request kind.
	Execute(img *Image, req Request, st BackendState) (BackendState, *Image, error)

	// Deactivate releases native state. Safe to call with nil or another
	// backend's state, in which case it is a no-op.
	Deactivate(st BackendState) error

	// SupportsChannelOrder reports whether the backend accepts images
	// whose uncompressed channel byte order is o. The dispatcher skips
	// backends that cannot take the image's current order.
	SupportsChannelOrder(o ChannelOrder) bool
}
