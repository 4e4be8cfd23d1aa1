package tex

import (
	"errors"
	"fmt"
)

// ErrUnsupportedRequest is returned by the dispatcher when no registered
// backend can handle a request against the image's current state. All
// UnsupportedRequestError values match it with errors.Is.
var ErrUnsupportedRequest = errors.New(`unsupported request for this backend set`)

// UnsupportedRequestError names the request and image state for which no
// capable backend was found.
type UnsupportedRequestError struct {
	Kind   string
	Format PixelFormat
}

func (e *UnsupportedRequestError) Error() string {
	return fmt.Sprintf(`no backend can handle %s request for %s image`, e.Kind, e.Format)
}

func (e *UnsupportedRequestError) Is(target error) bool { return target == ErrUnsupportedRequest }

// InvalidResolutionError is returned when a block compression target needs
// dimensions divisible by the block size but the image's top mip is not.
type InvalidResolutionError struct {
	Width, Height int
	Target        PixelFormat
}

func (e *InvalidResolutionError) Error() string {
	return fmt.Sprintf(`cannot compress to %s: resolution %dx%d is not divisible by 4`,
		e.Target, e.Width, e.Height)
}

// CodecError wraps a native codec failure: load, save, compress, convert,
// resize, mipmap, normal-map or premultiply reported non-success.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf(`codec %s failed: %v`, e.Op, e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }

// IOError wraps a file that could not be opened or written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf(`cannot access %q: %v`, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }
