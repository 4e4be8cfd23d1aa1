package texproc

import (
	"github.com/texproc/texproc/tex"

	// register the default backends
	_ "github.com/texproc/texproc/backends/dxtex"
	_ "github.com/texproc/texproc/backends/soft"
)

var dispatcherActive *tex.Dispatcher

// Dispatcher returns the package-level dispatcher over the registered
// backends in priority order.
func Dispatcher() (*tex.Dispatcher, error) {
	if err := initDispatcher(); err != nil {
		return nil, err
	}
	return dispatcherActive, nil
}

func initDispatcher() error {
	if dispatcherActive != nil {
		return nil
	}
	var err error
	dispatcherActive, err = tex.NewDispatcher()
	return err
}

// Process runs a request sequence against an image with the default
// dispatcher and returns derived artifacts.
func Process(img *tex.Image, reqs ...tex.Request) ([]*tex.Image, error) {
	d, err := Dispatcher()
	if err != nil {
		return nil, err
	}
	return d.Process(img, reqs...)
}

// LoadFile reads a texture container into a fresh image. The caller must
// Release the image when done with it.
func LoadFile(path string) (*tex.Image, error) {
	d, err := Dispatcher()
	if err != nil {
		return nil, err
	}
	img := &tex.Image{}
	if _, err := d.Process(img, tex.Load{Path: path}); err != nil {
		return nil, err
	}
	return img, nil
}

// Release ends processing for an image loaded or processed through the
// default dispatcher, freeing the owning backend's native state.
func Release(img *tex.Image) error {
	d, err := Dispatcher()
	if err != nil {
		return err
	}
	return d.Release(img)
}
