package tex

import (
	"log/slog"
	"sync"

	"github.com/texproc/texproc/internal/consts"
	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/internal/logx"
)

// Dispatcher routes requests against images to capable backends and
// brackets backend activation/deactivation so that native buffers are
// owned by exactly one backend at a time.
//
// Processing is single-threaded and synchronous per image: each request
// fully completes before the next one is considered. Distinct images may
// be processed concurrently through independent dispatchers.
type Dispatcher struct {
	backends []Backend
	logger   *slog.Logger

	mu       sync.Mutex
	bindings map[*Image]*binding
}

// binding is the dispatcher-owned (image, backend) association: which
// backend currently holds the image's native buffers, and its state.
type binding struct {
	backend Backend
	state   BackendState
}

var _ logx.LoggerProvider = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher over the backends selected by the
// options. Without a SetBackends option the registered backends are used
// in priority order.
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{bindings: make(map[*Image]*binding)}
	if err := d.SetOptions(opts...); err != nil {
		return nil, err
	}
	if d.backends == nil {
		d.backends = EnabledBackends()
	}
	return d, nil
}

// Logger returns the dispatcher's logger, nil when logging is disabled.
func (d *Dispatcher) Logger() *slog.Logger {
	if d == nil {
		return nil
	}
	return d.logger
}

// Backends returns the dispatch order.
func (d *Dispatcher) Backends() []Backend {
	if d == nil {
		return nil
	}
	return d.backends
}

// Owner returns the backend currently holding the image's native buffers,
// nil while the image is unbound.
func (d *Dispatcher) Owner(img *Image) Backend {
	if d == nil || img == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if bind, ok := d.bindings[img]; ok {
		return bind.backend
	}
	return nil
}

// Process runs an ordered request sequence against one image. Each request
// is routed to the first backend in dispatch order that can handle it;
// ownership of native buffers moves between backends as needed. The first
// error aborts the remaining sequence; the image keeps its last consistent
// state. The returned images are artifacts derived along the way
// (GenerateNormalMap), in request order.
func (d *Dispatcher) Process(img *Image, reqs ...Request) ([]*Image, error) {
	if d == nil {
		return nil, errors.New(consts.ErrNilReceiver)
	}
	if img == nil {
		return nil, errors.New(consts.ErrNilImage)
	}
	var artifacts []*Image
	for _, req := range reqs {
		derived, err := d.execute(img, req)
		if err != nil {
			return artifacts, err
		}
		if derived != nil {
			artifacts = append(artifacts, derived)
		}
	}
	return artifacts, nil
}

func (d *Dispatcher) execute(img *Image, req Request) (*Image, error) {
	if req == nil {
		return nil, errors.New(consts.ErrNilParam)
	}
	if img.Empty() {
		if _, isLoad := req.(Load); !isLoad {
			return nil, errors.New(consts.ErrEmptyImage)
		}
	}
	b := d.selectBackend(img, req)
	if b == nil {
		return nil, errors.New(&UnsupportedRequestError{Kind: req.Kind(), Format: img.Format})
	}

	d.mu.Lock()
	bind := d.bindings[img]
	d.mu.Unlock()

	var prior BackendState
	if bind != nil {
		if bind.backend.Name() != b.Name() {
			// ownership transfer: release the old native buffers before
			// the new backend imports the image's current view
			logx.Debug(`backend switch`, d,
				`from`, bind.backend.Name(), `to`, b.Name(), `request`, req.Kind())
			if err := bind.backend.Deactivate(bind.state); logx.IsErr(err, d, slog.LevelError,
				`backend`, bind.backend.Name()) {
				return nil, err
			}
			d.unbind(img)
			bind = nil
		} else {
			prior = bind.state
		}
	}

	st, err := b.Activate(img, prior)
	if err != nil {
		if bind == nil {
			d.unbind(img)
		}
		return nil, err
	}
	d.setBinding(img, b, st)

	newSt, derived, err := b.Execute(img, req, st)
	// backends return their last consistent state even on failure
	d.setBinding(img, b, newSt)
	if err != nil {
		return nil, err
	}
	logx.Debug(`request executed`, d,
		`backend`, b.Name(), `request`, req.Kind(), `format`, img.Format.String(),
		`width`, img.Width, `height`, img.Height, `mips`, img.MipLevels)
	return derived, nil
}

// selectBackend queries CanHandle in dispatch order; the first affirmative
// answer wins. Backends that cannot take the image's current channel byte
// order are skipped up front.
func (d *Dispatcher) selectBackend(img *Image, req Request) Backend {
	gateOrder := !img.Empty()
	order := img.Format.Order()
	for _, b := range d.backends {
		if b == nil {
			continue
		}
		if gateOrder && !b.SupportsChannelOrder(order) {
			continue
		}
		if b.CanHandle(img, req) {
			return b
		}
	}
	return nil
}

// Release ends the pipeline for an image: the owning backend's native
// state is freed and the image becomes unbound. The image's buffer views
// are invalid afterwards. No-op for images never activated.
func (d *Dispatcher) Release(img *Image) error {
	if d == nil {
		return errors.New(consts.ErrNilReceiver)
	}
	if img == nil {
		return nil
	}
	d.mu.Lock()
	bind := d.bindings[img]
	delete(d.bindings, img)
	d.mu.Unlock()
	if bind == nil {
		return nil
	}
	err := bind.backend.Deactivate(bind.state)
	img.Detach()
	return logx.Err(err, d, slog.LevelError, `backend`, bind.backend.Name())
}

func (d *Dispatcher) setBinding(img *Image, b Backend, st BackendState) {
	if st == nil {
		return
	}
	d.mu.Lock()
	d.bindings[img] = &binding{backend: b, state: st}
	d.mu.Unlock()
}

func (d *Dispatcher) unbind(img *Image) {
	d.mu.Lock()
	delete(d.bindings, img)
	d.mu.Unlock()
}
