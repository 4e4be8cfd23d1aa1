package tex

import (
	"log/slog"

	"github.com/texproc/texproc/internal/errors"
)

type Option interface {
	ApplyOption(d *Dispatcher) error
}

var _ Option = (OptFunc)(nil)

type OptFunc func(*Dispatcher) error

func (o OptFunc) ApplyOption(d *Dispatcher) error { return o(d) }

var _ Option = (Options)(nil)

type Options []Option

func (o Options) ApplyOption(d *Dispatcher) error { return d.SetOptions([]Option(o)...) }

func (d *Dispatcher) SetOptions(opts ...Option) error {
	if d == nil {
		return errors.NilReceiver()
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.ApplyOption(d); err != nil {
			return errors.New(err)
		}
	}
	return nil
}

// SetBackends fixes the dispatch order explicitly instead of using the
// registry's priority order.
func SetBackends(backends ...Backend) Option {
	return OptFunc(func(d *Dispatcher) error {
		d.backends = backends
		return nil
	})
}

// SetLogger enables logging. The dispatcher is silent by default.
func SetLogger(logger *slog.Logger) Option {
	return OptFunc(func(d *Dispatcher) error {
		d.logger = logger
		return nil
	})
}
