package consts

import (
	"errors"
)

var (
	ErrNilReceiver   = errors.New(`nil receiver`)
	ErrNilParam      = errors.New(`nil parameter`)
	ErrNilImage      = errors.New(`nil image`)
	ErrEmptyImage    = errors.New(`image has no pixel data`)
	ErrReleasedState = errors.New(`backend state already released`)
)

const (
	BackendSoftName  = `soft`
	BackendDXTexName = `dxtex`

	LibraryName = `texproc`

	ExtDDS  = `.dds`
	ExtEDDS = `.edds`
)
