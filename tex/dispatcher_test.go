package tex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texproc/texproc/internal/errors"
	"github.com/texproc/texproc/tex"

	_ "github.com/texproc/texproc/backends/dxtex"
	_ "github.com/texproc/texproc/backends/soft"
)

type stubState struct {
	owner    string
	released bool
}

func (s *stubState) Owner() string { return s.owner }
func (s *stubState) Release()      { s.released = true }

type stubBackend struct {
	name        string
	handles     func(img *tex.Image, req tex.Request) bool
	bgra        bool
	activations int
	executions  int
	last        *stubState
}

var _ tex.Backend = (*stubBackend)(nil)

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) CanHandle(img *tex.Image, req tex.Request) bool {
	if b.handles == nil {
		return false
	}
	return b.handles(img, req)
}

func (b *stubBackend) Activate(img *tex.Image, prior tex.BackendState) (tex.BackendState, error) {
	if st, ok := prior.(*stubState); ok && st != nil && !st.released {
		return st, nil
	}
	b.activations++
	b.last = &stubState{owner: b.name}
	return b.last, nil
}

func (b *stubBackend) Execute(img *tex.Image, req tex.Request, st tex.BackendState) (tex.BackendState, *tex.Image, error) {
	b.executions++
	return st, nil, nil
}

func (b *stubBackend) Deactivate(st tex.BackendState) error {
	s, ok := st.(*stubState)
	if !ok || s == nil || s.owner != b.name {
		return nil
	}
	s.Release()
	return nil
}

func (b *stubBackend) SupportsChannelOrder(o tex.ChannelOrder) bool {
	if o == tex.OrderBGRA {
		return b.bgra
	}
	return true
}

func handlesKinds(kinds ...string) func(*tex.Image, tex.Request) bool {
	return func(_ *tex.Image, req tex.Request) bool {
		for _, k := range kinds {
			if req.Kind() == k {
				return true
			}
		}
		return false
	}
}

func newTestImage(t *testing.T, f tex.PixelFormat) *tex.Image {
	t.Helper()
	img := &tex.Image{}
	_, total := tex.SubimageLayout(tex.Tex2D, f, 8, 8, 1, 1, 1)
	require.NoError(t, img.Update(tex.Tex2D, f, 8, 8, 1, 1, 1, make([]byte, total)))
	return img
}

func TestDispatchOrderFirstMatchWins(t *testing.T) {
	first := &stubBackend{name: `first`, handles: handlesKinds(`decompress`)}
	second := &stubBackend{name: `second`, handles: handlesKinds(`decompress`)}
	d, err := tex.NewDispatcher(tex.SetBackends(first, second))
	require.NoError(t, err)

	img := newTestImage(t, tex.FormatBC3UNorm)
	_, err = d.Process(img, tex.Decompress{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.activations)
	assert.Equal(t, 0, second.activations)
	assert.Equal(t, `first`, d.Owner(img).Name())
}

func TestBackendSwitchReleasesPreviousState(t *testing.T) {
	a := &stubBackend{name: `a`, handles: handlesKinds(`rescale`)}
	b := &stubBackend{name: `b`, handles: handlesKinds(`compress`)}
	d, err := tex.NewDispatcher(tex.SetBackends(a, b))
	require.NoError(t, err)

	img := newTestImage(t, tex.FormatR8G8B8A8UNorm)
	_, err = d.Process(img,
		tex.Rescale{Width: 4, Height: 4, Filter: tex.FilterBilinear},
		tex.Compress{TargetFormat: tex.FormatBC1UNorm},
	)
	require.NoError(t, err)

	// ownership moved a -> b; a's native state was released on the switch
	require.NotNil(t, a.last)
	assert.True(t, a.last.released)
	require.NotNil(t, b.last)
	assert.False(t, b.last.released)
	assert.Equal(t, `b`, d.Owner(img).Name())

	// the previous backend no longer holds anything to corrupt
	assert.NoError(t, a.Deactivate(a.last))
}

func TestSameBackendIsNotReactivated(t *testing.T) {
	a := &stubBackend{name: `a`, handles: handlesKinds(`rescale`, `premultiply-alpha`)}
	d, err := tex.NewDispatcher(tex.SetBackends(a))
	require.NoError(t, err)

	img := newTestImage(t, tex.FormatR8G8B8A8UNorm)
	_, err = d.Process(img,
		tex.Rescale{Width: 4, Height: 4, Filter: tex.FilterBilinear},
		tex.PremultiplyAlpha{},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, a.activations, `idempotent activate must reuse live state`)
	assert.Equal(t, 2, a.executions)
}

func TestUnsupportedRequest(t *testing.T) {
	a := &stubBackend{name: `a`, handles: handlesKinds(`rescale`)}
	d, err := tex.NewDispatcher(tex.SetBackends(a))
	require.NoError(t, err)

	img := newTestImage(t, tex.FormatR8G8B8A8UNorm)
	_, err = d.Process(img, tex.Decompress{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tex.ErrUnsupportedRequest))
	var ure *tex.UnsupportedRequestError
	require.True(t, errors.As(err, &ure))
	assert.Equal(t, `decompress`, ure.Kind)
}

func TestEmptyImageOnlyAcceptsLoad(t *testing.T) {
	a := &stubBackend{name: `a`, handles: handlesKinds(`load`, `decompress`)}
	d, err := tex.NewDispatcher(tex.SetBackends(a))
	require.NoError(t, err)

	img := &tex.Image{}
	_, err = d.Process(img, tex.Decompress{})
	assert.Error(t, err)

	_, err = d.Process(img, tex.Load{Path: `whatever.dds`})
	assert.NoError(t, err)
}

func TestChannelOrderGate(t *testing.T) {
	noBGRA := &stubBackend{name: `no-bgra`, handles: handlesKinds(`decompress`), bgra: false}
	withBGRA := &stubBackend{name: `with-bgra`, handles: handlesKinds(`decompress`), bgra: true}
	d, err := tex.NewDispatcher(tex.SetBackends(noBGRA, withBGRA))
	require.NoError(t, err)

	img := newTestImage(t, tex.FormatB8G8R8A8UNorm)
	_, err = d.Process(img, tex.Decompress{})
	require.NoError(t, err)
	assert.Equal(t, 0, noBGRA.activations)
	assert.Equal(t, 1, withBGRA.activations)
}

func TestReleaseUnbindsImage(t *testing.T) {
	a := &stubBackend{name: `a`, handles: handlesKinds(`rescale`)}
	d, err := tex.NewDispatcher(tex.SetBackends(a))
	require.NoError(t, err)

	img := newTestImage(t, tex.FormatR8G8B8A8UNorm)
	_, err = d.Process(img, tex.Rescale{Width: 4, Height: 4, Filter: tex.FilterBilinear})
	require.NoError(t, err)
	require.NotNil(t, d.Owner(img))

	require.NoError(t, d.Release(img))
	assert.Nil(t, d.Owner(img))
	assert.True(t, a.last.released)
	assert.Nil(t, img.View(), `buffer views are dangling after release`)

	// releasing an unbound image is a no-op
	assert.NoError(t, d.Release(img))
}

func TestRegistryPriorityOrder(t *testing.T) {
	t.Cleanup(tex.ResetBackendList)
	names := func() []string {
		var ns []string
		for _, b := range tex.EnabledBackends() {
			ns = append(ns, b.Name())
		}
		return ns
	}
	assert.Equal(t, []string{`soft`, `dxtex`}, names())
	tex.DisableBackend(`soft`)
	assert.Equal(t, []string{`dxtex`}, names())
}

func TestRegistryLookupByName(t *testing.T) {
	b := tex.GetRegBackendByName(`dxtex`)
	require.NotNil(t, b)
	assert.Equal(t, `dxtex`, b.Name())
	assert.Nil(t, tex.GetRegBackendByName(`no-such-backend`))
}
