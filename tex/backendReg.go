package tex

import (
	"slices"
	"strings"

	"github.com/texproc/texproc/internal/consts"
)

var backendsRegistered []Backend

// RegisterBackend appends a backend to the registry. Registration order is
// not significant; selection order comes from the priority list.
func RegisterBackend(b Backend) {
	if b == nil {
		return
	}
	backendsRegistered = append(backendsRegistered, b)
}

// AllBackends returns all registered backends.
func AllBackends() []Backend {
	return backendsRegistered
}

// EnabledBackends returns the registered backends in priority order.
// Backends with narrower capabilities come first so that they win the
// first-match dispatch over general-purpose fallbacks.
func EnabledBackends() []Backend {
	backendsEnabled := make([]Backend, 0, len(backendsPriorityOrdered))
	for _, name := range backendsPriorityOrdered {
		for _, b := range backendsRegistered {
			if b == nil {
				continue
			}
			if b.Name() == name {
				backendsEnabled = append(backendsEnabled, b)
				break
			}
		}
	}
	return backendsEnabled
}

// GetRegBackendByName returns a registered backend or nil.
func GetRegBackendByName(name string) Backend {
	for _, b := range backendsRegistered {
		if b != nil && b.Name() == name {
			return b
		}
	}
	return nil
}

func init() { ResetBackendList() }

// DisableBackend removes a backend from the priority list until
// ResetBackendList is called.
func DisableBackend(name string) {
	name = strings.TrimSpace(name)
	idx := slices.Index(backendsPriorityOrdered, name)
	if idx < 0 {
		return
	}
	backendsPriorityOrdered = slices.Delete(backendsPriorityOrdered, idx, idx+1)
}

func ResetBackendList() {
	backendsPriorityOrdered = slices.Clone(backendsPriorityOrderedDefault)
}

var (
	backendsPriorityOrdered []string

	backendsPriorityOrderedDefault = []string{
		consts.BackendSoftName,
		consts.BackendDXTexName,
	}
)
