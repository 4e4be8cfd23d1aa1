package tex

import (
	"fmt"
	"strings"
)

// Filter is the abstract resampling filter kind requested by Rescale and
// GenerateMipMaps. Backends map it onto whatever their codec or resampler
// library calls the equivalent kernel.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterBox
	FilterBilinear
	FilterBicubic
)

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return `nearest`
	case FilterBox:
		return `box`
	case FilterBilinear:
		return `bilinear`
	case FilterBicubic:
		return `bicubic`
	}
	return `filter(?)`
}

// Valid reports whether f is one of the four defined filter kinds.
func (f Filter) Valid() bool { return f <= FilterBicubic }

// ParseFilter resolves a filter name (case-insensitive).
func ParseFilter(name string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case `nearest`, `point`:
		return FilterNearest, nil
	case `box`:
		return FilterBox, nil
	case `bilinear`, `linear`:
		return FilterBilinear, nil
	case `bicubic`, `cubic`:
		return FilterBicubic, nil
	}
	return FilterNearest, fmt.Errorf(`unknown filter %q`, name)
}
