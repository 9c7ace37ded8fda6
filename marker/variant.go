/*
DESCRIPTION
  variant.go provides the catalog of supported ArUco dictionary variants,
  their grid sizes and ID capacities.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package marker provides the ArUco marker catalog, and the generation,
// decoration and saving of marker bitmaps.
package marker

import (
	"errors"
	"fmt"
	"strings"
)

// Variant identifies an ArUco dictionary family. The order of the constants
// matches the predefined dictionary codes of the vision library.
type Variant int

// Supported variants.
const (
	Dict4x4_50 Variant = iota
	Dict4x4_100
	Dict4x4_250
	Dict4x4_1000
	Dict5x5_50
	Dict5x5_100
	Dict5x5_250
	Dict5x5_1000
	Dict6x6_50
	Dict6x6_100
	Dict6x6_250
	Dict6x6_1000
	Dict7x7_50
	Dict7x7_100
	Dict7x7_250
	Dict7x7_1000
	DictArucoOriginal
)

// DefaultVariant is the variant used by the marker maker and the tracker
// when none is configured.
const DefaultVariant = Dict6x6_250

// Errors returned by the catalog.
var (
	ErrIDOutOfRange   = errors.New("marker ID out of range")
	ErrUnknownVariant = errors.New("unknown marker variant")
)

var variants = [...]struct {
	name     string
	grid     int
	capacity int
}{
	Dict4x4_50:        {"DICT_4X4_50", 4, 50},
	Dict4x4_100:       {"DICT_4X4_100", 4, 100},
	Dict4x4_250:       {"DICT_4X4_250", 4, 250},
	Dict4x4_1000:      {"DICT_4X4_1000", 4, 1000},
	Dict5x5_50:        {"DICT_5X5_50", 5, 50},
	Dict5x5_100:       {"DICT_5X5_100", 5, 100},
	Dict5x5_250:       {"DICT_5X5_250", 5, 250},
	Dict5x5_1000:      {"DICT_5X5_1000", 5, 1000},
	Dict6x6_50:        {"DICT_6X6_50", 6, 50},
	Dict6x6_100:       {"DICT_6X6_100", 6, 100},
	Dict6x6_250:       {"DICT_6X6_250", 6, 250},
	Dict6x6_1000:      {"DICT_6X6_1000", 6, 1000},
	Dict7x7_50:        {"DICT_7X7_50", 7, 50},
	Dict7x7_100:       {"DICT_7X7_100", 7, 100},
	Dict7x7_250:       {"DICT_7X7_250", 7, 250},
	Dict7x7_1000:      {"DICT_7X7_1000", 7, 1000},
	DictArucoOriginal: {"DICT_ARUCO_ORIGINAL", 5, 1024},
}

// Variants returns all supported variants in catalog order.
func Variants() []Variant {
	vs := make([]Variant, len(variants))
	for i := range variants {
		vs[i] = Variant(i)
	}
	return vs
}

// ParseVariant returns the variant with the given name. Names are matched
// case insensitively and the "DICT_" prefix is optional, so "6x6_250" and
// "DICT_6X6_250" are equivalent.
func ParseVariant(name string) (Variant, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "DICT_") {
		n = "DICT_" + n
	}
	for i, v := range variants {
		if v.name == n {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Valid returns true if v is a known variant.
func (v Variant) Valid() bool { return v >= 0 && int(v) < len(variants) }

func (v Variant) String() string {
	if !v.Valid() {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variants[v].name
}

// Grid returns the number of data bits along one side of a marker.
func (v Variant) Grid() int {
	if !v.Valid() {
		return 0
	}
	return variants[v].grid
}

// Capacity returns the number of addressable IDs; valid IDs are
// [0, Capacity).
func (v Variant) Capacity() int {
	if !v.Valid() {
		return 0
	}
	return variants[v].capacity
}

// CheckID returns an error wrapping ErrIDOutOfRange if id cannot be
// addressed by v.
func CheckID(v Variant, id int) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	if id < 0 || id >= v.Capacity() {
		return fmt.Errorf("%w: %d not in [0, %d) for %v", ErrIDOutOfRange, id, v.Capacity(), v)
	}
	return nil
}
