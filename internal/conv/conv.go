// Package conv provides checked integer narrowing for the pattern
// compiler.
//
// Program counters, rule numbers and repetition counts are 16-bit on the
// wire; these helpers panic on a narrowing that would overflow, which
// indicates a bug: the encoder bounds-checks program growth against its
// index space before converting.
package conv

import "math"

// IntToUint16 converts an int to uint16, panicking if the value does not
// fit.
//
//go:inline
func IntToUint16(n int) uint16 {
	if n < 0 || n > math.MaxUint16 {
		panic("integer overflow: int value out of uint16 range")
	}
	return uint16(n)
}

// IntToUint32 converts an int to uint32, panicking if the value does not
// fit.
//
//go:inline
func IntToUint32(n int) uint32 {
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}
