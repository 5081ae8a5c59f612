//go:build tecosmallint

package expr

// Int narrowed to 32 bits. Build with -tags tecosmallint for parity
// testing against the narrower two's-complement wraparound invariant
// (spec.md §3).
type Int = int32
