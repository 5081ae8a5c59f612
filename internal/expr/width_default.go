//go:build !tecosmallint

package expr

// Int is the interpreter's integer width: 64-bit by default, matching
// modern TECO builds and Go's natural word size (spec.md §3's Open
// Questions on integer width).
type Int = int64
