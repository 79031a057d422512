package vt

// Cell is a single screen position: a scalar value and the packed
// attribute word in effect when it was written.
type Cell struct {
	Ch   rune
	Attr Attr
}

// blankCell is materialized for any row/column grown by EnsurePos and is
// what a read past a row's current length should be treated as.
var blankCell = Cell{Ch: ' '}
