package vt

// Attr is the packed 16-bit display attribute word applied to a Cell.
//
//	bits 0-3: foreground color index + 1, 0 = default
//	bits 4-7: background color index + 1, 0 = default
//	bit 8:    bold
//	bit 9:    inverse
//
// Higher bits are reserved. Bright variants of a color are derived from
// bold+fg at paint time; Attr only carries the base 0..7 index.
type Attr uint16

const (
	attrFGMask   Attr = 0x000F
	attrBGMask   Attr = 0x00F0
	attrBGShift       = 4
	attrBoldBit  Attr = 1 << 8
	attrInverseBit Attr = 1 << 9
)

// Bold reports whether the bold bit is set.
func (a Attr) Bold() bool { return a&attrBoldBit != 0 }

// SetBold returns a copy of a with the bold bit set.
func (a Attr) SetBold() Attr { return a | attrBoldBit }

// Inverse reports whether the inverse bit is set.
func (a Attr) Inverse() bool { return a&attrInverseBit != 0 }

// SetInverse returns a copy of a with the inverse bit set or cleared.
func (a Attr) SetInverse(set bool) Attr {
	if set {
		return a | attrInverseBit
	}
	return a &^ attrInverseBit
}

// FG returns the foreground color index (0..7) and whether one is set.
func (a Attr) FG() (int, bool) {
	v := a & attrFGMask
	if v == 0 {
		return 0, false
	}
	return int(v) - 1, true
}

// SetFG returns a copy of a with the foreground set to idx, or cleared to
// the default foreground when ok is false.
func (a Attr) SetFG(idx int, ok bool) Attr {
	var v Attr
	if ok {
		v = Attr(idx) + 1
	}
	return a&^attrFGMask | v
}

// BG returns the background color index (0..7) and whether one is set.
func (a Attr) BG() (int, bool) {
	v := (a & attrBGMask) >> attrBGShift
	if v == 0 {
		return 0, false
	}
	return int(v) - 1, true
}

// SetBG returns a copy of a with the background set to idx, or cleared to
// the default background when ok is false.
func (a Attr) SetBG(idx int, ok bool) Attr {
	var v Attr
	if ok {
		v = Attr(idx) + 1
	}
	return a&^attrBGMask | v<<attrBGShift
}
