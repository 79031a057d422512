// Package keys implements the pure, stateless translation from a key
// event to the outbound byte sequence the PTY expects, and from a named
// key (the vocabulary a remote client sends over the wire) to the same.
package keys

// Modifiers bit flags. Shift alone is equivalent to no modifiers for
// translation purposes; it only affects which rune the key produced.
type Modifiers uint8

const (
	ModNone    Modifiers = 0
	ModShift   Modifiers = 1 << 0
	ModControl Modifiers = 1 << 1
	ModAlt     Modifiers = 1 << 2
)

// Key is one key-press event as delivered by the front end: either a
// printable rune (Rune != 0) or a modifier-only press (Rune == 0, no
// named key either).
type Key struct {
	Rune      rune
	Modifiers Modifiers
}

// Translate converts a key event into the bytes to write to the PTY.
// It returns nil for a modifier-only press, matching the invariant that
// translating a bare modifier key yields an empty sequence.
func Translate(k Key) []byte {
	if k.Rune == 0 {
		return nil
	}

	if k.Modifiers&ModControl != 0 {
		switch {
		case k.Rune >= 'a' && k.Rune <= 'z':
			return []byte{byte(k.Rune - 'a' + 1)}
		case k.Rune == '[':
			return []byte{0x1B}
		}
	}

	if k.Modifiers&ModAlt != 0 {
		if k.Rune < 0x80 {
			return []byte{0x1B, byte(k.Rune)}
		}
		return nil
	}

	if k.Rune < 0x80 {
		return []byte{byte(k.Rune)}
	}
	return []byte{'?'}
}

// namedKeys maps the vocabulary a remote client sends (arrow keys,
// function keys, paging keys) to their outbound escape sequences. Named
// keys bypass Translate entirely since they carry no rune.
var namedKeys = map[string]string{
	"enter":     "\r",
	"tab":       "\t",
	"backspace": "\x7f",
	"escape":    "\x1b",
	"up":        "\x1b[A",
	"down":      "\x1b[B",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"home":      "\x1b[H",
	"end":       "\x1b[F",
	"pageup":    "\x1b[5~",
	"pagedown":  "\x1b[6~",
	"delete":    "\x1b[3~",
	"insert":    "\x1b[2~",
	"f1":        "\x1bOP",
	"f2":        "\x1bOQ",
	"f3":        "\x1bOR",
	"f4":        "\x1bOS",
	"f5":        "\x1b[15~",
	"f6":        "\x1b[17~",
	"f7":        "\x1b[18~",
	"f8":        "\x1b[19~",
	"f9":        "\x1b[20~",
	"f10":       "\x1b[21~",
	"f11":       "\x1b[23~",
	"f12":       "\x1b[24~",
}

// TranslateNamed looks up a named key (as sent by a remote client) and
// returns its outbound byte sequence, or false if the name is unknown.
func TranslateNamed(name string) ([]byte, bool) {
	seq, ok := namedKeys[name]
	if !ok {
		return nil, false
	}
	return []byte(seq), true
}
