package keys

import (
	"bytes"
	"testing"
)

func TestTranslateModifierOnly(t *testing.T) {
	if got := Translate(Key{Modifiers: ModControl}); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestTranslateControlLetter(t *testing.T) {
	got := Translate(Key{Rune: 'c', Modifiers: ModControl})
	if !bytes.Equal(got, []byte{0x03}) {
		t.Fatalf("got %v, want [0x03]", got)
	}
}

func TestTranslateControlBracket(t *testing.T) {
	got := Translate(Key{Rune: '[', Modifiers: ModControl})
	if !bytes.Equal(got, []byte{0x1B}) {
		t.Fatalf("got %v, want [0x1B]", got)
	}
}

func TestTranslateAlt(t *testing.T) {
	got := Translate(Key{Rune: 'x', Modifiers: ModAlt})
	if !bytes.Equal(got, []byte{0x1B, 'x'}) {
		t.Fatalf("got %v, want ESC x", got)
	}
}

func TestTranslatePlain(t *testing.T) {
	got := Translate(Key{Rune: 'a'})
	if !bytes.Equal(got, []byte{'a'}) {
		t.Fatalf("got %v, want [a]", got)
	}
}

func TestTranslateShiftOnlyIsPlain(t *testing.T) {
	got := Translate(Key{Rune: 'A', Modifiers: ModShift})
	if !bytes.Equal(got, []byte{'A'}) {
		t.Fatalf("got %v, want [A]", got)
	}
}

func TestTranslateNonASCIIFallsBackToPlaceholder(t *testing.T) {
	got := Translate(Key{Rune: 'é'})
	if !bytes.Equal(got, []byte{'?'}) {
		t.Fatalf("got %v, want [?]", got)
	}
}

func TestTranslateNamed(t *testing.T) {
	seq, ok := TranslateNamed("up")
	if !ok || string(seq) != "\x1b[A" {
		t.Fatalf("got (%q, %v), want (ESC[A, true)", seq, ok)
	}
}

func TestTranslateNamedUnknown(t *testing.T) {
	if _, ok := TranslateNamed("nonexistent"); ok {
		t.Fatal("expected unknown key name to report false")
	}
}
